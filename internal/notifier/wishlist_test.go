package notifier_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/events"
	"github.com/irakliskhirtladze/Library-management-system/internal/models"
	"github.com/irakliskhirtladze/Library-management-system/internal/notifier"
	"github.com/irakliskhirtladze/Library-management-system/internal/repository"
	"github.com/irakliskhirtladze/Library-management-system/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	got  []notifier.Notification
	fail bool
}

func (s *recordingSender) Send(_ context.Context, n notifier.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("transport down")
	}
	s.got = append(s.got, n)
	return nil
}

func seedBorrowedBook(t *testing.T, repo *repository.Repository, wishers ...uuid.UUID) (*models.Book, *models.Borrow) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	book := &models.Book{Title: "The Left Hand of Darkness", Quantity: 1}
	require.NoError(t, repo.Books.Create(ctx, book))

	br := &models.Borrow{UserID: uuid.New(), BookID: book.ID, BorrowedAt: now, DueDate: now.Add(time.Hour)}
	require.NoError(t, repo.Borrows.Create(ctx, br))

	for _, w := range wishers {
		require.NoError(t, repo.Wishes.Add(ctx, book.ID, w, now))
	}
	return book, br
}

func TestNotifyIfAvailable_NoopWhileUnavailable(t *testing.T) {
	repo := repository.New(testutil.SetupTestSQLite(t))
	sender := &recordingSender{}
	n := notifier.NewWishlistNotifier(repo, sender, zap.NewNop())

	w := uuid.New()
	book, _ := seedBorrowedBook(t, repo, w)

	cnt, err := n.NotifyIfAvailable(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, cnt)
	assert.Empty(t, sender.got)

	ok, err := repo.Wishes.Exists(context.Background(), book.ID, w)
	require.NoError(t, err)
	assert.True(t, ok, "wish kept until the book is available")
}

func TestNotifyIfAvailable_NotifiesThenClears(t *testing.T) {
	repo := repository.New(testutil.SetupTestSQLite(t))
	sender := &recordingSender{}
	n := notifier.NewWishlistNotifier(repo, sender, zap.NewNop())

	w1, w2 := uuid.New(), uuid.New()
	book, br := seedBorrowedBook(t, repo, w1, w2)

	_, err := repo.Borrows.MarkReturned(context.Background(), br.ID, time.Now())
	require.NoError(t, err)

	cnt, err := n.NotifyIfAvailable(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, cnt)
	require.Len(t, sender.got, 2)
	for _, m := range sender.got {
		assert.Equal(t, notifier.KindBookAvailable, m.Kind)
		assert.Equal(t, book.ID, m.BookID)
		assert.Contains(t, m.Body, book.Title)
	}

	wishes, err := repo.Wishes.ListByBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Empty(t, wishes)

	cnt, err = n.NotifyIfAvailable(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, cnt, "second call has nobody left to notify")
}

func TestNotifyIfAvailable_DeliveryFailureStillClears(t *testing.T) {
	repo := repository.New(testutil.SetupTestSQLite(t))
	sender := &recordingSender{fail: true}
	n := notifier.NewWishlistNotifier(repo, sender, zap.NewNop())

	book, br := seedBorrowedBook(t, repo, uuid.New())
	_, err := repo.Borrows.MarkReturned(context.Background(), br.ID, time.Now())
	require.NoError(t, err)

	_, err = n.NotifyIfAvailable(context.Background(), book.ID)
	require.NoError(t, err)

	wishes, err := repo.Wishes.ListByBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Empty(t, wishes)
}

func TestHandleIgnoresNonReleaseEvents(t *testing.T) {
	repo := repository.New(testutil.SetupTestSQLite(t))
	sender := &recordingSender{}
	n := notifier.NewWishlistNotifier(repo, sender, zap.NewNop())

	book, br := seedBorrowedBook(t, repo, uuid.New())
	_, err := repo.Borrows.MarkReturned(context.Background(), br.ID, time.Now())
	require.NoError(t, err)

	n.Handle(context.Background(), events.AvailabilityChanged{BookID: book.ID, Released: false})
	assert.Empty(t, sender.got)

	n.Handle(context.Background(), events.AvailabilityChanged{BookID: book.ID, Released: true})
	assert.Len(t, sender.got, 1)
}

func TestNotifyIfAvailable_UnknownBook(t *testing.T) {
	repo := repository.New(testutil.SetupTestSQLite(t))
	n := notifier.NewWishlistNotifier(repo, &recordingSender{}, zap.NewNop())

	cnt, err := n.NotifyIfAvailable(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, cnt)
}
