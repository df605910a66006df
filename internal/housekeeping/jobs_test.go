package housekeeping

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/models"
	"github.com/irakliskhirtladze/Library-management-system/internal/notifier"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type mockCirculation struct {
	ExpireAllFn func(ctx context.Context, now time.Time) (int64, error)
	OverdueFn   func(ctx context.Context, now time.Time) ([]models.Borrow, error)
	GetBookFn   func(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

func (m *mockCirculation) ExpireAll(ctx context.Context, now time.Time) (int64, error) {
	return m.ExpireAllFn(ctx, now)
}

func (m *mockCirculation) Overdue(ctx context.Context, now time.Time) ([]models.Borrow, error) {
	return m.OverdueFn(ctx, now)
}

func (m *mockCirculation) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	return m.GetBookFn(ctx, id)
}

type mockSender struct {
	mu     sync.Mutex
	sent   []notifier.Notification
	failTo uuid.UUID
}

func (m *mockSender) Send(_ context.Context, n notifier.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.UserID == m.failTo {
		return errors.New("kafka unavailable")
	}
	m.sent = append(m.sent, n)
	return nil
}

func TestNotifyOverdue_SendsEveryRunWithoutDedup(t *testing.T) {
	book := &models.Book{ID: uuid.New(), Title: "Solaris"}
	borrows := []models.Borrow{
		{ID: uuid.New(), UserID: uuid.New(), BookID: book.ID},
		{ID: uuid.New(), UserID: uuid.New(), BookID: book.ID},
	}
	lookups := 0
	circ := &mockCirculation{
		OverdueFn: func(context.Context, time.Time) ([]models.Borrow, error) { return borrows, nil },
		GetBookFn: func(context.Context, uuid.UUID) (*models.Book, error) {
			lookups++
			return book, nil
		},
	}
	sender := &mockSender{}
	jobs := NewJobs(circ, sender, zap.NewNop())

	for i := 0; i < 2; i++ {
		sent, err := jobs.NotifyOverdue(context.Background(), time.Now())
		if err != nil {
			t.Fatalf("NotifyOverdue: %v", err)
		}
		if sent != 2 {
			t.Fatalf("expected 2 reminders, got %d", sent)
		}
	}

	if len(sender.sent) != 4 {
		t.Fatalf("expected reminders on every run, got %d", len(sender.sent))
	}
	if sender.sent[0].Kind != notifier.KindOverdueReminder {
		t.Fatalf("unexpected kind %q", sender.sent[0].Kind)
	}
	if lookups != 2 {
		t.Fatalf("book title should be looked up once per run, got %d lookups", lookups)
	}
}

func TestNotifyOverdue_FailureDoesNotStopOthers(t *testing.T) {
	book := &models.Book{ID: uuid.New(), Title: "Roadside Picnic"}
	failing := uuid.New()
	borrows := []models.Borrow{
		{ID: uuid.New(), UserID: failing, BookID: book.ID},
		{ID: uuid.New(), UserID: uuid.New(), BookID: book.ID},
	}
	circ := &mockCirculation{
		OverdueFn: func(context.Context, time.Time) ([]models.Borrow, error) { return borrows, nil },
		GetBookFn: func(context.Context, uuid.UUID) (*models.Book, error) { return book, nil },
	}
	sender := &mockSender{failTo: failing}

	sent, err := NewJobs(circ, sender, zap.NewNop()).NotifyOverdue(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("delivery failure must not surface: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 delivered reminder, got %d", sent)
	}
}

func TestExpireReservations_PassesNowAndPropagatesError(t *testing.T) {
	now := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	var got time.Time
	circ := &mockCirculation{
		ExpireAllFn: func(_ context.Context, n time.Time) (int64, error) {
			got = n
			return 3, nil
		},
	}
	jobs := NewJobs(circ, &mockSender{}, zap.NewNop())

	n, err := jobs.ExpireReservations(context.Background(), now)
	if err != nil || n != 3 {
		t.Fatalf("got n=%d err=%v", n, err)
	}
	if !got.Equal(now) {
		t.Fatalf("ExpireAll called with %v, want %v", got, now)
	}

	boom := errors.New("db down")
	circ.ExpireAllFn = func(context.Context, time.Time) (int64, error) { return 0, boom }
	if err := jobs.RunAll(context.Background(), now); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestRunAll_UsesSingleTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	var seen []time.Time
	circ := &mockCirculation{
		ExpireAllFn: func(_ context.Context, n time.Time) (int64, error) {
			seen = append(seen, n)
			return 0, nil
		},
		OverdueFn: func(_ context.Context, n time.Time) ([]models.Borrow, error) {
			seen = append(seen, n)
			return nil, nil
		},
	}

	if err := NewJobs(circ, &mockSender{}, zap.NewNop()).RunAll(context.Background(), now); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(seen) != 2 || !seen[0].Equal(now) || !seen[1].Equal(now) {
		t.Fatalf("unexpected timestamps %v", seen)
	}
}
