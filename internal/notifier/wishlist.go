package notifier

import (
	"context"
	"fmt"

	"github.com/irakliskhirtladze/Library-management-system/internal/events"
	"github.com/irakliskhirtladze/Library-management-system/internal/models"
	"github.com/irakliskhirtladze/Library-management-system/internal/repository"
	"github.com/irakliskhirtladze/Library-management-system/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const availableSubject = "Book Available Notification"

type WishlistNotifier struct {
	repo   *repository.Repository
	sender Sender
	log    *zap.Logger
}

func NewWishlistNotifier(repo *repository.Repository, sender Sender, log *zap.Logger) *WishlistNotifier {
	return &WishlistNotifier{
		repo:   repo,
		sender: sender,
		log:    log,
	}
}

// Handle: подписчик шины: реагирует только на события, где экземпляры
// могли освободиться.
func (n *WishlistNotifier) Handle(ctx context.Context, ev events.AvailabilityChanged) {
	if !ev.Released {
		return
	}
	if _, err := n.NotifyIfAvailable(ctx, ev.BookID); err != nil {
		n.log.Error("wishlist notification failed", zap.String("book_id", ev.BookID.String()), zap.Error(err))
	}
}

// NotifyIfAvailable: если книга доступна, весь лист ожидания снимается одной
// транзакцией под блокировкой строки книги, затем каждому отправляется
// уведомление. Возвращает число адресатов.
func (n *WishlistNotifier) NotifyIfAvailable(ctx context.Context, bookID uuid.UUID) (int, error) {
	var (
		book   *models.Book
		wishes []models.Wish
	)
	err := n.repo.WithTx(ctx, func(tx *repository.Repository) error {
		var err error
		book, err = tx.Books.GetForUpdate(ctx, bookID)
		if err != nil || book == nil {
			return err
		}

		avail, err := service.CurrentAvailability(ctx, tx, book)
		if err != nil {
			return err
		}
		if avail <= 0 {
			return nil
		}

		wishes, err = tx.Wishes.ListByBook(ctx, bookID)
		if err != nil || len(wishes) == 0 {
			return err
		}
		_, err = tx.Wishes.ClearByBook(ctx, bookID)
		return err
	})
	if err != nil {
		return 0, err
	}
	if len(wishes) == 0 {
		return 0, nil
	}

	sent := 0
	for _, w := range wishes {
		msg := Notification{
			Kind:    KindBookAvailable,
			UserID:  w.UserID,
			BookID:  bookID,
			Subject: availableSubject,
			Body:    fmt.Sprintf("The book %q is now available. You can reserve or borrow it.", book.Title),
		}
		if err := n.sender.Send(ctx, msg); err != nil {
			n.log.Error("failed to send book available notification",
				zap.String("user_id", w.UserID.String()),
				zap.String("book_id", bookID.String()),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	n.log.Info("wishlist notified",
		zap.String("book_id", bookID.String()),
		zap.Int("recipients", len(wishes)),
		zap.Int("sent", sent),
	)
	return len(wishes), nil
}
