package service

import (
	"context"

	"github.com/irakliskhirtladze/Library-management-system/internal/repository"

	"github.com/google/uuid"
)

// AddWish записывает желание получить сейчас недоступную книгу. Строка
// книги блокируется, поэтому желание либо попадает в текущую рассылку
// уведомителя, либо ждёт следующего освобождения.
func (s *circulationService) AddWish(ctx context.Context, bookID uuid.UUID) error {
	uid, _, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	return s.atomically(ctx, func(tx *repository.Repository) error {
		book, err := s.lockBook(ctx, tx, bookID)
		if err != nil {
			return err
		}
		n, err := CurrentAvailability(ctx, tx, book)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrBookAvailable
		}
		return tx.Wishes.Add(ctx, bookID, uid, s.now())
	})
}

func (s *circulationService) RemoveWish(ctx context.Context, bookID uuid.UUID) error {
	uid, _, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	return s.atomically(ctx, func(tx *repository.Repository) error {
		if _, err := s.lockBook(ctx, tx, bookID); err != nil {
			return err
		}
		_, err := tx.Wishes.Remove(ctx, bookID, uid)
		return err
	})
}
