package service

import (
	"context"
	"fmt"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/models"
	"github.com/irakliskhirtladze/Library-management-system/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *circulationService) Borrow(ctx context.Context, bookID uuid.UUID) (*models.Borrow, error) {
	uid, _, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	return s.BorrowFor(ctx, uid, bookID)
}

// BorrowFor выдаёт книгу. Если у пользователя активная бронь на эту же
// книгу, она гасится в той же транзакции, наличие при этом не проверяется.
func (s *circulationService) BorrowFor(ctx context.Context, userID, bookID uuid.UUID) (*models.Borrow, error) {
	if err := s.authorizeFor(ctx, userID); err != nil {
		return nil, err
	}

	var (
		out       *models.Borrow
		converted bool
	)
	err := s.atomically(ctx, func(tx *repository.Repository) error {
		converted = false

		if err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		book, err := s.lockBook(ctx, tx, bookID)
		if err != nil {
			return err
		}
		v, err := validate(ctx, tx, claim{kind: claimBorrow, userID: userID, book: book})
		if err != nil {
			return err
		}

		if v.conversion != nil {
			n, err := tx.Reservations.DeactivateForUserBook(ctx, userID, bookID)
			if err != nil {
				return err
			}
			if n == 0 {
				// бронь погашена между проверкой и записью (истечение), перепроверяем
				return fmt.Errorf("%w: reservation %s changed during borrow", repository.ErrTransient, v.conversion.ID)
			}
			converted = true
		}

		now := s.now().UTC()
		b := &models.Borrow{
			UserID:     userID,
			BookID:     bookID,
			BorrowedAt: now,
			DueDate:    now.Add(s.cfg.BorrowTTL),
		}
		if err := tx.Borrows.Create(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if converted {
		s.log.Debug("reservation converted to borrow",
			zap.String("user_id", userID.String()),
			zap.String("book_id", bookID.String()),
		)
	}
	s.publish(ctx, bookID, false)
	return out, nil
}

func (s *circulationService) ReturnBorrow(ctx context.Context, borrowID uuid.UUID) error {
	var bookID uuid.UUID
	err := s.atomically(ctx, func(tx *repository.Repository) error {
		b, err := tx.Borrows.GetForUpdate(ctx, borrowID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBorrowNotFound
		}
		if err := s.authorizeFor(ctx, b.UserID); err != nil {
			return err
		}
		if !b.IsActive() {
			return ErrAlreadyReturned
		}

		ok, err := tx.Borrows.MarkReturned(ctx, borrowID, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyReturned
		}
		bookID = b.BookID
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, bookID, true)
	return nil
}

// Overdue только читает: невозвращённые выдачи с due_date <= now.
func (s *circulationService) Overdue(ctx context.Context, now time.Time) ([]models.Borrow, error) {
	return s.repo.Borrows.Overdue(ctx, now)
}

// BorrowHistory раскрывает всех читателей книги, поэтому только для библиотекаря.
func (s *circulationService) BorrowHistory(ctx context.Context, bookID uuid.UUID) ([]models.Borrow, error) {
	if err := s.requireLibrarian(ctx); err != nil {
		return nil, err
	}

	book, err := s.repo.Books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return s.repo.Borrows.HistoryByBook(ctx, bookID)
}
