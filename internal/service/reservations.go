package service

import (
	"context"
	"fmt"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/models"
	"github.com/irakliskhirtladze/Library-management-system/internal/repository"

	"github.com/google/uuid"
)

func (s *circulationService) Reserve(ctx context.Context, bookID uuid.UUID) (*models.Reservation, error) {
	uid, _, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	return s.ReserveFor(ctx, uid, bookID)
}

func (s *circulationService) ReserveFor(ctx context.Context, userID, bookID uuid.UUID) (*models.Reservation, error) {
	if err := s.authorizeFor(ctx, userID); err != nil {
		return nil, err
	}

	var out *models.Reservation
	err := s.atomically(ctx, func(tx *repository.Repository) error {
		// порядок блокировок везде один: пользователь, затем книга
		if err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		book, err := s.lockBook(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if _, err := validate(ctx, tx, claim{kind: claimReserve, userID: userID, book: book}); err != nil {
			return err
		}

		now := s.now().UTC()
		res := &models.Reservation{
			UserID:     userID,
			BookID:     bookID,
			ReservedAt: now,
			ExpiresAt:  now.Add(s.cfg.ReservationTTL),
			IsActive:   true,
		}
		if err := tx.Reservations.Create(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, bookID, false)
	return out, nil
}

func (s *circulationService) CancelReservation(ctx context.Context, reservationID uuid.UUID) error {
	var bookID uuid.UUID
	err := s.atomically(ctx, func(tx *repository.Repository) error {
		// строка брони блокируется: параллельная выдача по ней ждёт отмены
		res, err := tx.Reservations.GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res == nil {
			return ErrReservationNotFound
		}
		if err := s.authorizeFor(ctx, res.UserID); err != nil {
			return err
		}

		ok, err := tx.Reservations.Deactivate(ctx, reservationID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrReservationNotFound
		}
		bookID = res.BookID
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, bookID, true)
	return nil
}

// ExtendReservation переносит expires_at активной брони. Бронь заново
// проходит проверки, не конфликтуя сама с собой.
func (s *circulationService) ExtendReservation(ctx context.Context, reservationID uuid.UUID, until time.Time) (*models.Reservation, error) {
	if err := s.requireLibrarian(ctx); err != nil {
		return nil, err
	}

	var out *models.Reservation
	err := s.atomically(ctx, func(tx *repository.Repository) error {
		res, err := tx.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if res == nil || !res.IsActive {
			return ErrReservationNotFound
		}
		// новый срок: позже reserved_at и позже текущего момента
		if !until.After(res.ReservedAt) || !until.After(s.now()) {
			return ErrInvalidExpiry
		}

		if err := tx.LockUser(ctx, res.UserID); err != nil {
			return err
		}
		book, err := s.lockBook(ctx, tx, res.BookID)
		if err != nil {
			return err
		}
		c := claim{
			kind:   claimReserve,
			userID: res.UserID,
			book:   book,
			ignore: exclusions{reservation: res.ID},
		}
		if _, err := validate(ctx, tx, c); err != nil {
			return err
		}

		ok, err := tx.Reservations.UpdateExpiry(ctx, res.ID, until)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: reservation %s deactivated concurrently", repository.ErrTransient, res.ID)
		}
		res.ExpiresAt = until.UTC()
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireAll гасит все просроченные на момент now брони одним запросом.
// Повторный вызов с тем же now ничего не меняет.
func (s *circulationService) ExpireAll(ctx context.Context, now time.Time) (int64, error) {
	var (
		n     int64
		books []uuid.UUID
	)
	err := s.atomically(ctx, func(tx *repository.Repository) error {
		var err error
		n, books, err = tx.Reservations.ExpireDue(ctx, now)
		return err
	})
	if err != nil {
		return 0, err
	}

	for _, id := range books {
		s.publish(ctx, id, true)
	}
	return n, nil
}
