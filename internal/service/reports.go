package service

import (
	"context"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/models"
	"github.com/irakliskhirtladze/Library-management-system/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailableCopies для отображения: сначала кэш, затем чтение вне транзакции.
func (s *circulationService) AvailableCopies(ctx context.Context, bookID uuid.UUID) (int64, error) {
	if s.cache != nil {
		n, ok, err := s.cache.GetAvailable(ctx, bookID)
		if err != nil {
			s.log.Warn("availability cache get failed", zap.String("book_id", bookID.String()), zap.Error(err))
		} else if ok {
			return n, nil
		}
	}

	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return 0, err
	}
	n, err := CurrentAvailability(ctx, s.repo, book)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetAvailable(ctx, bookID, n); err != nil {
			s.log.Warn("availability cache set failed", zap.String("book_id", bookID.String()), zap.Error(err))
		}
	}
	return n, nil
}

func (s *circulationService) IsAvailable(ctx context.Context, bookID uuid.UUID) (bool, error) {
	n, err := s.AvailableCopies(ctx, bookID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *circulationService) BookStats(ctx context.Context, bookID uuid.UUID) (*BookStats, error) {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	c, err := countClaims(ctx, s.repo, bookID, exclusions{})
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Borrows.CountByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return &BookStats{
		BookID:             book.ID,
		Title:              book.Title,
		Quantity:           book.Quantity,
		CurrentlyBorrowed:  c.borrows,
		ActiveReservations: c.reservations,
		TotalBorrowed:      total,
		Available:          AvailableCopies(book.Quantity, c.borrows, c.reservations),
	}, nil
}

func (s *circulationService) UserBookStatus(ctx context.Context, userID, bookID uuid.UUID) (*UserBookStatus, error) {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	reservations, err := s.repo.Reservations.ActiveByUser(ctx, userID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	borrows, err := s.repo.Borrows.ActiveByUser(ctx, userID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	wish, err := s.repo.Wishes.Exists(ctx, bookID, userID)
	if err != nil {
		return nil, err
	}
	n, err := CurrentAvailability(ctx, s.repo, book)
	if err != nil {
		return nil, err
	}

	st := &UserBookStatus{
		HasActiveBorrowing:      len(borrows) > 0,
		HasWish:                 wish,
		IsAvailable:             n > 0,
		HasAnyActiveReservation: len(reservations) > 0,
	}
	for _, r := range reservations {
		if r.BookID == bookID {
			st.HasActiveReservation = true
		}
	}
	return st, nil
}

func (s *circulationService) ActiveReservation(ctx context.Context, userID uuid.UUID) (*models.Reservation, error) {
	list, err := s.repo.Reservations.ActiveByUser(ctx, userID, uuid.Nil)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (s *circulationService) ActiveBorrow(ctx context.Context, userID uuid.UUID) (*models.Borrow, error) {
	list, err := s.repo.Borrows.ActiveByUser(ctx, userID, uuid.Nil)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (s *circulationService) PopularBooks(ctx context.Context, limit int) ([]repository.BookBorrowCount, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	return s.repo.Reports.PopularBooks(ctx, limit)
}

func (s *circulationService) BorrowCountsSince(ctx context.Context, since time.Time) ([]repository.BookBorrowCount, error) {
	return s.repo.Reports.BorrowCountsSince(ctx, since)
}

func (s *circulationService) LateReturns(ctx context.Context, limit int) ([]models.Borrow, error) {
	if err := s.requireLibrarian(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLateLimit
	}
	return s.repo.Reports.LateReturns(ctx, limit)
}

func (s *circulationService) LateReturningUsers(ctx context.Context, limit int) ([]repository.UserLateCount, error) {
	if err := s.requireLibrarian(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLateLimit
	}
	return s.repo.Reports.LateReturningUsers(ctx, limit)
}
