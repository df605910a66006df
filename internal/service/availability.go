package service

import (
	"context"

	"github.com/irakliskhirtladze/Library-management-system/internal/models"
	"github.com/irakliskhirtladze/Library-management-system/internal/repository"

	"github.com/google/uuid"
)

// AvailableCopies = quantity - активные выдачи - активные брони, не меньше нуля.
func AvailableCopies(quantity, activeBorrows, activeReservations int64) int64 {
	n := quantity - activeBorrows - activeReservations
	if n < 0 {
		return 0
	}
	return n
}

type exclusions struct {
	reservation uuid.UUID
	borrow      uuid.UUID
}

type bookCounts struct {
	borrows      int64
	reservations int64
}

func countClaims(ctx context.Context, tx *repository.Repository, bookID uuid.UUID, ex exclusions) (bookCounts, error) {
	borrows, err := tx.Borrows.CountActiveByBook(ctx, bookID, ex.borrow)
	if err != nil {
		return bookCounts{}, err
	}
	reservations, err := tx.Reservations.CountActiveByBook(ctx, bookID, ex.reservation)
	if err != nil {
		return bookCounts{}, err
	}
	return bookCounts{borrows: borrows, reservations: reservations}, nil
}

func availableIn(ctx context.Context, tx *repository.Repository, book *models.Book, ex exclusions) (int64, error) {
	c, err := countClaims(ctx, tx, book.ID, ex)
	if err != nil {
		return 0, err
	}
	return AvailableCopies(book.Quantity, c.borrows, c.reservations), nil
}

// CurrentAvailability считает свободные экземпляры через переданный
// репозиторий. Внутри транзакции результат согласован с последующей записью.
func CurrentAvailability(ctx context.Context, tx *repository.Repository, book *models.Book) (int64, error) {
	return availableIn(ctx, tx, book, exclusions{})
}
