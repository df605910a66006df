package service

import (
	"context"

	"github.com/irakliskhirtladze/Library-management-system/internal/models"
	"github.com/irakliskhirtladze/Library-management-system/internal/repository"

	"github.com/google/uuid"
)

type claimKind int

const (
	claimReserve claimKind = iota
	claimBorrow
)

// claim: предполагаемая бронь или выдача. ignore исключает существующие
// строки из всех проверок, когда перепроверяется уже созданная сущность.
type claim struct {
	kind   claimKind
	userID uuid.UUID
	book   *models.Book
	ignore exclusions
}

type verdict struct {
	// conversion: активная бронь того же пользователя на ту же книгу;
	// выдача по ней не проверяет наличие и гасит бронь.
	conversion *models.Reservation
	available  int64
}

// validate: единственное место проверки правил исключительности.
// Вызывается внутри транзакции после LockUser и блокировки строки книги.
func validate(ctx context.Context, tx *repository.Repository, c claim) (verdict, error) {
	var v verdict

	reservations, err := tx.Reservations.ActiveByUser(ctx, c.userID, c.ignore.reservation)
	if err != nil {
		return v, err
	}
	borrows, err := tx.Borrows.ActiveByUser(ctx, c.userID, c.ignore.borrow)
	if err != nil {
		return v, err
	}

	switch c.kind {
	case claimReserve:
		if len(reservations) > 0 {
			return v, conflict(ReasonActiveReservation, reservations[0].ID)
		}
		if len(borrows) > 0 {
			return v, conflict(ReasonActiveBorrow, borrows[0].ID)
		}
	case claimBorrow:
		if len(borrows) > 0 {
			return v, conflict(ReasonActiveBorrow, borrows[0].ID)
		}
		for i := range reservations {
			if reservations[i].BookID != c.book.ID {
				return v, conflict(ReasonReservedOtherBook, reservations[i].ID)
			}
			v.conversion = &reservations[i]
		}
	}

	v.available, err = availableIn(ctx, tx, c.book, c.ignore)
	if err != nil {
		return v, err
	}
	if v.conversion == nil && v.available <= 0 {
		return v, conflict(ReasonUnavailable, c.book.ID)
	}
	return v, nil
}
