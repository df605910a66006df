package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrNotFound            = errors.New("not found")
	ErrBookNotFound        = fmt.Errorf("book %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("active reservation %w", ErrNotFound)
	ErrBorrowNotFound      = fmt.Errorf("borrow %w", ErrNotFound)

	ErrValidation      = errors.New("validation failed")
	ErrBookAvailable   = fmt.Errorf("%w: book is available, wish is not needed", ErrValidation)
	ErrAlreadyReturned = fmt.Errorf("%w: borrow already returned", ErrValidation)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be >= 0 and not below claimed copies", ErrValidation)
	ErrInvalidExpiry   = fmt.Errorf("%w: expiry must be after reservation time", ErrValidation)
	ErrEmptyTitle      = fmt.Errorf("%w: title is empty", ErrValidation)

	ErrConflict = errors.New("conflict")
)

type ConflictReason string

const (
	ReasonActiveReservation ConflictReason = "active_reservation"
	ReasonActiveBorrow      ConflictReason = "active_borrow"
	ReasonReservedOtherBook ConflictReason = "reserved_other_book"
	ReasonUnavailable       ConflictReason = "unavailable"
	ReasonContention        ConflictReason = "contention"
)

// ConflictError: нарушено правило исключительности. EntityID указывает на
// мешающую сущность (бронь, выдачу или книгу), для contention он пуст.
type ConflictError struct {
	Reason   ConflictReason
	EntityID uuid.UUID
}

func (e *ConflictError) Error() string {
	switch e.Reason {
	case ReasonActiveReservation:
		return fmt.Sprintf("conflict: user already has active reservation %s", e.EntityID)
	case ReasonActiveBorrow:
		return fmt.Sprintf("conflict: user already has active borrow %s", e.EntityID)
	case ReasonReservedOtherBook:
		return fmt.Sprintf("conflict: user has active reservation %s for a different book", e.EntityID)
	case ReasonUnavailable:
		return fmt.Sprintf("conflict: no available copies of book %s", e.EntityID)
	case ReasonContention:
		return "conflict: too much contention, try again later"
	}
	return "conflict: " + string(e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func conflict(reason ConflictReason, id uuid.UUID) *ConflictError {
	return &ConflictError{Reason: reason, EntityID: id}
}
