package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrTransient: конфликт параллельных транзакций, операцию можно повторить.
	ErrTransient = errors.New("transient storage conflict")

	ErrActiveReservationExists = errors.New("user already has an active reservation")
	ErrActiveBorrowExists      = errors.New("user already has an active borrow")
)

const (
	uxReservationsUserActive = "ux_reservations_user_active"
	uxBorrowsUserActive      = "ux_borrows_user_active"
)

func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %s", ErrTransient, pgErr.Message)
		case "23505": // unique_violation
			switch pgErr.ConstraintName {
			case uxReservationsUserActive:
				return ErrActiveReservationExists
			case uxBorrowsUserActive:
				return ErrActiveBorrowExists
			}
		}
		return err
	}

	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		switch {
		case sqErr.Code == sqlite3.ErrBusy || sqErr.Code == sqlite3.ErrLocked:
			return fmt.Errorf("%w: %s", ErrTransient, sqErr.Error())
		case sqErr.ExtendedCode == sqlite3.ErrConstraintUnique:
			// sqlite называет не индекс, а колонки: "UNIQUE constraint failed: borrows.user_id"
			msg := sqErr.Error()
			switch {
			case strings.Contains(msg, "reservations.user_id"):
				return ErrActiveReservationExists
			case strings.Contains(msg, "borrows.user_id"):
				return ErrActiveBorrowExists
			}
		}
	}

	return err
}
