package repository

import (
	"context"

	"github.com/irakliskhirtladze/Library-management-system/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	DB           *gorm.DB
	Books        BookRepo
	Reservations ReservationRepo
	Borrows      BorrowRepo
	Wishes       WishRepo
	Reports      ReportRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:           db,
		Books:        NewBookRepo(db),
		Reservations: NewReservationRepo(db),
		Borrows:      NewBorrowRepo(db),
		Wishes:       NewWishRepo(db),
		Reports:      NewReportRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// WithTx: одна транзакция на весь набор репозиториев. Ошибки хранилища
// классифицируются (см. errors.go), ошибки fn возвращаются как есть.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
	return classify(err)
}

// LockUser берёт транзакционную advisory-блокировку на пользователя, чтобы
// проверки "одна активная бронь/выдача" шли строго по очереди. Снимается
// при commit/rollback. На sqlite транзакции и так последовательны.
func (r *Repository) LockUser(ctx context.Context, userID uuid.UUID) error {
	if r.DB.Dialector.Name() != database.DriverPostgres {
		return nil
	}
	return r.DB.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "circulation:user:"+userID.String()).
		Error
}
