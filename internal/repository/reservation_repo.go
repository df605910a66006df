package repository

import (
	"context"
	"errors"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepo interface {
	Create(ctx context.Context, res *models.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error)

	// Выборки для валидатора. exclude != uuid.Nil исключает строку из проверки
	// (повторная валидация существующей брони не должна конфликтовать сама с собой).
	ActiveByUser(ctx context.Context, userID, exclude uuid.UUID) ([]models.Reservation, error)
	CountActiveByBook(ctx context.Context, bookID, exclude uuid.UUID) (int64, error)

	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
	DeactivateForUserBook(ctx context.Context, userID, bookID uuid.UUID) (int64, error)
	UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) (bool, error)

	// ExpireDue гасит все активные брони с expires_at <= now и возвращает
	// число затронутых строк и книги, у которых освободились экземпляры.
	ExpireDue(ctx context.Context, now time.Time) (int64, []uuid.UUID, error)
}

type reservationRepo struct{ db *gorm.DB }

func NewReservationRepo(db *gorm.DB) ReservationRepo { return &reservationRepo{db: db} }

func (r *reservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *reservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&res, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepo) ActiveByUser(ctx context.Context, userID, exclude uuid.UUID) ([]models.Reservation, error) {
	q := r.db.WithContext(ctx).Where("user_id = ? AND is_active = ?", userID, true)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}

	var list []models.Reservation
	err := q.Order("reserved_at ASC").Find(&list).Error
	return list, err
}

func (r *reservationRepo) CountActiveByBook(ctx context.Context, bookID, exclude uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("book_id = ? AND is_active = ?", bookID, true)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}

	var cnt int64
	err := q.Count(&cnt).Error
	return cnt, err
}

func (r *reservationRepo) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	return tx.RowsAffected > 0, tx.Error
}

func (r *reservationRepo) DeactivateForUserBook(ctx context.Context, userID, bookID uuid.UUID) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("user_id = ? AND book_id = ? AND is_active = ?", userID, bookID, true).
		Update("is_active", false)
	return tx.RowsAffected, tx.Error
}

func (r *reservationRepo) UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("expires_at", expiresAt.UTC())
	return tx.RowsAffected > 0, tx.Error
}

func (r *reservationRepo) ExpireDue(ctx context.Context, now time.Time) (int64, []uuid.UUID, error) {
	// одним UPDATE ... RETURNING, без списка id в параметрах
	var expired []models.Reservation
	tx := r.db.WithContext(ctx).Raw(`
UPDATE reservations
SET is_active = ?
WHERE is_active = ? AND expires_at <= ?
RETURNING book_id`, false, true, now.UTC()).
		Scan(&expired)
	if tx.Error != nil {
		return 0, nil, tx.Error
	}

	seen := make(map[uuid.UUID]struct{}, len(expired))
	books := make([]uuid.UUID, 0, len(expired))
	for _, res := range expired {
		if _, ok := seen[res.BookID]; !ok {
			seen[res.BookID] = struct{}{}
			books = append(books, res.BookID)
		}
	}
	return int64(len(expired)), books, nil
}
