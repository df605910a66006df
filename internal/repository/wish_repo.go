package repository

import (
	"context"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishRepo interface {
	// Add идемпотентен: повторное желание того же пользователя ничего не меняет.
	Add(ctx context.Context, bookID, userID uuid.UUID, at time.Time) error
	Remove(ctx context.Context, bookID, userID uuid.UUID) (bool, error)
	Exists(ctx context.Context, bookID, userID uuid.UUID) (bool, error)
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]models.Wish, error)
	ClearByBook(ctx context.Context, bookID uuid.UUID) (int64, error)
}

type wishRepo struct{ db *gorm.DB }

func NewWishRepo(db *gorm.DB) WishRepo { return &wishRepo{db: db} }

func (r *wishRepo) Add(ctx context.Context, bookID, userID uuid.UUID, at time.Time) error {
	rec := models.Wish{BookID: bookID, UserID: userID, CreatedAt: at.UTC()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec).Error
}

func (r *wishRepo) Remove(ctx context.Context, bookID, userID uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		Delete(&models.Wish{})
	return tx.RowsAffected > 0, tx.Error
}

func (r *wishRepo) Exists(ctx context.Context, bookID, userID uuid.UUID) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&models.Wish{}).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *wishRepo) ListByBook(ctx context.Context, bookID uuid.UUID) ([]models.Wish, error) {
	var list []models.Wish
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *wishRepo) ClearByBook(ctx context.Context, bookID uuid.UUID) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Delete(&models.Wish{})
	return tx.RowsAffected, tx.Error
}
