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

type BorrowRepo interface {
	Create(ctx context.Context, b *models.Borrow) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Borrow, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Borrow, error)

	ActiveByUser(ctx context.Context, userID, exclude uuid.UUID) ([]models.Borrow, error)
	CountActiveByBook(ctx context.Context, bookID, exclude uuid.UUID) (int64, error)

	// MarkReturned проставляет returned_at только если он ещё пуст.
	MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	Overdue(ctx context.Context, now time.Time) ([]models.Borrow, error)
	HistoryByBook(ctx context.Context, bookID uuid.UUID) ([]models.Borrow, error)
	CountByBook(ctx context.Context, bookID uuid.UUID) (int64, error)
}

type borrowRepo struct{ db *gorm.DB }

func NewBorrowRepo(db *gorm.DB) BorrowRepo { return &borrowRepo{db: db} }

func (r *borrowRepo) Create(ctx context.Context, b *models.Borrow) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *borrowRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Borrow, error) {
	var b models.Borrow
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *borrowRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Borrow, error) {
	var b models.Borrow
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *borrowRepo) ActiveByUser(ctx context.Context, userID, exclude uuid.UUID) ([]models.Borrow, error) {
	q := r.db.WithContext(ctx).Where("user_id = ? AND returned_at IS NULL", userID)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}

	var list []models.Borrow
	err := q.Order("borrowed_at ASC").Find(&list).Error
	return list, err
}

func (r *borrowRepo) CountActiveByBook(ctx context.Context, bookID, exclude uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Borrow{}).
		Where("book_id = ? AND returned_at IS NULL", bookID)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}

	var cnt int64
	err := q.Count(&cnt).Error
	return cnt, err
}

func (r *borrowRepo) MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Borrow{}).
		Where("id = ? AND returned_at IS NULL", id).
		Update("returned_at", at.UTC())
	return tx.RowsAffected > 0, tx.Error
}

func (r *borrowRepo) Overdue(ctx context.Context, now time.Time) ([]models.Borrow, error) {
	var list []models.Borrow
	err := r.db.WithContext(ctx).
		Where("returned_at IS NULL AND due_date <= ?", now.UTC()).
		Order("due_date ASC").
		Find(&list).Error
	return list, err
}

func (r *borrowRepo) HistoryByBook(ctx context.Context, bookID uuid.UUID) ([]models.Borrow, error) {
	var list []models.Borrow
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("borrowed_at DESC").
		Find(&list).Error
	return list, err
}

func (r *borrowRepo) CountByBook(ctx context.Context, bookID uuid.UUID) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&models.Borrow{}).
		Where("book_id = ?", bookID).
		Count(&cnt).Error
	return cnt, err
}
