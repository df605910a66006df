package repository

import (
	"context"
	"errors"

	"github.com/irakliskhirtladze/Library-management-system/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookRepo interface {
	Create(ctx context.Context, b *models.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	// GetForUpdate блокирует строку книги до конца транзакции (SELECT ... FOR UPDATE).
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Book, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int64) (bool, error)
}

type bookRepo struct{ db *gorm.DB }

func NewBookRepo(db *gorm.DB) BookRepo { return &bookRepo{db: db} }

func (r *bookRepo) Create(ctx context.Context, b *models.Book) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *bookRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var b models.Book
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var b models.Book
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

func (r *bookRepo) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int64) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Update("quantity", quantity)
	return tx.RowsAffected > 0, tx.Error
}
