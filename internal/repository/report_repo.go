package repository

import (
	"context"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookBorrowCount struct {
	BookID      uuid.UUID
	Title       string
	BorrowCount int64
}

type UserLateCount struct {
	UserID    uuid.UUID
	LateCount int64
}

// ReportRepo: только чтение, для отчётов допустим слабо согласованный снимок.
type ReportRepo interface {
	PopularBooks(ctx context.Context, limit int) ([]BookBorrowCount, error)
	BorrowCountsSince(ctx context.Context, since time.Time) ([]BookBorrowCount, error)
	LateReturns(ctx context.Context, limit int) ([]models.Borrow, error)
	LateReturningUsers(ctx context.Context, limit int) ([]UserLateCount, error)
}

type reportRepo struct{ db *gorm.DB }

func NewReportRepo(db *gorm.DB) ReportRepo { return &reportRepo{db: db} }

func (r *reportRepo) PopularBooks(ctx context.Context, limit int) ([]BookBorrowCount, error) {
	var list []BookBorrowCount
	err := r.db.WithContext(ctx).
		Table("books").
		Select("books.id AS book_id, books.title AS title, COUNT(borrows.id) AS borrow_count").
		Joins("LEFT JOIN borrows ON borrows.book_id = books.id").
		Group("books.id, books.title").
		Order("borrow_count DESC, books.title ASC").
		Limit(limit).
		Scan(&list).Error
	return list, err
}

func (r *reportRepo) BorrowCountsSince(ctx context.Context, since time.Time) ([]BookBorrowCount, error) {
	var list []BookBorrowCount
	err := r.db.WithContext(ctx).
		Table("books").
		Select("books.id AS book_id, books.title AS title, COUNT(borrows.id) AS borrow_count").
		Joins("LEFT JOIN borrows ON borrows.book_id = books.id AND borrows.borrowed_at >= ?", since.UTC()).
		Group("books.id, books.title").
		Order("books.title ASC").
		Scan(&list).Error
	return list, err
}

func (r *reportRepo) LateReturns(ctx context.Context, limit int) ([]models.Borrow, error) {
	var list []models.Borrow
	err := r.db.WithContext(ctx).
		Where("returned_at IS NOT NULL AND returned_at > due_date").
		Order("returned_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *reportRepo) LateReturningUsers(ctx context.Context, limit int) ([]UserLateCount, error) {
	var list []UserLateCount
	err := r.db.WithContext(ctx).
		Model(&models.Borrow{}).
		Select("user_id, COUNT(id) AS late_count").
		Where("returned_at IS NOT NULL AND returned_at > due_date").
		Group("user_id").
		Order("late_count DESC").
		Limit(limit).
		Scan(&list).Error
	return list, err
}
