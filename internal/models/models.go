package models

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title    string    `gorm:"type:text;not null"`
	Quantity int64     `gorm:"not null;default:0;check:chk_books_quantity_non_negative,quantity >= 0"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Book) TableName() string {
	return "books"
}

// Reservation никогда не удаляется: неактивные строки остаются историей.
type Reservation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	BookID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ReservedAt time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	IsActive   bool      `gorm:"not null;default:true;index"`
}

func (Reservation) TableName() string {
	return "reservations"
}

type Borrow struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	BookID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	BorrowedAt time.Time  `gorm:"not null;index"`
	DueDate    time.Time  `gorm:"not null;index"`
	ReturnedAt *time.Time `gorm:"index"`
}

func (Borrow) TableName() string {
	return "borrows"
}

func (b *Borrow) IsActive() bool { return b.ReturnedAt == nil }

// Wish: запись листа ожидания книги, пара (book_id, user_id) уникальна.
type Wish struct {
	BookID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Wish) TableName() string {
	return "wishes"
}
