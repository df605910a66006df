package service

import (
	"context"
	"strings"

	"github.com/irakliskhirtladze/Library-management-system/internal/models"
	"github.com/irakliskhirtladze/Library-management-system/internal/repository"

	"github.com/google/uuid"
)

func (s *circulationService) AddBook(ctx context.Context, title string, quantity int64) (*models.Book, error) {
	if err := s.requireLibrarian(ctx); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	b := &models.Book{Title: title, Quantity: quantity}
	if err := s.repo.Books.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// SetQuantity не даёт опустить количество ниже числа занятых экземпляров,
// иначе свободных стало бы меньше нуля.
func (s *circulationService) SetQuantity(ctx context.Context, bookID uuid.UUID, quantity int64) (*models.Book, error) {
	if err := s.requireLibrarian(ctx); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	var (
		out      *models.Book
		released bool
	)
	err := s.atomically(ctx, func(tx *repository.Repository) error {
		book, err := s.lockBook(ctx, tx, bookID)
		if err != nil {
			return err
		}
		c, err := countClaims(ctx, tx, bookID, exclusions{})
		if err != nil {
			return err
		}
		if quantity < c.borrows+c.reservations {
			return ErrInvalidQuantity
		}

		if _, err := tx.Books.UpdateQuantity(ctx, bookID, quantity); err != nil {
			return err
		}
		released = quantity > book.Quantity
		book.Quantity = quantity
		out = book
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, bookID, released)
	return out, nil
}

func (s *circulationService) GetBook(ctx context.Context, bookID uuid.UUID) (*models.Book, error) {
	b, err := s.repo.Books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookNotFound
	}
	return b, nil
}
