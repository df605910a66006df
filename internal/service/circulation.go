package service

import (
	"context"
	"errors"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/events"
	"github.com/irakliskhirtladze/Library-management-system/internal/models"
	"github.com/irakliskhirtladze/Library-management-system/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultReservationTTL = 24 * time.Hour
	DefaultBorrowTTL      = 14 * 24 * time.Hour

	DefaultPopularLimit = 10
	DefaultLateLimit    = 100
)

type Config struct {
	ReservationTTL time.Duration
	BorrowTTL      time.Duration
	MaxAttempts    int
}

func DefaultConfig() Config {
	return Config{
		ReservationTTL: DefaultReservationTTL,
		BorrowTTL:      DefaultBorrowTTL,
		MaxAttempts:    defaultMaxAttempts,
	}
}

type BookStats struct {
	BookID             uuid.UUID
	Title              string
	Quantity           int64
	CurrentlyBorrowed  int64
	ActiveReservations int64
	TotalBorrowed      int64
	Available          int64
}

type UserBookStatus struct {
	HasActiveReservation    bool // на эту книгу
	HasActiveBorrowing      bool
	HasWish                 bool
	IsAvailable             bool
	HasAnyActiveReservation bool
}

type CirculationService interface {
	// catalog
	AddBook(ctx context.Context, title string, quantity int64) (*models.Book, error)
	SetQuantity(ctx context.Context, bookID uuid.UUID, quantity int64) (*models.Book, error)
	GetBook(ctx context.Context, bookID uuid.UUID) (*models.Book, error)

	// reservations
	Reserve(ctx context.Context, bookID uuid.UUID) (*models.Reservation, error)
	ReserveFor(ctx context.Context, userID, bookID uuid.UUID) (*models.Reservation, error)
	CancelReservation(ctx context.Context, reservationID uuid.UUID) error
	ExtendReservation(ctx context.Context, reservationID uuid.UUID, until time.Time) (*models.Reservation, error)
	ExpireAll(ctx context.Context, now time.Time) (int64, error)

	// borrows
	Borrow(ctx context.Context, bookID uuid.UUID) (*models.Borrow, error)
	BorrowFor(ctx context.Context, userID, bookID uuid.UUID) (*models.Borrow, error)
	ReturnBorrow(ctx context.Context, borrowID uuid.UUID) error
	Overdue(ctx context.Context, now time.Time) ([]models.Borrow, error)
	BorrowHistory(ctx context.Context, bookID uuid.UUID) ([]models.Borrow, error)

	// wishlist
	AddWish(ctx context.Context, bookID uuid.UUID) error
	RemoveWish(ctx context.Context, bookID uuid.UUID) error

	// reads
	AvailableCopies(ctx context.Context, bookID uuid.UUID) (int64, error)
	IsAvailable(ctx context.Context, bookID uuid.UUID) (bool, error)
	BookStats(ctx context.Context, bookID uuid.UUID) (*BookStats, error)
	UserBookStatus(ctx context.Context, userID, bookID uuid.UUID) (*UserBookStatus, error)
	ActiveReservation(ctx context.Context, userID uuid.UUID) (*models.Reservation, error)
	ActiveBorrow(ctx context.Context, userID uuid.UUID) (*models.Borrow, error)
	PopularBooks(ctx context.Context, limit int) ([]repository.BookBorrowCount, error)
	BorrowCountsSince(ctx context.Context, since time.Time) ([]repository.BookBorrowCount, error)
	LateReturns(ctx context.Context, limit int) ([]models.Borrow, error)
	LateReturningUsers(ctx context.Context, limit int) ([]repository.UserLateCount, error)
}

type Option func(*circulationService)

func WithClock(now func() time.Time) Option {
	return func(s *circulationService) { s.now = now }
}

func WithCache(c AvailabilityCache) Option {
	return func(s *circulationService) { s.cache = c }
}

func WithRetryBaseDelay(d time.Duration) Option {
	return func(s *circulationService) { s.retry.baseDelay = d }
}

type circulationService struct {
	repo   *repository.Repository
	events EventPublisher
	cache  AvailabilityCache
	log    *zap.Logger
	cfg    Config
	retry  retryConfig
	now    func() time.Time
}

var _ CirculationService = (*circulationService)(nil)

func NewCirculationService(repo *repository.Repository, pub EventPublisher, log *zap.Logger, cfg Config, opts ...Option) *circulationService {
	if pub == nil {
		pub = noopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.ReservationTTL <= 0 {
		cfg.ReservationTTL = def.ReservationTTL
	}
	if cfg.BorrowTTL <= 0 {
		cfg.BorrowTTL = def.BorrowTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}

	s := &circulationService{
		repo:   repo,
		events: pub,
		log:    log,
		cfg:    cfg,
		retry:  defaultRetryConfig(),
		now:    time.Now,
	}
	s.retry.maxAttempts = cfg.MaxAttempts
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *circulationService) requireAuth(ctx context.Context) (uuid.UUID, Role, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, "", ErrUnauthorized
	}

	role, ok := RoleFromContext(ctx)
	if !ok {
		return uuid.Nil, "", ErrUnauthorized
	}

	return uid, role, nil
}

func (s *circulationService) requireLibrarian(ctx context.Context) error {
	_, role, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}
	if role != RoleLibrarian {
		return ErrForbidden
	}
	return nil
}

// authorizeFor: действовать за другого пользователя или над чужой
// бронью/выдачей может только библиотекарь.
func (s *circulationService) authorizeFor(ctx context.Context, userID uuid.UUID) error {
	actor, role, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}
	if userID != actor && role != RoleLibrarian {
		return ErrForbidden
	}
	return nil
}

// atomically: одна транзакция с повтором при временных конфликтах хранилища.
func (s *circulationService) atomically(ctx context.Context, fn func(tx *repository.Repository) error) error {
	err := retryWithBackoff(ctx, s.retry, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, fn)
	})
	if errors.Is(err, repository.ErrTransient) {
		s.log.Warn("transaction retries exhausted", zap.Int("attempts", s.retry.maxAttempts), zap.Error(err))
	}
	return storageConflict(err)
}

// storageConflict: нарушения частичных уникальных индексов и исчерпанные
// повторы превращаются в ConflictError, остальное возвращается как есть.
func storageConflict(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrTransient):
		return conflict(ReasonContention, uuid.Nil)
	case errors.Is(err, repository.ErrActiveReservationExists):
		return conflict(ReasonActiveReservation, uuid.Nil)
	case errors.Is(err, repository.ErrActiveBorrowExists):
		return conflict(ReasonActiveBorrow, uuid.Nil)
	}
	return err
}

func (s *circulationService) publish(ctx context.Context, bookID uuid.UUID, released bool) {
	s.events.Publish(ctx, events.AvailabilityChanged{
		BookID:   bookID,
		Released: released,
		At:       s.now().UTC(),
	})
}

func (s *circulationService) lockBook(ctx context.Context, tx *repository.Repository, bookID uuid.UUID) (*models.Book, error) {
	book, err := tx.Books.GetForUpdate(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return book, nil
}
