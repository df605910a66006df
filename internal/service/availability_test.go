package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableCopies(t *testing.T) {
	cases := []struct {
		name                            string
		quantity, borrows, reservations int64
		want                            int64
	}{
		{"all free", 3, 0, 0, 3},
		{"mixed claims", 5, 2, 1, 2},
		{"fully claimed", 2, 1, 1, 0},
		{"never negative", 1, 1, 1, 0},
		{"empty shelf", 0, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AvailableCopies(tc.quantity, tc.borrows, tc.reservations))
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	cfg := retryConfig{maxAttempts: 4, baseDelay: time.Millisecond, jitterFactor: 0.3}

	t.Run("retries transient until success", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), cfg, func(context.Context) error {
			calls++
			if calls < 3 {
				return fmt.Errorf("%w: deadlock", repository.ErrTransient)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("fails fast on permanent error", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), cfg, func(context.Context) error {
			calls++
			return ErrBookNotFound
		})
		require.ErrorIs(t, err, ErrBookNotFound)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), cfg, func(context.Context) error {
			calls++
			return repository.ErrTransient
		})
		require.ErrorIs(t, err, repository.ErrTransient)
		assert.Equal(t, 4, calls)
	})

	t.Run("stops on context cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := retryWithBackoff(ctx, retryConfig{maxAttempts: 5, baseDelay: time.Hour}, func(context.Context) error {
			calls++
			cancel()
			return repository.ErrTransient
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestConflictError(t *testing.T) {
	id := uuid.New()
	err := fmt.Errorf("reserve: %w", conflict(ReasonActiveBorrow, id))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrValidation))

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ReasonActiveBorrow, ce.Reason)
	assert.Contains(t, err.Error(), id.String())
}

func TestStorageConflict(t *testing.T) {
	cases := []struct {
		in   error
		want ConflictReason
	}{
		{repository.ErrActiveReservationExists, ReasonActiveReservation},
		{repository.ErrActiveBorrowExists, ReasonActiveBorrow},
		{fmt.Errorf("%w: database is locked", repository.ErrTransient), ReasonContention},
	}
	for _, tc := range cases {
		var ce *ConflictError
		require.ErrorAs(t, storageConflict(tc.in), &ce)
		assert.Equal(t, tc.want, ce.Reason)
	}

	assert.NoError(t, storageConflict(nil))
	assert.Same(t, ErrBookNotFound, storageConflict(ErrBookNotFound))
}
