package reservation

import (
	"context"
	"errors"
	"time"

	"promo-backend/internal/features/spin/models"
)

var (
	ErrNotFound    = errors.New("reservation not found")
	ErrLockTimeout = errors.New("failed to acquire reservation lock: timeout")
)

// Store holds the short-lived verify→commit reservations. Verify and commit for
// the same code must run under Lock so that check-then-act sequences are atomic.
type Store interface {
	// Put replaces whatever reservation the code had.
	Put(ctx context.Context, r *models.Reservation) error
	// Get returns ErrNotFound for absent and expired entries.
	Get(ctx context.Context, code string) (*models.Reservation, error)
	// Delete removes the reservation only if it still carries token.
	Delete(ctx context.Context, code, token string) (bool, error)
	// Lock serializes work on one code. The returned func releases it.
	Lock(ctx context.Context, code string) (func(), error)
}

// Sweeper is implemented by stores that need expired entries evicted in the
// background. Redis expires keys on its own.
type Sweeper interface {
	Sweep(now time.Time) int
}
