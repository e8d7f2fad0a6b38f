package repository

import (
	"context"
	"errors"
	"time"

	"promo-backend/internal/features/spin/models"
)

var (
	ErrCodeNotFound  = errors.New("code not found")
	ErrCodeExists    = errors.New("code already exists")
	ErrPrizeNotFound = errors.New("prize not found")
)

// CodeRepository persists redemption codes and the spin audit trail.
type CodeRepository interface {
	GetByCode(ctx context.Context, code string) (*models.Code, error)
	Create(ctx context.Context, code *models.Code) error
	CreateBatch(ctx context.Context, codes []*models.Code) error
	List(ctx context.Context, filter models.CodeFilter) ([]*models.Code, error)

	// Redeem flips an issued code to used and writes the audit row in the same
	// transaction. It returns false without error when the code was not in the
	// issued state, so callers can re-read and decide.
	Redeem(ctx context.Context, code string, spin *models.Spin) (bool, error)

	// ExpireDue marks issued codes past their expiry as expired.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// PrizeRepository is the prize catalog with its per-tier weights.
type PrizeRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Prize, error)
	List(ctx context.Context) ([]*models.Prize, error)
	// ListEnabledByTier returns enabled prizes with a positive weight in tier,
	// ordered by wheel index then id.
	ListEnabledByTier(ctx context.Context, tier string) ([]models.WeightedPrize, error)
	Create(ctx context.Context, prize *models.Prize) error
	Update(ctx context.Context, prize *models.Prize) error
	// Delete removes a prize and its codes in one transaction and reports
	// how many codes went with it.
	Delete(ctx context.Context, id int64) (int64, error)

	// SetTierWeights replaces the whole distribution of tier.
	SetTierWeights(ctx context.Context, tier string, weights map[int64]int) error
	ListTierWeights(ctx context.Context, tier string) ([]models.TierWeight, error)
	ListTiers(ctx context.Context) ([]models.TierSummary, error)
	// TotalWeight sums the weight a prize carries across every tier.
	TotalWeight(ctx context.Context, prizeID int64) (int, error)
}
