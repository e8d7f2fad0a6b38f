package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"

	"promo-backend/internal/common/validation"
	"promo-backend/internal/features/spin/models"
	"promo-backend/internal/features/spin/repository"
)

const prizeColumns = `id, label, wheel_index, image_url, enabled, created_at, updated_at`

type prizeRepository struct {
	db *sql.DB
}

func NewPrizeRepository(db *sql.DB) repository.PrizeRepository {
	return &prizeRepository{db: db}
}

func scanPrize(row rowScanner, extra ...any) (*models.Prize, error) {
	var p models.Prize
	dest := append([]any{&p.ID, &p.Label, &p.WheelIndex, &p.ImageURL, &p.Enabled, &p.CreatedAt, &p.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *prizeRepository) GetByID(ctx context.Context, id int64) (*models.Prize, error) {
	p, err := scanPrize(r.db.QueryRowContext(ctx, `SELECT `+prizeColumns+` FROM prizes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrPrizeNotFound
		}
		return nil, fmt.Errorf("failed to get prize: %w", err)
	}
	return p, nil
}

func (r *prizeRepository) List(ctx context.Context) ([]*models.Prize, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+prizeColumns+` FROM prizes ORDER BY wheel_index, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}
	defer rows.Close()

	prizes := make([]*models.Prize, 0)
	for rows.Next() {
		p, err := scanPrize(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prize: %w", err)
		}
		prizes = append(prizes, p)
	}
	return prizes, rows.Err()
}

func (r *prizeRepository) ListEnabledByTier(ctx context.Context, tier string) ([]models.WeightedPrize, error) {
	query := `
		SELECT p.id, p.label, p.wheel_index, p.image_url, p.enabled, p.created_at, p.updated_at, w.weight_bp
		FROM prizes p
		JOIN prize_tier_weights w ON w.prize_id = p.id
		WHERE w.tier = $1 AND p.enabled AND w.weight_bp > 0
		ORDER BY p.wheel_index, p.id
	`
	rows, err := r.db.QueryContext(ctx, query, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to list tier prizes: %w", err)
	}
	defer rows.Close()

	prizes := make([]models.WeightedPrize, 0)
	for rows.Next() {
		var weight int
		p, err := scanPrize(rows, &weight)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tier prize: %w", err)
		}
		prizes = append(prizes, models.WeightedPrize{Prize: *p, WeightBP: weight})
	}
	return prizes, rows.Err()
}

func (r *prizeRepository) Create(ctx context.Context, prize *models.Prize) error {
	query := `
		INSERT INTO prizes (label, wheel_index, image_url, enabled)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, prize.Label, prize.WheelIndex, prize.ImageURL, prize.Enabled).
		Scan(&prize.ID, &prize.CreatedAt, &prize.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create prize: %w", err)
	}
	return nil
}

func (r *prizeRepository) Update(ctx context.Context, prize *models.Prize) error {
	query := `
		UPDATE prizes SET label = $2, wheel_index = $3, image_url = $4, enabled = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, prize.ID, prize.Label, prize.WheelIndex, prize.ImageURL, prize.Enabled).
		Scan(&prize.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrPrizeNotFound
		}
		return fmt.Errorf("failed to update prize: %w", err)
	}
	return nil
}

// Delete removes the prize. Tier weights and codes pointing at it go with it
// through ON DELETE CASCADE.
func (r *prizeRepository) Delete(ctx context.Context, id int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM spin_codes WHERE prize_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete codes for prize %d: %w", id, err)
	}
	codes, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM prizes WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete prize: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return 0, repository.ErrPrizeNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prize delete: %w", err)
	}
	return codes, nil
}

func (r *prizeRepository) SetTierWeights(ctx context.Context, tier string, weights map[int64]int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prize_tier_weights WHERE tier = $1`, tier); err != nil {
		return fmt.Errorf("failed to clear tier weights: %w", err)
	}

	for _, prizeID := range slices.Sorted(maps.Keys(weights)) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO prize_tier_weights (prize_id, tier, weight_bp) VALUES ($1, $2, $3)`,
			prizeID, tier, weights[prizeID])
		if err != nil {
			return fmt.Errorf("failed to set weight for prize %d: %w", prizeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tier weights: %w", err)
	}
	return nil
}

func (r *prizeRepository) ListTierWeights(ctx context.Context, tier string) ([]models.TierWeight, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tier, prize_id, weight_bp FROM prize_tier_weights
		WHERE tier = $1
		ORDER BY prize_id
	`, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to list tier weights: %w", err)
	}
	defer rows.Close()

	weights := make([]models.TierWeight, 0)
	for rows.Next() {
		var w models.TierWeight
		if err := rows.Scan(&w.Tier, &w.PrizeID, &w.WeightBP); err != nil {
			return nil, fmt.Errorf("failed to scan tier weight: %w", err)
		}
		weights = append(weights, w)
	}
	return weights, rows.Err()
}

func (r *prizeRepository) ListTiers(ctx context.Context) ([]models.TierSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tier, COUNT(*), COALESCE(SUM(weight_bp), 0)
		FROM prize_tier_weights
		GROUP BY tier
		ORDER BY tier
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	defer rows.Close()

	tiers := make([]models.TierSummary, 0)
	for rows.Next() {
		var t models.TierSummary
		if err := rows.Scan(&t.Tier, &t.Prizes, &t.TotalBP); err != nil {
			return nil, fmt.Errorf("failed to scan tier: %w", err)
		}
		t.IsBalanced = t.TotalBP == validation.TotalWeightBP
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (r *prizeRepository) TotalWeight(ctx context.Context, prizeID int64) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(weight_bp), 0) FROM prize_tier_weights WHERE prize_id = $1`, prizeID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum prize weight: %w", err)
	}
	return total, nil
}
