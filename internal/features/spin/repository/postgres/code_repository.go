package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"promo-backend/internal/features/spin/models"
	"promo-backend/internal/features/spin/repository"
)

const uniqueViolation = "23505"

const codeColumns = `code, username, status, mode, tier, prize_id, expires_at, created_at, used_at`

type codeRepository struct {
	db *sql.DB
}

func NewCodeRepository(db *sql.DB) repository.CodeRepository {
	return &codeRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCode(row rowScanner) (*models.Code, error) {
	var c models.Code
	err := row.Scan(&c.Code, &c.Username, &c.Status, &c.Mode, &c.Tier, &c.PrizeID,
		&c.ExpiresAt, &c.CreatedAt, &c.UsedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (r *codeRepository) GetByCode(ctx context.Context, code string) (*models.Code, error) {
	query := `SELECT ` + codeColumns + ` FROM spin_codes WHERE code = $1`

	c, err := scanCode(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get code: %w", err)
	}
	return c, nil
}

func (r *codeRepository) Create(ctx context.Context, code *models.Code) error {
	query := `
		INSERT INTO spin_codes (code, username, status, mode, tier, prize_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		code.Code, code.Username, code.Status, code.Mode, code.Tier, code.PrizeID, code.ExpiresAt,
	).Scan(&code.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrCodeExists
		}
		return fmt.Errorf("failed to create code: %w", err)
	}
	return nil
}

// CreateBatch inserts all codes or none.
func (r *codeRepository) CreateBatch(ctx context.Context, codes []*models.Code) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO spin_codes (code, username, status, mode, tier, prize_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare code insert: %w", err)
	}
	defer stmt.Close()

	for _, code := range codes {
		err := stmt.QueryRowContext(ctx,
			code.Code, code.Username, code.Status, code.Mode, code.Tier, code.PrizeID, code.ExpiresAt,
		).Scan(&code.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", repository.ErrCodeExists, code.Code)
			}
			return fmt.Errorf("failed to insert code %s: %w", code.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit code batch: %w", err)
	}
	return nil
}

func (r *codeRepository) List(ctx context.Context, filter models.CodeFilter) ([]*models.Code, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Tier != "" {
		args = append(args, filter.Tier)
		where = append(where, fmt.Sprintf("tier = $%d", len(args)))
	}
	if filter.PrizeID > 0 {
		args = append(args, filter.PrizeID)
		where = append(where, fmt.Sprintf("prize_id = $%d", len(args)))
	}

	var query strings.Builder
	query.WriteString(`SELECT ` + codeColumns + ` FROM spin_codes`)
	if len(where) > 0 {
		query.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	args = append(args, filter.Limit, filter.Offset)
	fmt.Fprintf(&query, " ORDER BY created_at DESC, code LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list codes: %w", err)
	}
	defer rows.Close()

	codes := make([]*models.Code, 0)
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan code: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

func (r *codeRepository) Redeem(ctx context.Context, code string, spin *models.Spin) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE spin_codes SET status = 'used', used_at = now()
		WHERE code = $1 AND status = 'issued'
	`, code)
	if err != nil {
		return false, fmt.Errorf("failed to mark code used: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO spins (code, username, prize_id, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, code, spin.Username, spin.PrizeID, spin.IP, spin.UserAgent).Scan(&spin.ID, &spin.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to write spin audit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit redeem: %w", err)
	}
	return true, nil
}

func (r *codeRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE spin_codes SET status = 'expired'
		WHERE status = 'issued' AND expires_at IS NOT NULL AND expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire codes: %w", err)
	}
	return res.RowsAffected()
}
