package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"promo-backend/internal/features/content/models"
	"promo-backend/internal/features/content/repository"
)

const itemColumns = `id, kind, title, body, image_url, link_url, sort_order, active, starts_at, ends_at, attrs, created_at, updated_at`

var orderBy = map[string]string{
	models.SortOrder:  "sort_order, id",
	models.SortNewest: "created_at DESC, id DESC",
	models.SortTitle:  "lower(title), id",
	models.SortEnds:   "ends_at ASC NULLS LAST, id",
}

type contentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) repository.ContentRepository {
	return &contentRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		it    models.Item
		attrs []byte
	)
	err := row.Scan(&it.ID, &it.Kind, &it.Title, &it.Body, &it.ImageURL, &it.LinkURL, &it.SortOrder,
		&it.Active, &it.StartsAt, &it.EndsAt, &attrs, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.Attrs = attrs
	return &it, nil
}

func (r *contentRepository) List(ctx context.Context, q models.ListQuery) ([]*models.Item, error) {
	order, ok := orderBy[q.Sort]
	if !ok {
		order = orderBy[models.SortOrder]
	}

	args := []interface{}{q.Kind}
	where := []string{"kind = $1"}
	if q.ActiveOnly {
		args = append(args, q.Now)
		n := len(args)
		where = append(where,
			"active",
			fmt.Sprintf("(starts_at IS NULL OR starts_at <= $%d)", n),
			fmt.Sprintf("(ends_at IS NULL OR ends_at > $%d)", n),
		)
	}
	args = append(args, q.Limit, q.Offset)

	query := fmt.Sprintf(`SELECT %s FROM content_items WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		itemColumns, strings.Join(where, " AND "), order, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *contentRepository) GetByID(ctx context.Context, kind models.Kind, id int64) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM content_items WHERE id = $1 AND kind = $2`

	it, err := scanItem(r.db.QueryRowContext(ctx, query, id, kind))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}
	return it, nil
}

func (r *contentRepository) Create(ctx context.Context, it *models.Item) error {
	query := `
		INSERT INTO content_items (kind, title, body, image_url, link_url, sort_order, active, starts_at, ends_at, attrs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		it.Kind, it.Title, it.Body, it.ImageURL, it.LinkURL, it.SortOrder, it.Active, it.StartsAt, it.EndsAt, []byte(it.Attrs),
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create content item: %w", err)
	}
	return nil
}

func (r *contentRepository) Update(ctx context.Context, it *models.Item) error {
	query := `
		UPDATE content_items
		SET title = $3, body = $4, image_url = $5, link_url = $6, sort_order = $7,
			active = $8, starts_at = $9, ends_at = $10, attrs = $11, updated_at = now()
		WHERE id = $1 AND kind = $2
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		it.ID, it.Kind, it.Title, it.Body, it.ImageURL, it.LinkURL, it.SortOrder, it.Active, it.StartsAt, it.EndsAt, []byte(it.Attrs),
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to update content item: %w", err)
	}
	return nil
}

func (r *contentRepository) Delete(ctx context.Context, kind models.Kind, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM content_items WHERE id = $1 AND kind = $2`, id, kind)
	if err != nil {
		return fmt.Errorf("failed to delete content item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete content item: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
