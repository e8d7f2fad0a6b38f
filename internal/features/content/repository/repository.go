package repository

import (
	"context"
	"errors"

	"promo-backend/internal/features/content/models"
)

var ErrNotFound = errors.New("content item not found")

type ContentRepository interface {
	List(ctx context.Context, q models.ListQuery) ([]*models.Item, error)
	GetByID(ctx context.Context, kind models.Kind, id int64) (*models.Item, error)
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, kind models.Kind, id int64) error
}
