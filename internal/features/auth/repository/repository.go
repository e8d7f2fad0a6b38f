package repository

import (
	"context"
	"errors"

	"promo-backend/internal/features/auth/models"
)

var (
	ErrUserNotFound = errors.New("admin user not found")
	ErrUserExists   = errors.New("admin user already exists")
)

type AdminUserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	Create(ctx context.Context, user *models.AdminUser) error
	Count(ctx context.Context) (int64, error)
}
