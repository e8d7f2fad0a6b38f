package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promo-backend/internal/features/auth/models"
	"promo-backend/internal/features/auth/repository"
)

func TestAdminUserRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewAdminUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("FROM admin_users WHERE username = \\$1").
		WithArgs("root").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}).
			AddRow(int64(1), "root", "$2a$hash", "admin", time.Now()))

	u, err := repo.GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	mock.ExpectQuery("FROM admin_users WHERE username").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}))

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	mock.ExpectQuery("INSERT INTO admin_users").
		WithArgs("root", "$2a$hash", models.RoleAdmin).
		WillReturnError(&pq.Error{Code: "23505"})

	err = repo.Create(ctx, &models.AdminUser{Username: "root", PasswordHash: "$2a$hash", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, repository.ErrUserExists)

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
