package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promo-backend/internal/features/spin/models"
	"promo-backend/internal/features/spin/repository"
)

func TestPrizeRepository_ListEnabledByTier(t *testing.T) {
	mock, _, prizes := newMock(t)
	now := time.Now()

	mock.ExpectQuery("JOIN prize_tier_weights w ON w.prize_id = p.id").
		WithArgs("gold").
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "wheel_index", "image_url", "enabled", "created_at", "updated_at", "weight_bp"}).
			AddRow(int64(1), "₺100", 0, nil, true, now, now, 7000).
			AddRow(int64(2), "₺1000", 3, "https://cdn/x.png", true, now, now, 3000))

	list, err := prizes.ListEnabledByTier(context.Background(), "gold")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 7000, list[0].WeightBP)
	assert.Equal(t, "₺1000", list[1].Label)
	require.NotNil(t, list[1].ImageURL)
	assert.Equal(t, 3, list[1].WheelIndex)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrizeRepository_CreateAndUpdate(t *testing.T) {
	mock, _, prizes := newMock(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO prizes").
		WithArgs("₺1000", 3, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(9), now, now))

	p := &models.Prize{Label: "₺1000", WheelIndex: 3, Enabled: true}
	require.NoError(t, prizes.Create(context.Background(), p))
	assert.Equal(t, int64(9), p.ID)

	mock.ExpectQuery("UPDATE prizes SET").
		WithArgs(int64(9), "₺1000", 3, nil, false).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	p.Enabled = false
	assert.ErrorIs(t, prizes.Update(context.Background(), p), repository.ErrPrizeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrizeRepository_DeleteRemovesCodesInTransaction(t *testing.T) {
	mock, _, prizes := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM spin_codes WHERE prize_id = \\$1").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM prizes WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := prizes.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrizeRepository_DeleteFailureRollsBackCodes(t *testing.T) {
	mock, _, prizes := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM spin_codes WHERE prize_id = \\$1").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM prizes WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := prizes.Delete(context.Background(), 7)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrizeRepository_DeleteMissing(t *testing.T) {
	mock, _, prizes := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM spin_codes WHERE prize_id = \\$1").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM prizes WHERE id = \\$1").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := prizes.Delete(context.Background(), 5)
	assert.ErrorIs(t, err, repository.ErrPrizeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrizeRepository_SetTierWeightsReplacesDistribution(t *testing.T) {
	mock, _, prizes := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM prize_tier_weights WHERE tier = \\$1").
		WithArgs("gold").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("INSERT INTO prize_tier_weights").
		WithArgs(int64(1), "gold", 7000).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO prize_tier_weights").
		WithArgs(int64(2), "gold", 3000).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := prizes.SetTierWeights(context.Background(), "gold", map[int64]int{2: 3000, 1: 7000})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrizeRepository_SetTierWeightsRollsBack(t *testing.T) {
	mock, _, prizes := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM prize_tier_weights").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO prize_tier_weights").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := prizes.SetTierWeights(context.Background(), "gold", map[int64]int{99: 10000})
	assert.ErrorContains(t, err, "prize 99")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrizeRepository_ListTiersMarksBalance(t *testing.T) {
	mock, _, prizes := newMock(t)

	mock.ExpectQuery("FROM prize_tier_weights").
		WillReturnRows(sqlmock.NewRows([]string{"tier", "count", "sum"}).
			AddRow("bronze", 2, 9000).
			AddRow("gold", 3, 10000))

	tiers, err := prizes.ListTiers(context.Background())
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.False(t, tiers[0].IsBalanced)
	assert.True(t, tiers[1].IsBalanced)
	assert.NoError(t, mock.ExpectationsWereMet())
}
