package cached

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promo-backend/internal/features/spin/models"
	"promo-backend/internal/features/spin/repository"
)

type countingRepo struct {
	repository.PrizeRepository

	getCalls  int
	tierCalls int
	prizes    map[int64]models.Prize
}

func (r *countingRepo) GetByID(_ context.Context, id int64) (*models.Prize, error) {
	r.getCalls++
	p, ok := r.prizes[id]
	if !ok {
		return nil, repository.ErrPrizeNotFound
	}
	return &p, nil
}

func (r *countingRepo) ListEnabledByTier(_ context.Context, tier string) ([]models.WeightedPrize, error) {
	r.tierCalls++
	out := []models.WeightedPrize{}
	for _, p := range r.prizes {
		if p.Enabled {
			out = append(out, models.WeightedPrize{Prize: p, WeightBP: 10000})
		}
	}
	return out, nil
}

func (r *countingRepo) Update(_ context.Context, p *models.Prize) error {
	r.prizes[p.ID] = *p
	return nil
}

func newCatalog(t *testing.T) (*PrizeCatalog, *countingRepo, *time.Time) {
	t.Helper()
	repo := &countingRepo{prizes: map[int64]models.Prize{
		7: {ID: 7, Label: "₺1000", WheelIndex: 3, Enabled: true},
	}}
	c, err := NewPrizeCatalog(repo, 16, 30*time.Second)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, repo, &now
}

func TestPrizeCatalog_ReadThrough(t *testing.T) {
	c, repo, _ := newCatalog(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := c.GetByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "₺1000", p.Label)
	}
	assert.Equal(t, 1, repo.getCalls)

	_, err := c.GetByID(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrPrizeNotFound)
}

func TestPrizeCatalog_ReturnsCopies(t *testing.T) {
	c, _, _ := newCatalog(t)
	ctx := context.Background()

	p, err := c.GetByID(ctx, 7)
	require.NoError(t, err)
	p.Label = "mutated"

	again, err := c.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "₺1000", again.Label)
}

func TestPrizeCatalog_EntriesExpire(t *testing.T) {
	c, repo, now := newCatalog(t)
	ctx := context.Background()

	_, err := c.ListEnabledByTier(ctx, "gold")
	require.NoError(t, err)
	_, err = c.ListEnabledByTier(ctx, "gold")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.tierCalls)

	*now = now.Add(31 * time.Second)
	_, err = c.ListEnabledByTier(ctx, "gold")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.tierCalls)
}

func TestPrizeCatalog_WritesPurge(t *testing.T) {
	c, repo, _ := newCatalog(t)
	ctx := context.Background()

	list, err := c.ListEnabledByTier(ctx, "gold")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, c.Update(ctx, &models.Prize{ID: 7, Label: "₺1000", Enabled: false}))

	list, err = c.ListEnabledByTier(ctx, "gold")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 2, repo.tierCalls)
}
