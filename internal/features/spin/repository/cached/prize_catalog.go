package cached

import (
	"context"
	"fmt"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"promo-backend/internal/features/spin/models"
	"promo-backend/internal/features/spin/repository"
)

type cachedEntry struct {
	value    any
	storedAt time.Time
}

// PrizeCatalog is a read-through LRU in front of a PrizeRepository. Any write
// through it purges the whole cache, since tier lists depend on every prize.
type PrizeCatalog struct {
	repository.PrizeRepository

	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewPrizeCatalog(next repository.PrizeRepository, size int, ttl time.Duration) (*PrizeCatalog, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create prize cache: %w", err)
	}
	return &PrizeCatalog{
		PrizeRepository: next,
		cache:           cache,
		ttl:             ttl,
		now:             time.Now,
	}, nil
}

func (c *PrizeCatalog) lookup(key string) (any, bool) {
	raw, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	e := raw.(cachedEntry)
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.cache.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (c *PrizeCatalog) store(key string, value any) {
	c.cache.Add(key, cachedEntry{value: value, storedAt: c.now()})
}

func (c *PrizeCatalog) GetByID(ctx context.Context, id int64) (*models.Prize, error) {
	key := fmt.Sprintf("prize:%d", id)
	if v, ok := c.lookup(key); ok {
		p := v.(models.Prize)
		return &p, nil
	}

	p, err := c.PrizeRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(key, *p)
	return p, nil
}

func (c *PrizeCatalog) List(ctx context.Context) ([]*models.Prize, error) {
	const key = "prizes:all"
	if v, ok := c.lookup(key); ok {
		return clonePrizes(v.([]models.Prize)), nil
	}

	prizes, err := c.PrizeRepository.List(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := make([]models.Prize, len(prizes))
	for i, p := range prizes {
		snapshot[i] = *p
	}
	c.store(key, snapshot)
	return prizes, nil
}

func clonePrizes(src []models.Prize) []*models.Prize {
	out := make([]*models.Prize, len(src))
	for i := range src {
		p := src[i]
		out[i] = &p
	}
	return out
}

func (c *PrizeCatalog) ListEnabledByTier(ctx context.Context, tier string) ([]models.WeightedPrize, error) {
	key := "tier:" + tier
	if v, ok := c.lookup(key); ok {
		return slices.Clone(v.([]models.WeightedPrize)), nil
	}

	prizes, err := c.PrizeRepository.ListEnabledByTier(ctx, tier)
	if err != nil {
		return nil, err
	}
	c.store(key, slices.Clone(prizes))
	return prizes, nil
}

func (c *PrizeCatalog) Create(ctx context.Context, prize *models.Prize) error {
	defer c.cache.Purge()
	return c.PrizeRepository.Create(ctx, prize)
}

func (c *PrizeCatalog) Update(ctx context.Context, prize *models.Prize) error {
	defer c.cache.Purge()
	return c.PrizeRepository.Update(ctx, prize)
}

func (c *PrizeCatalog) Delete(ctx context.Context, id int64) (int64, error) {
	defer c.cache.Purge()
	return c.PrizeRepository.Delete(ctx, id)
}

func (c *PrizeCatalog) SetTierWeights(ctx context.Context, tier string, weights map[int64]int) error {
	defer c.cache.Purge()
	return c.PrizeRepository.SetTierWeights(ctx, tier, weights)
}

// Purge drops every cached entry.
func (c *PrizeCatalog) Purge() {
	c.cache.Purge()
}
