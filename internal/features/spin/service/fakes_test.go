package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"promo-backend/internal/features/spin/models"
	"promo-backend/internal/features/spin/repository"
)

type fakeCodeRepo struct {
	mu        sync.Mutex
	codes     map[string]*models.Code
	spins     []models.Spin
	redeemErr error
	redeemed  int
}

func newFakeCodeRepo(codes ...*models.Code) *fakeCodeRepo {
	r := &fakeCodeRepo{codes: make(map[string]*models.Code)}
	for _, c := range codes {
		r.codes[c.Code] = c
	}
	return r
}

func (r *fakeCodeRepo) GetByCode(_ context.Context, code string) (*models.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[code]
	if !ok {
		return nil, repository.ErrCodeNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCodeRepo) Create(_ context.Context, code *models.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[code.Code]; ok {
		return repository.ErrCodeExists
	}
	cp := *code
	r.codes[code.Code] = &cp
	return nil
}

func (r *fakeCodeRepo) CreateBatch(_ context.Context, codes []*models.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range codes {
		if _, ok := r.codes[c.Code]; ok {
			return repository.ErrCodeExists
		}
	}
	for _, c := range codes {
		cp := *c
		r.codes[c.Code] = &cp
	}
	return nil
}

func (r *fakeCodeRepo) List(_ context.Context, filter models.CodeFilter) ([]*models.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Code, 0)
	for _, c := range r.codes {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *fakeCodeRepo) Redeem(_ context.Context, code string, spin *models.Spin) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.redeemErr != nil {
		return false, r.redeemErr
	}
	c, ok := r.codes[code]
	if !ok || c.Status != models.CodeStatusIssued {
		return false, nil
	}
	c.Status = models.CodeStatusUsed
	r.redeemed++
	spin.ID = int64(len(r.spins) + 1)
	r.spins = append(r.spins, *spin)
	return true, nil
}

func (r *fakeCodeRepo) removeByPrize(prizeID int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, c := range r.codes {
		if c.PrizeID != nil && *c.PrizeID == prizeID {
			delete(r.codes, k)
			n++
		}
	}
	return n
}

func (r *fakeCodeRepo) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.codes {
		if c.Status == models.CodeStatusIssued && c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
			c.Status = models.CodeStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeCodeRepo) status(code string) models.CodeStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[code].Status
}

type fakePrizeRepo struct {
	mu        sync.Mutex
	prizes    map[int64]*models.Prize
	weights   map[string]map[int64]int
	nextID    int64
	listErr   error
	deleteErr error
	codes     *fakeCodeRepo // cascade target for Delete
}

func newFakePrizeRepo(prizes ...models.Prize) *fakePrizeRepo {
	r := &fakePrizeRepo{prizes: make(map[int64]*models.Prize), weights: make(map[string]map[int64]int)}
	for i := range prizes {
		p := prizes[i]
		r.prizes[p.ID] = &p
		if p.ID > r.nextID {
			r.nextID = p.ID
		}
	}
	return r
}

func (r *fakePrizeRepo) GetByID(_ context.Context, id int64) (*models.Prize, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prizes[id]
	if !ok {
		return nil, repository.ErrPrizeNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePrizeRepo) List(_ context.Context) ([]*models.Prize, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*models.Prize, 0, len(r.prizes))
	for _, p := range r.prizes {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WheelIndex < out[j].WheelIndex })
	return out, nil
}

func (r *fakePrizeRepo) ListEnabledByTier(_ context.Context, tier string) ([]models.WeightedPrize, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.WeightedPrize, 0)
	for id, w := range r.weights[tier] {
		p := r.prizes[id]
		if p == nil || !p.Enabled || w <= 0 {
			continue
		}
		out = append(out, models.WeightedPrize{Prize: *p, WeightBP: w})
	}
	return out, nil
}

func (r *fakePrizeRepo) Create(_ context.Context, p *models.Prize) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.prizes[p.ID] = &cp
	return nil
}

func (r *fakePrizeRepo) Update(_ context.Context, p *models.Prize) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prizes[p.ID]; !ok {
		return repository.ErrPrizeNotFound
	}
	cp := *p
	r.prizes[p.ID] = &cp
	return nil
}

func (r *fakePrizeRepo) Delete(_ context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	if _, ok := r.prizes[id]; !ok {
		return 0, repository.ErrPrizeNotFound
	}
	delete(r.prizes, id)
	for _, tier := range r.weights {
		delete(tier, id)
	}
	var n int64
	if r.codes != nil {
		n = r.codes.removeByPrize(id)
	}
	return n, nil
}

func (r *fakePrizeRepo) SetTierWeights(_ context.Context, tier string, weights map[int64]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[int64]int, len(weights))
	for k, v := range weights {
		cp[k] = v
	}
	r.weights[tier] = cp
	return nil
}

func (r *fakePrizeRepo) ListTierWeights(_ context.Context, tier string) ([]models.TierWeight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.TierWeight, 0)
	for id, w := range r.weights[tier] {
		out = append(out, models.TierWeight{Tier: tier, PrizeID: id, WeightBP: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PrizeID < out[j].PrizeID })
	return out, nil
}

func (r *fakePrizeRepo) ListTiers(_ context.Context) ([]models.TierSummary, error) {
	return nil, errors.New("not implemented")
}

func (r *fakePrizeRepo) TotalWeight(_ context.Context, prizeID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, tier := range r.weights {
		total += tier[prizeID]
	}
	return total, nil
}
