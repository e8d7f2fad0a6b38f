package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"promo-backend/internal/common/logger"
	"promo-backend/internal/features/spin/models"
	"promo-backend/internal/features/spin/repository"
	"promo-backend/internal/features/spin/reservation"
	"promo-backend/internal/utils/random"
)

// DefaultTier is drawn from for auto codes issued without a tier.
const DefaultTier = "default"

// SpinService runs the two-phase redemption of spin codes.
type SpinService interface {
	Verify(ctx context.Context, in VerifyInput) (*models.VerifyResponse, error)
	Commit(ctx context.Context, in CommitInput) error
	Wheel(ctx context.Context) ([]models.WheelSlot, error)
}

type VerifyInput struct {
	Username string
	Code     string
}

type CommitInput struct {
	Code      string
	Token     string
	IP        string
	UserAgent string
}

type spinService struct {
	codes    repository.CodeRepository
	prizes   repository.PrizeRepository
	store    reservation.Store
	source   random.Source
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

type Option func(*spinService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *spinService) { s.now = now }
}

// WithRandomSource replaces the crypto source used by the prize draw.
func WithRandomSource(src random.Source) Option {
	return func(s *spinService) { s.source = src }
}

// WithTokenGenerator replaces the UUIDv4 spin token generator.
func WithTokenGenerator(gen func() string) Option {
	return func(s *spinService) { s.newToken = gen }
}

func NewSpinService(
	codes repository.CodeRepository,
	prizes repository.PrizeRepository,
	store reservation.Store,
	reservationTTL time.Duration,
	opts ...Option,
) SpinService {
	s := &spinService{
		codes:    codes,
		prizes:   prizes,
		store:    store,
		source:   random.CryptoSource{},
		ttl:      reservationTTL,
		now:      time.Now,
		newToken: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *spinService) Verify(ctx context.Context, in VerifyInput) (*models.VerifyResponse, error) {
	username := strings.TrimSpace(in.Username)
	code := strings.TrimSpace(in.Code)
	if username == "" || code == "" {
		return nil, ErrInvalidRequest
	}

	unlock, err := s.store.Lock(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to lock code: %w", err)
	}
	defer unlock()

	c, err := s.loadCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if c.Status == models.CodeStatusUsed {
		return nil, ErrAlreadyUsed
	}
	if c.IsExpired(now) {
		return nil, ErrExpired
	}
	if c.Username != nil && *c.Username != username {
		return nil, ErrUsernameMismatch
	}

	prize, err := s.resolvePrize(ctx, c)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(s.ttl)
	if c.ExpiresAt != nil && c.ExpiresAt.Before(expiresAt) {
		expiresAt = *c.ExpiresAt
	}

	res := &models.Reservation{
		Code:       c.Code,
		Token:      s.newToken(),
		PrizeID:    prize.ID,
		WheelIndex: prize.WheelIndex,
		PrizeLabel: prize.Label,
		Username:   username,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}
	if err := s.store.Put(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to store reservation: %w", err)
	}

	logger.Info().
		Str("code", c.Code).
		Str("username", username).
		Int64("prize_id", prize.ID).
		Msg("Spin verified")

	return &models.VerifyResponse{
		OK:          true,
		TargetIndex: prize.WheelIndex,
		PrizeLabel:  prize.Label,
		SpinToken:   res.Token,
	}, nil
}

func (s *spinService) loadCode(ctx context.Context, code string) (*models.Code, error) {
	c, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to load code: %w", err)
	}
	return c, nil
}

// resolvePrize returns the admin-assigned prize for manual codes. Auto codes
// keep the prize of a live reservation while that prize is still drawable in
// the tier, so verifying again reissues the token without rerolling;
// otherwise a fresh weighted draw is made.
func (s *spinService) resolvePrize(ctx context.Context, c *models.Code) (*models.Prize, error) {
	if c.Mode == models.CodeModeManual {
		if c.PrizeID == nil {
			return nil, ErrNoPrizeAvailable
		}
		p, err := s.prizes.GetByID(ctx, *c.PrizeID)
		if err != nil {
			if errors.Is(err, repository.ErrPrizeNotFound) {
				return nil, ErrNoPrizeAvailable
			}
			return nil, fmt.Errorf("failed to load prize: %w", err)
		}
		return p, nil
	}

	tier := DefaultTier
	if c.Tier != nil && *c.Tier != "" {
		tier = *c.Tier
	}
	candidates, err := s.prizes.ListEnabledByTier(ctx, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to load tier %s: %w", tier, err)
	}

	existing, err := s.store.Get(ctx, c.Code)
	switch {
	case err == nil:
		for i := range candidates {
			cand := candidates[i]
			if cand.ID == existing.PrizeID && cand.Enabled && cand.WeightBP > 0 {
				return &cand.Prize, nil
			}
		}
		logger.Info().
			Str("code", c.Code).
			Int64("prize_id", existing.PrizeID).
			Msg("Reserved prize no longer drawable, drawing again")
	case !errors.Is(err, reservation.ErrNotFound):
		return nil, fmt.Errorf("failed to read reservation: %w", err)
	}

	p, err := drawPrize(s.source, candidates)
	if err != nil {
		logger.Error().Str("code", c.Code).Str("tier", tier).Msg("No prize available for tier")
		return nil, err
	}
	return p, nil
}

func (s *spinService) Commit(ctx context.Context, in CommitInput) error {
	code := strings.TrimSpace(in.Code)
	token := strings.TrimSpace(in.Token)
	if code == "" {
		return ErrCodeNotFound
	}
	if token == "" {
		return ErrInvalidOrStaleToken
	}

	unlock, err := s.store.Lock(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to lock code: %w", err)
	}
	defer unlock()

	c, err := s.loadCode(ctx, code)
	if err != nil {
		return err
	}
	if c.Status == models.CodeStatusUsed {
		return nil
	}
	if c.IsExpired(s.now()) {
		return ErrExpired
	}

	res, err := s.store.Get(ctx, code)
	if err != nil {
		if errors.Is(err, reservation.ErrNotFound) {
			return ErrInvalidOrStaleToken
		}
		return fmt.Errorf("failed to read reservation: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(res.Token), []byte(token)) != 1 {
		return ErrInvalidOrStaleToken
	}

	spin := &models.Spin{
		Code:      code,
		Username:  res.Username,
		PrizeID:   res.PrizeID,
		IP:        in.IP,
		UserAgent: in.UserAgent,
	}
	redeemed, err := s.codes.Redeem(ctx, code, spin)
	if err != nil {
		return fmt.Errorf("failed to redeem code: %w", err)
	}
	if !redeemed {
		// The status changed outside this lock, e.g. by the expiry job.
		current, err := s.loadCode(ctx, code)
		if err != nil {
			return err
		}
		switch current.Status {
		case models.CodeStatusUsed:
			return nil
		case models.CodeStatusExpired:
			return ErrExpired
		default:
			return fmt.Errorf("code %s not redeemed in status %s", code, current.Status)
		}
	}

	if _, err := s.store.Delete(ctx, code, token); err != nil {
		logger.Warn().Err(err).Str("code", code).Msg("Failed to drop reservation after commit")
	}

	logger.Info().
		Str("code", code).
		Str("username", res.Username).
		Int64("prize_id", res.PrizeID).
		Int64("spin_id", spin.ID).
		Msg("Spin committed")
	return nil
}

func (s *spinService) Wheel(ctx context.Context) ([]models.WheelSlot, error) {
	prizes, err := s.prizes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}

	slots := make([]models.WheelSlot, 0, len(prizes))
	for _, p := range prizes {
		if !p.Enabled {
			continue
		}
		slots = append(slots, models.WheelSlot{
			ID:         p.ID,
			Label:      p.Label,
			WheelIndex: p.WheelIndex,
			ImageURL:   p.ImageURL,
		})
	}
	return slots, nil
}
