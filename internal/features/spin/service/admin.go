package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	apperrors "promo-backend/internal/common/errors"
	"promo-backend/internal/common/logger"
	"promo-backend/internal/common/validation"
	"promo-backend/internal/features/spin/models"
	"promo-backend/internal/features/spin/repository"
	"promo-backend/internal/utils/random"
)

const (
	defaultCodeLength  = 8
	defaultCodeLimit   = 50
	maxCodeLimit       = 500
	batchInsertRetries = 3
)

// ImageStore uploads a public object and returns its URL.
type ImageStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// AdminService manages prizes, tier weights and codes for the back office.
type AdminService interface {
	ListPrizes(ctx context.Context) ([]*models.Prize, error)
	CreatePrize(ctx context.Context, req *models.PrizeCreateRequest) (*models.Prize, error)
	UpdatePrize(ctx context.Context, id int64, req *models.PrizeUpdateRequest) (*models.Prize, error)
	DeletePrize(ctx context.Context, id int64) (*models.PrizeDeleteResponse, error)
	UploadPrizeImage(ctx context.Context, id int64, filename, contentType string, body io.Reader) (*models.Prize, error)

	ListTiers(ctx context.Context) ([]models.TierSummary, error)
	GetTierWeights(ctx context.Context, tier string) (*models.TierWeightsResponse, error)
	SetTierWeights(ctx context.Context, tier string, weights map[int64]int) (*models.TierWeightsResponse, error)

	ListCodes(ctx context.Context, filter models.CodeFilter) ([]*models.Code, error)
	CreateCode(ctx context.Context, req *models.CodeCreateRequest) (*models.Code, error)
	GenerateCodes(ctx context.Context, req *models.CodeBatchRequest) (*models.CodeBatchResponse, error)
}

type adminService struct {
	codes  repository.CodeRepository
	prizes repository.PrizeRepository
	images ImageStore
}

// NewAdminService accepts a nil ImageStore when no bucket is configured.
func NewAdminService(codes repository.CodeRepository, prizes repository.PrizeRepository, images ImageStore) AdminService {
	return &adminService{codes: codes, prizes: prizes, images: images}
}

func (s *adminService) getPrize(ctx context.Context, id int64) (*models.Prize, error) {
	p, err := s.prizes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPrizeNotFound) {
			return nil, apperrors.NewPrizeNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("get prize", err)
	}
	return p, nil
}

func (s *adminService) ListPrizes(ctx context.Context) ([]*models.Prize, error) {
	prizes, err := s.prizes.List(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list prizes", err)
	}
	return prizes, nil
}

func (s *adminService) CreatePrize(ctx context.Context, req *models.PrizeCreateRequest) (*models.Prize, error) {
	if err := validation.ValidateLabel(req.Label); err != nil {
		return nil, apperrors.NewValidationError("label", err.Error())
	}
	if req.ImageURL != nil {
		if err := validation.ValidateOptionalURL(*req.ImageURL); err != nil {
			return nil, apperrors.NewValidationError("image_url", err.Error())
		}
	}

	p := &models.Prize{
		Label:    strings.TrimSpace(req.Label),
		ImageURL: req.ImageURL,
		Enabled:  true,
	}
	if req.WheelIndex != nil {
		p.WheelIndex = *req.WheelIndex
	}
	if req.Enabled != nil {
		p.Enabled = *req.Enabled
	}

	if err := s.prizes.Create(ctx, p); err != nil {
		return nil, apperrors.NewDatabaseError("create prize", err)
	}
	logger.Info().Int64("prize_id", p.ID).Str("label", p.Label).Msg("Prize created")
	return p, nil
}

func (s *adminService) ensureNoWeight(ctx context.Context, id int64, action string) error {
	total, err := s.prizes.TotalWeight(ctx, id)
	if err != nil {
		return apperrors.NewDatabaseError("sum prize weight", err)
	}
	if total > 0 {
		return apperrors.NewConflictError("prize",
			fmt.Sprintf("cannot %s a prize that carries %d bp of tier weight; rebalance its tiers first", action, total))
	}
	return nil
}

func (s *adminService) UpdatePrize(ctx context.Context, id int64, req *models.PrizeUpdateRequest) (*models.Prize, error) {
	p, err := s.getPrize(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Label != nil {
		if err := validation.ValidateLabel(*req.Label); err != nil {
			return nil, apperrors.NewValidationError("label", err.Error())
		}
		p.Label = strings.TrimSpace(*req.Label)
	}
	if req.WheelIndex != nil {
		p.WheelIndex = *req.WheelIndex
	}
	if req.ImageURL != nil {
		if err := validation.ValidateOptionalURL(*req.ImageURL); err != nil {
			return nil, apperrors.NewValidationError("image_url", err.Error())
		}
		if *req.ImageURL == "" {
			p.ImageURL = nil
		} else {
			p.ImageURL = req.ImageURL
		}
	}
	if req.Enabled != nil {
		if p.Enabled && !*req.Enabled {
			if err := s.ensureNoWeight(ctx, id, "disable"); err != nil {
				return nil, err
			}
		}
		p.Enabled = *req.Enabled
	}

	if err := s.prizes.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrPrizeNotFound) {
			return nil, apperrors.NewPrizeNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("update prize", err)
	}
	return p, nil
}

// DeletePrize removes a weightless prize together with every code assigned to it.
func (s *adminService) DeletePrize(ctx context.Context, id int64) (*models.PrizeDeleteResponse, error) {
	if _, err := s.getPrize(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ensureNoWeight(ctx, id, "delete"); err != nil {
		return nil, err
	}

	deleted, err := s.prizes.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPrizeNotFound) {
			return nil, apperrors.NewPrizeNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("delete prize", err)
	}

	logger.Info().Int64("prize_id", id).Int64("deleted_codes", deleted).Msg("Prize deleted")
	return &models.PrizeDeleteResponse{PrizeID: id, DeletedCodes: deleted}, nil
}

func (s *adminService) UploadPrizeImage(ctx context.Context, id int64, filename, contentType string, body io.Reader) (*models.Prize, error) {
	if s.images == nil {
		return nil, apperrors.New(apperrors.ErrCodeStorageDisabled, "Image storage is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperrors.NewValidationError("file", "only image uploads are accepted")
	}

	p, err := s.getPrize(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("prizes/%d/%s%s", id, uuid.New().String(), strings.ToLower(path.Ext(filename)))
	url, err := s.images.Upload(ctx, key, body, contentType)
	if err != nil {
		return nil, apperrors.NewStorageError("upload prize image", err)
	}

	p.ImageURL = &url
	if err := s.prizes.Update(ctx, p); err != nil {
		return nil, apperrors.NewDatabaseError("update prize image", err)
	}
	return p, nil
}

func (s *adminService) ListTiers(ctx context.Context) ([]models.TierSummary, error) {
	tiers, err := s.prizes.ListTiers(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list tiers", err)
	}
	return tiers, nil
}

func (s *adminService) GetTierWeights(ctx context.Context, tier string) (*models.TierWeightsResponse, error) {
	if err := validation.ValidateTier(tier); err != nil {
		return nil, apperrors.NewValidationError("tier", err.Error())
	}
	weights, err := s.prizes.ListTierWeights(ctx, tier)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list tier weights", err)
	}

	total := 0
	for _, w := range weights {
		total += w.WeightBP
	}
	return &models.TierWeightsResponse{Tier: tier, Weights: weights, TotalBP: total}, nil
}

// SetTierWeights replaces the tier distribution. The weights must reference
// existing prizes and add up to exactly validation.TotalWeightBP.
func (s *adminService) SetTierWeights(ctx context.Context, tier string, weights map[int64]int) (*models.TierWeightsResponse, error) {
	if err := validation.ValidateTier(tier); err != nil {
		return nil, apperrors.NewValidationError("tier", err.Error())
	}
	if len(weights) == 0 {
		return nil, apperrors.NewValidationError("weights", "at least one prize weight is required")
	}
	for prizeID, w := range weights {
		if err := validation.ValidateWeightBP(w); err != nil {
			return nil, apperrors.NewValidationError("weights", fmt.Sprintf("prize %d: %v", prizeID, err))
		}
		p, err := s.getPrize(ctx, prizeID)
		if err != nil {
			return nil, err
		}
		if !p.Enabled && w > 0 {
			return nil, apperrors.NewConflictError("prize", fmt.Sprintf("prize %d is disabled and cannot carry weight", prizeID))
		}
	}
	if sum := validation.SumWeights(weights); sum != validation.TotalWeightBP {
		return nil, apperrors.NewInvalidWeightsError(tier, sum)
	}

	if err := s.prizes.SetTierWeights(ctx, tier, weights); err != nil {
		return nil, apperrors.NewDatabaseError("set tier weights", err)
	}
	logger.Info().Str("tier", tier).Int("prizes", len(weights)).Msg("Tier weights replaced")
	return s.GetTierWeights(ctx, tier)
}

func (s *adminService) ListCodes(ctx context.Context, filter models.CodeFilter) ([]*models.Code, error) {
	switch filter.Status {
	case "", models.CodeStatusIssued, models.CodeStatusUsed, models.CodeStatusExpired:
	default:
		return nil, apperrors.NewValidationError("status", "must be issued, used or expired")
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultCodeLimit
	}
	if filter.Limit > maxCodeLimit {
		filter.Limit = maxCodeLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	codes, err := s.codes.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list codes", err)
	}
	return codes, nil
}

// codeTemplate validates the prize-resolution fields shared by single and
// batch creation and returns a code with them filled in.
func (s *adminService) codeTemplate(ctx context.Context, mode models.CodeMode, tier *string, prizeID *int64) (*models.Code, error) {
	c := &models.Code{Status: models.CodeStatusIssued, Mode: mode}

	switch mode {
	case models.CodeModeManual:
		if prizeID == nil {
			return nil, apperrors.NewValidationError("prize_id", "required for manual codes")
		}
		if _, err := s.getPrize(ctx, *prizeID); err != nil {
			return nil, err
		}
		c.PrizeID = prizeID
	case models.CodeModeAuto:
		if prizeID != nil {
			return nil, apperrors.NewValidationError("prize_id", "auto codes draw their prize from a tier")
		}
	default:
		return nil, apperrors.NewValidationError("mode", "must be auto or manual")
	}

	if tier != nil && *tier != "" {
		if err := validation.ValidateTier(*tier); err != nil {
			return nil, apperrors.NewValidationError("tier", err.Error())
		}
		c.Tier = tier
	}
	return c, nil
}

func (s *adminService) CreateCode(ctx context.Context, req *models.CodeCreateRequest) (*models.Code, error) {
	code := strings.TrimSpace(req.Code)
	if err := validation.ValidateCode(code); err != nil {
		return nil, apperrors.NewValidationError("code", err.Error())
	}

	c, err := s.codeTemplate(ctx, req.Mode, req.Tier, req.PrizeID)
	if err != nil {
		return nil, err
	}
	c.Code = code
	c.ExpiresAt = req.ExpiresAt

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != "" {
			if err := validation.ValidatePlayerName(username); err != nil {
				return nil, apperrors.NewValidationError("username", err.Error())
			}
			c.Username = &username
		}
	}

	if err := s.codes.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			return nil, apperrors.New(apperrors.ErrCodeCodeExists, fmt.Sprintf("Code %s already exists", code))
		}
		return nil, apperrors.NewDatabaseError("create code", err)
	}
	logger.Info().Str("code", code).Str("mode", string(c.Mode)).Msg("Code created")
	return c, nil
}

func (s *adminService) GenerateCodes(ctx context.Context, req *models.CodeBatchRequest) (*models.CodeBatchResponse, error) {
	length := req.Length
	if length == 0 {
		length = defaultCodeLength
	}

	tmpl, err := s.codeTemplate(ctx, req.Mode, req.Tier, req.PrizeID)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		batch, err := buildBatch(tmpl, req.Prefix, length, req.Count)
		if err != nil {
			return nil, err
		}
		for _, c := range batch {
			c.ExpiresAt = req.ExpiresAt
		}

		err = s.codes.CreateBatch(ctx, batch)
		if err == nil {
			out := &models.CodeBatchResponse{Count: len(batch), Codes: make([]string, len(batch))}
			for i, c := range batch {
				out.Codes[i] = c.Code
			}
			logger.Info().Int("count", len(batch)).Str("mode", string(tmpl.Mode)).Msg("Code batch generated")
			return out, nil
		}
		if !errors.Is(err, repository.ErrCodeExists) || attempt >= batchInsertRetries {
			if errors.Is(err, repository.ErrCodeExists) {
				return nil, apperrors.New(apperrors.ErrCodeCodeExists, "Generated codes collided with existing ones; use a longer length or another prefix")
			}
			return nil, apperrors.NewDatabaseError("create code batch", err)
		}
		logger.Warn().Int("attempt", attempt).Msg("Code batch collided with existing codes, regenerating")
	}
}

func buildBatch(tmpl *models.Code, prefix string, length, count int) ([]*models.Code, error) {
	seen := make(map[string]struct{}, count)
	batch := make([]*models.Code, 0, count)
	for len(batch) < count {
		value, err := random.Code(prefix, length)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to generate code")
		}
		if _, dup := seen[value]; dup {
			continue
		}
		if err := validation.ValidateCode(value); err != nil {
			return nil, apperrors.NewValidationError("prefix", err.Error())
		}
		seen[value] = struct{}{}

		c := *tmpl
		c.Code = value
		batch = append(batch, &c)
	}
	return batch, nil
}
