package service

import (
	"context"
	"errors"
	"time"

	apperrors "promo-backend/internal/common/errors"
	"promo-backend/internal/common/logger"
	"promo-backend/internal/common/validation"
	"promo-backend/internal/features/content/models"
	"promo-backend/internal/features/content/repository"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	publicPathPrefix = "/api/content/"
)

// Invalidator drops cached public responses under a path.
type Invalidator interface {
	InvalidatePath(ctx context.Context, path string) error
}

type ContentService interface {
	List(ctx context.Context, q models.ListQuery) (*models.ListResponse, error)
	Get(ctx context.Context, kind models.Kind, id int64) (*models.Item, error)
	Create(ctx context.Context, kind models.Kind, req *models.ItemRequest) (*models.Item, error)
	Update(ctx context.Context, kind models.Kind, id int64, req *models.ItemRequest) (*models.Item, error)
	Delete(ctx context.Context, kind models.Kind, id int64) error
}

type contentService struct {
	repo  repository.ContentRepository
	cache Invalidator
	now   func() time.Time
}

// NewContentService wires the repository. cache may be nil.
func NewContentService(repo repository.ContentRepository, cache Invalidator) ContentService {
	return &contentService{
		repo:  repo,
		cache: cache,
		now:   time.Now,
	}
}

func (s *contentService) List(ctx context.Context, q models.ListQuery) (*models.ListResponse, error) {
	switch q.Sort {
	case "":
		q.Sort = models.SortOrder
	case models.SortOrder, models.SortNewest, models.SortTitle, models.SortEnds:
	default:
		return nil, apperrors.NewValidationError("sort", "must be order, newest, title or ends")
	}
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Now.IsZero() {
		q.Now = s.now()
	}

	items, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list content", err)
	}
	return &models.ListResponse{Items: items, Limit: q.Limit, Offset: q.Offset}, nil
}

func (s *contentService) Get(ctx context.Context, kind models.Kind, id int64) (*models.Item, error) {
	it, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewContentNotFoundError(string(kind), id)
		}
		return nil, apperrors.NewDatabaseError("get content", err)
	}
	return it, nil
}

func (s *contentService) build(kind models.Kind, req *models.ItemRequest) (*models.Item, error) {
	if err := validation.ValidateTitle(req.Title); err != nil {
		return nil, apperrors.NewValidationError("title", err.Error())
	}
	if err := validation.ValidateBody(req.Body); err != nil {
		return nil, apperrors.NewValidationError("body", err.Error())
	}
	if err := validation.ValidateOptionalURL(req.ImageURL); err != nil {
		return nil, apperrors.NewValidationError("image_url", err.Error())
	}
	if err := validation.ValidateOptionalURL(req.LinkURL); err != nil {
		return nil, apperrors.NewValidationError("link_url", err.Error())
	}
	if req.StartsAt != nil && req.EndsAt != nil && !req.EndsAt.After(*req.StartsAt) {
		return nil, apperrors.NewValidationError("ends_at", "must be after starts_at")
	}
	attrs, err := models.NormalizeAttrs(kind, req.Attrs)
	if err != nil {
		return nil, apperrors.NewValidationError("attrs", err.Error())
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	return &models.Item{
		Kind:      kind,
		Title:     req.Title,
		Body:      req.Body,
		ImageURL:  req.ImageURL,
		LinkURL:   req.LinkURL,
		SortOrder: req.SortOrder,
		Active:    active,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		Attrs:     attrs,
	}, nil
}

func (s *contentService) Create(ctx context.Context, kind models.Kind, req *models.ItemRequest) (*models.Item, error) {
	it, err := s.build(kind, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, apperrors.NewDatabaseError("create content", err)
	}

	logger.Info().Str("kind", string(kind)).Int64("id", it.ID).Msg("Content item created")
	s.invalidate(ctx, kind)
	return it, nil
}

func (s *contentService) Update(ctx context.Context, kind models.Kind, id int64, req *models.ItemRequest) (*models.Item, error) {
	it, err := s.build(kind, req)
	if err != nil {
		return nil, err
	}
	it.ID = id
	if err := s.repo.Update(ctx, it); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewContentNotFoundError(string(kind), id)
		}
		return nil, apperrors.NewDatabaseError("update content", err)
	}

	s.invalidate(ctx, kind)
	return it, nil
}

func (s *contentService) Delete(ctx context.Context, kind models.Kind, id int64) error {
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewContentNotFoundError(string(kind), id)
		}
		return apperrors.NewDatabaseError("delete content", err)
	}

	logger.Info().Str("kind", string(kind)).Int64("id", id).Msg("Content item deleted")
	s.invalidate(ctx, kind)
	return nil
}

// invalidate drops every cached listing and detail page of kind. A failure
// only delays freshness until the cache TTL runs out.
func (s *contentService) invalidate(ctx context.Context, kind models.Kind) {
	if s.cache == nil {
		return
	}
	path := publicPathPrefix + kind.Slug()
	if err := s.cache.InvalidatePath(ctx, path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to invalidate content cache")
	}
}
