package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "promo-backend/internal/common/errors"
	"promo-backend/internal/common/middleware"
	authmodels "promo-backend/internal/features/auth/models"
	"promo-backend/internal/features/content/models"
	"promo-backend/internal/features/content/service"
)

type ContentHandler struct {
	service service.ContentService
}

func NewContentHandler(service service.ContentService) *ContentHandler {
	return &ContentHandler{
		service: service,
	}
}

// RegisterRoutes mounts the public read API.
func (h *ContentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/:kind", h.list)
	router.GET("/:kind/:id", h.get)
}

// RegisterAdminRoutes expects a group that already runs middleware.Authenticate.
func (h *ContentHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	editor := middleware.RequireRole(authmodels.RoleEditor)

	router.POST("/:kind", editor, h.create)
	router.PUT("/:kind/:id", editor, h.update)
	router.DELETE("/:kind/:id", editor, h.delete)
}

func parseKind(c *gin.Context) (models.Kind, bool) {
	kind, ok := models.KindFromSlug(c.Param("kind"))
	if !ok {
		middleware.RespondError(c, apperrors.NewNotFoundError("content kind", c.Param("kind")))
		return "", false
	}
	return kind, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondError(c, apperrors.NewValidationError("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		middleware.RespondError(c, apperrors.NewValidationError(name, "must be an integer"))
		return 0, false
	}
	return v, true
}

// @Summary List content
// @Tags content
// @Produce json
// @Param kind path string true "tournaments, bonuses, promo-codes or banners"
// @Param sort query string false "order, newest, title or ends"
// @Param active query bool false "Only live items (default true)"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} models.ListResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /content/{kind} [get]
func (h *ContentHandler) list(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}

	q := models.ListQuery{Kind: kind, Sort: c.Query("sort"), ActiveOnly: true}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.RespondError(c, apperrors.NewValidationError("active", "must be a boolean"))
			return
		}
		q.ActiveOnly = active
	}
	if q.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}
	if q.Offset, ok = queryInt(c, "offset"); !ok {
		return
	}

	resp, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Get content item
// @Tags content
// @Produce json
// @Param kind path string true "Kind"
// @Param id path int true "Item ID"
// @Success 200 {object} models.Item
// @Failure 404 {object} middleware.ErrorResponse
// @Router /content/{kind}/{id} [get]
func (h *ContentHandler) get(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	it, err := h.service.Get(c.Request.Context(), kind, id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// @Summary Create content item
// @Tags admin-content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "Kind"
// @Param request body models.ItemRequest true "Item"
// @Success 201 {object} models.Item
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/content/{kind} [post]
func (h *ContentHandler) create(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	var req models.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	it, err := h.service.Create(c.Request.Context(), kind, &req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

// @Summary Replace content item
// @Tags admin-content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "Kind"
// @Param id path int true "Item ID"
// @Param request body models.ItemRequest true "Item"
// @Success 200 {object} models.Item
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/content/{kind}/{id} [put]
func (h *ContentHandler) update(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req models.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	it, err := h.service.Update(c.Request.Context(), kind, id, &req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// @Summary Delete content item
// @Tags admin-content
// @Security BearerAuth
// @Param kind path string true "Kind"
// @Param id path int true "Item ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/content/{kind}/{id} [delete]
func (h *ContentHandler) delete(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), kind, id); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
