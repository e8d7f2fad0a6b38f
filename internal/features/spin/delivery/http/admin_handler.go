package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "promo-backend/internal/common/errors"
	"promo-backend/internal/common/middleware"
	authmodels "promo-backend/internal/features/auth/models"
	"promo-backend/internal/features/spin/models"
	"promo-backend/internal/features/spin/service"
)

const maxImageSize = 5 << 20

// AdminHandler serves prize, tier and code administration. Errors go through
// middleware.ErrorResponder.
type AdminHandler struct {
	service service.AdminService
}

func NewAdminHandler(service service.AdminService) *AdminHandler {
	return &AdminHandler{
		service: service,
	}
}

// RegisterRoutes expects a group that already runs middleware.Authenticate.
func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	viewer := middleware.RequireRole(authmodels.RoleViewer)
	editor := middleware.RequireRole(authmodels.RoleEditor)
	admin := middleware.RequireRole(authmodels.RoleAdmin)

	prizes := router.Group("/prizes")
	{
		prizes.GET("", viewer, h.listPrizes)
		prizes.POST("", editor, h.createPrize)
		prizes.PUT("/:id", editor, h.updatePrize)
		prizes.DELETE("/:id", admin, h.deletePrize)
		prizes.POST("/:id/image", editor, h.uploadPrizeImage)
	}

	tiers := router.Group("/tiers")
	{
		tiers.GET("", viewer, h.listTiers)
		tiers.GET("/:tier/weights", viewer, h.getTierWeights)
		tiers.PUT("/:tier/weights", editor, h.setTierWeights)
	}

	codes := router.Group("/codes")
	{
		codes.GET("", viewer, h.listCodes)
		codes.POST("", editor, h.createCode)
		codes.POST("/batch", editor, h.generateCodes)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondError(c, apperrors.NewValidationError("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		middleware.RespondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return false
	}
	return true
}

// @Summary List prizes
// @Tags admin-prizes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Prize
// @Failure 401 {object} middleware.ErrorResponse
// @Router /admin/prizes [get]
func (h *AdminHandler) listPrizes(c *gin.Context) {
	prizes, err := h.service.ListPrizes(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prizes)
}

// @Summary Create prize
// @Tags admin-prizes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PrizeCreateRequest true "Prize"
// @Success 201 {object} models.Prize
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/prizes [post]
func (h *AdminHandler) createPrize(c *gin.Context) {
	var req models.PrizeCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	prize, err := h.service.CreatePrize(c.Request.Context(), &req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prize)
}

// @Summary Update prize
// @Tags admin-prizes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Prize ID"
// @Param request body models.PrizeUpdateRequest true "Changed fields"
// @Success 200 {object} models.Prize
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /admin/prizes/{id} [put]
func (h *AdminHandler) updatePrize(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req models.PrizeUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	prize, err := h.service.UpdatePrize(c.Request.Context(), id, &req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

// @Summary Delete prize
// @Description Deletes the prize and every code pinned to it
// @Tags admin-prizes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Prize ID"
// @Success 200 {object} models.PrizeDeleteResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /admin/prizes/{id} [delete]
func (h *AdminHandler) deletePrize(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.DeletePrize(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Upload prize image
// @Tags admin-prizes
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Prize ID"
// @Param file formData file true "Image"
// @Success 200 {object} models.Prize
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /admin/prizes/{id}/image [post]
func (h *AdminHandler) uploadPrizeImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageSize+1<<10)
	header, err := c.FormFile("file")
	if err != nil {
		middleware.RespondError(c, apperrors.NewValidationError("file", "multipart field 'file' is required"))
		return
	}
	if header.Size > maxImageSize {
		middleware.RespondError(c, apperrors.NewValidationError("file", "image must be at most 5 MiB"))
		return
	}

	f, err := header.Open()
	if err != nil {
		middleware.RespondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Failed to read upload"))
		return
	}
	defer f.Close()

	prize, err := h.service.UploadPrizeImage(c.Request.Context(), id, header.Filename, header.Header.Get("Content-Type"), f)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

// @Summary List tiers
// @Tags admin-tiers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.TierSummary
// @Router /admin/tiers [get]
func (h *AdminHandler) listTiers(c *gin.Context) {
	tiers, err := h.service.ListTiers(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tiers)
}

// @Summary Get tier weights
// @Tags admin-tiers
// @Produce json
// @Security BearerAuth
// @Param tier path string true "Tier"
// @Success 200 {object} models.TierWeightsResponse
// @Router /admin/tiers/{tier}/weights [get]
func (h *AdminHandler) getTierWeights(c *gin.Context) {
	resp, err := h.service.GetTierWeights(c.Request.Context(), c.Param("tier"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Replace tier weights
// @Description Weights are basis points keyed by prize ID and must sum to 10000
// @Tags admin-tiers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tier path string true "Tier"
// @Param request body models.TierWeightsRequest true "Weights"
// @Success 200 {object} models.TierWeightsResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/tiers/{tier}/weights [put]
func (h *AdminHandler) setTierWeights(c *gin.Context) {
	var req models.TierWeightsRequest
	if !bindJSON(c, &req) {
		return
	}

	weights := make(map[int64]int, len(req.Weights))
	for key, bp := range req.Weights {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			middleware.RespondError(c, apperrors.NewValidationError("weights", "keys must be prize IDs, got "+strconv.Quote(key)))
			return
		}
		weights[id] = bp
	}

	resp, err := h.service.SetTierWeights(c.Request.Context(), c.Param("tier"), weights)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List codes
// @Tags admin-codes
// @Produce json
// @Security BearerAuth
// @Param status query string false "issued, used or expired"
// @Param tier query string false "Tier"
// @Param prize_id query int false "Prize ID"
// @Param limit query int false "Page size (max 500)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Code
// @Router /admin/codes [get]
func (h *AdminHandler) listCodes(c *gin.Context) {
	filter := models.CodeFilter{
		Status: models.CodeStatus(c.Query("status")),
		Tier:   c.Query("tier"),
	}
	for name, dest := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if raw := c.Query(name); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				middleware.RespondError(c, apperrors.NewValidationError(name, "must be an integer"))
				return
			}
			*dest = v
		}
	}
	if raw := c.Query("prize_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			middleware.RespondError(c, apperrors.NewValidationError("prize_id", "must be an integer"))
			return
		}
		filter.PrizeID = v
	}

	codes, err := h.service.ListCodes(c.Request.Context(), filter)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, codes)
}

// @Summary Create code
// @Tags admin-codes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CodeCreateRequest true "Code"
// @Success 201 {object} models.Code
// @Failure 409 {object} middleware.ErrorResponse
// @Router /admin/codes [post]
func (h *AdminHandler) createCode(c *gin.Context) {
	var req models.CodeCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	code, err := h.service.CreateCode(c.Request.Context(), &req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, code)
}

// @Summary Generate codes
// @Tags admin-codes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CodeBatchRequest true "Batch"
// @Success 201 {object} models.CodeBatchResponse
// @Router /admin/codes/batch [post]
func (h *AdminHandler) generateCodes(c *gin.Context) {
	var req models.CodeBatchRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.GenerateCodes(c.Request.Context(), &req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
