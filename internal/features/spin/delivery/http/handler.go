package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"promo-backend/internal/common/logger"
	"promo-backend/internal/features/spin/models"
	"promo-backend/internal/features/spin/service"
)

// Wire slugs understood by the wheel frontend.
const (
	slugInvalidRequest    = "invalid_request"
	slugInvalidCode       = "invalid_code"
	slugAlreadyUsed       = "already_used"
	slugExpired           = "expired"
	slugUsernameMismatch  = "username_mismatch"
	slugInvalidStaleToken = "invalid_or_stale_token"
	slugNoPrizeAvailable  = "no_prize_available"
	slugInternal          = "internal_error"
)

type SpinHandler struct {
	service service.SpinService
}

func NewSpinHandler(service service.SpinService) *SpinHandler {
	return &SpinHandler{
		service: service,
	}
}

func (h *SpinHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/verify-spin", h.verify)
	router.POST("/commit-spin", h.commit)
	router.GET("/wheel", h.wheel)
}

// @Summary Verify a spin code
// @Description Reserves the prize behind a code and returns the wheel target with a spin token
// @Tags spin
// @Accept json
// @Produce json
// @Param request body models.VerifyRequest true "Username and code"
// @Success 200 {object} models.VerifyResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 410 {object} models.ErrorResponse
// @Router /verify-spin [post]
func (h *SpinHandler) verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, service.ErrInvalidRequest)
		return
	}

	resp, err := h.service.Verify(c.Request.Context(), service.VerifyInput{
		Username: req.Username,
		Code:     req.Code,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Commit a spin
// @Description Consumes the code once the wheel animation has finished
// @Tags spin
// @Accept json
// @Produce json
// @Param request body models.CommitRequest true "Code and spin token"
// @Success 200 {object} models.OKResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 410 {object} models.ErrorResponse
// @Router /commit-spin [post]
func (h *SpinHandler) commit(c *gin.Context) {
	var req models.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, service.ErrInvalidRequest)
		return
	}

	err := h.service.Commit(c.Request.Context(), service.CommitInput{
		Code:      req.Code,
		Token:     req.SpinToken,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}

// @Summary Wheel layout
// @Description Enabled prizes ordered by wheel index
// @Tags spin
// @Produce json
// @Success 200 {array} models.WheelSlot
// @Failure 500 {object} models.ErrorResponse
// @Router /wheel [get]
func (h *SpinHandler) wheel(c *gin.Context) {
	slots, err := h.service.Wheel(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, slots)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, slugInvalidRequest
	case errors.Is(err, service.ErrCodeNotFound):
		return http.StatusBadRequest, slugInvalidCode
	case errors.Is(err, service.ErrAlreadyUsed):
		return http.StatusConflict, slugAlreadyUsed
	case errors.Is(err, service.ErrExpired):
		return http.StatusGone, slugExpired
	case errors.Is(err, service.ErrUsernameMismatch):
		return http.StatusForbidden, slugUsernameMismatch
	case errors.Is(err, service.ErrInvalidOrStaleToken):
		return http.StatusBadRequest, slugInvalidStaleToken
	case errors.Is(err, service.ErrNoPrizeAvailable):
		return http.StatusInternalServerError, slugNoPrizeAvailable
	default:
		return http.StatusInternalServerError, slugInternal
	}
}

func writeError(c *gin.Context, err error) {
	status, slug := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Str("error", slug).Msg("Spin request failed")
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{OK: false, Error: slug})
}
