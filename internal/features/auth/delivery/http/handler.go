package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "promo-backend/internal/common/errors"
	"promo-backend/internal/common/middleware"
	"promo-backend/internal/features/auth/models"
	"promo-backend/internal/features/auth/service"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// RegisterPublicRoutes mounts the unauthenticated login endpoint.
func (h *AuthHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	router.POST("/login", h.login)
}

// RegisterRoutes expects a group that already runs middleware.Authenticate.
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/me", middleware.RequireRole(models.RoleViewer), h.me)
	router.POST("/users", middleware.RequireRole(models.RoleAdmin), h.createUser)
}

// @Summary Admin login
// @Tags admin-auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /admin/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Current principal
// @Tags admin-auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Principal
// @Router /admin/me [get]
func (h *AuthHandler) me(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	c.JSON(http.StatusOK, p)
}

// @Summary Create admin user
// @Tags admin-auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateUserRequest true "User"
// @Success 201 {object} models.AdminUser
// @Failure 409 {object} middleware.ErrorResponse
// @Router /admin/users [post]
func (h *AuthHandler) createUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), &req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
