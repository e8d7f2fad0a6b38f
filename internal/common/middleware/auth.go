package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "promo-backend/internal/common/errors"
	"promo-backend/internal/features/auth/models"
)

const (
	principalKey   = "principal"
	initDataHeader = "X-Telegram-Init-Data"
)

// Authenticator resolves admin credentials into a principal.
type Authenticator interface {
	AuthenticateToken(ctx context.Context, token string) (*models.Principal, error)
	AuthenticateInitData(ctx context.Context, raw string) (*models.Principal, error)
}

// Authenticate accepts either "Authorization: Bearer <jwt>" or Telegram Mini
// App init data in X-Telegram-Init-Data (or the legacy init_data header).
// Requests without credentials are rejected with 401.
func Authenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var (
			principal *models.Principal
			err       error
		)
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			principal, err = a.AuthenticateToken(ctx, token)
		} else if raw := initData(c); raw != "" {
			principal, err = a.AuthenticateInitData(ctx, raw)
		} else {
			err = apperrors.NewUnauthorizedError("missing credentials")
		}
		if err != nil {
			RespondError(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRole lets through principals at or above min.
func RequireRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			RespondError(c, apperrors.NewUnauthorizedError("authentication required"))
			return
		}
		if !p.Role.Allows(min) {
			RespondError(c, apperrors.NewForbiddenError(string(min)+" role required"))
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal set by Authenticate.
func PrincipalFrom(c *gin.Context) (*models.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*models.Principal)
	return p, ok && p != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func initData(c *gin.Context) string {
	if raw := c.GetHeader(initDataHeader); raw != "" {
		return raw
	}
	return c.GetHeader("init_data")
}
