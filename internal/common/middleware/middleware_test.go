package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promo-backend/internal/common/cache"
	apperrors "promo-backend/internal/common/errors"
	"promo-backend/internal/features/auth/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator struct {
	tokens   map[string]*models.Principal
	initData map[string]*models.Principal
}

func (s stubAuthenticator) AuthenticateToken(_ context.Context, token string) (*models.Principal, error) {
	if p, ok := s.tokens[token]; ok {
		return p, nil
	}
	return nil, apperrors.NewUnauthorizedError("invalid token")
}

func (s stubAuthenticator) AuthenticateInitData(_ context.Context, raw string) (*models.Principal, error) {
	if p, ok := s.initData[raw]; ok {
		return p, nil
	}
	return nil, apperrors.NewUnauthorizedError("invalid init data")
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(), ErrorResponder())
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorResponder(t *testing.T) {
	r := newRouter()
	r.GET("/missing", func(c *gin.Context) {
		RespondError(c, apperrors.NewPrizeNotFoundError(7))
	})
	r.GET("/plain", func(c *gin.Context) {
		RespondError(c, errors.New("boom"))
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	resp := decodeError(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, apperrors.ErrCodePrizeNotFound, resp.Error.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.ErrCodeInternal, decodeError(t, w).Error.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.ErrCodeInternal, decodeError(t, w).Error.Code)
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	auth := stubAuthenticator{
		tokens: map[string]*models.Principal{
			"viewer-token": {Subject: "v", Role: models.RoleViewer, Method: models.AuthMethodPassword},
			"editor-token": {Subject: "e", Role: models.RoleEditor, Method: models.AuthMethodPassword},
		},
		initData: map[string]*models.Principal{
			"signed": {Subject: "tg:1", Role: models.RoleAdmin, Method: models.AuthMethodTelegram},
		},
	}

	r := newRouter()
	admin := r.Group("/admin", Authenticate(auth))
	admin.GET("/read", RequireRole(models.RoleViewer), func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.String(http.StatusOK, p.Subject)
	})
	admin.POST("/write", RequireRole(models.RoleEditor), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
		status  int
	}{
		{"no credentials", http.MethodGet, "/admin/read", nil, http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/admin/read", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"wrong scheme", http.MethodGet, "/admin/read", map[string]string{"Authorization": "Basic viewer-token"}, http.StatusUnauthorized},
		{"viewer reads", http.MethodGet, "/admin/read", map[string]string{"Authorization": "Bearer viewer-token"}, http.StatusOK},
		{"viewer cannot write", http.MethodPost, "/admin/write", map[string]string{"Authorization": "Bearer viewer-token"}, http.StatusForbidden},
		{"editor writes", http.MethodPost, "/admin/write", map[string]string{"Authorization": "bearer editor-token"}, http.StatusNoContent},
		{"telegram admin", http.MethodPost, "/admin/write", map[string]string{"X-Telegram-Init-Data": "signed"}, http.StatusNoContent},
		{"legacy init_data header", http.MethodGet, "/admin/read", map[string]string{"init_data": "signed"}, http.StatusOK},
		{"forged init data", http.MethodGet, "/admin/read", map[string]string{"X-Telegram-Init-Data": "forged"}, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRequireRoleWithoutAuthenticate(t *testing.T) {
	r := newRouter()
	r.GET("/x", RequireRole(models.RoleViewer), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cs := cache.NewCacheService(client)

	calls := 0
	r := newRouter()
	r.Use(RedisCache(cs, time.Minute))
	r.GET("/api/content/banners", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/api/content/broken", func(c *gin.Context) {
		calls++
		RespondError(c, errors.New("db down"))
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	first := get("/api/content/banners")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := get("/api/content/banners")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, 1, calls)

	require.NoError(t, cs.InvalidatePath(context.Background(), "/api/content/banners"))
	third := get("/api/content/banners")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	get("/api/content/broken")
	get("/api/content/broken")
	assert.Equal(t, 4, calls)
	assert.False(t, mr.Exists(cache.HTTPKey("/api/content/broken")))
}

func TestRedisCache_ServesWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	r := newRouter()
	r.Use(RedisCache(cache.NewCacheService(client), time.Minute))
	r.GET("/api/content/banners", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/content/banners", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}
