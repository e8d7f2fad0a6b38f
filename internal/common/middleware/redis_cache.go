package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"promo-backend/internal/common/cache"
	apperrors "promo-backend/internal/common/errors"
	"promo-backend/internal/common/logger"
)

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// RedisCache caches successful GET responses for ttl, keyed by request URI.
// Cache failures never fail the request.
func RedisCache(cs *cache.CacheService, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cache.HTTPKey(c.Request.URL.RequestURI())

		var entry cachedResponse
		err := cs.Get(c.Request.Context(), key, &entry)
		if err != nil && !errors.Is(err, cache.ErrMiss) {
			logger.Warn().Err(apperrors.NewCacheError("read response", err)).Str("key", key).Msg("Response cache unavailable")
		}
		if err == nil {
			c.Header("X-Cache", "HIT")
			contentType := entry.ContentType
			if contentType == "" {
				contentType = "application/json; charset=utf-8"
			}
			c.Data(entry.Status, contentType, entry.Body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Header("X-Cache", "MISS")
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 || len(c.Errors) > 0 {
			return
		}

		entry = cachedResponse{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cs.Set(ctx, key, entry, ttl); err != nil {
			logger.Warn().Err(apperrors.NewCacheError("store response", err)).Str("key", key).Msg("Failed to store cached response")
		}
	}
}
