package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/amtorres/mindmap-api/internal/config"
)

// cachedResponse is the envelope stored in Redis for a cacheable response.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyRecorder captures the response body while forwarding it to the client.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (br *bodyRecorder) WriteHeader(code int) {
	br.status = code
	br.ResponseWriter.WriteHeader(code)
}

func (br *bodyRecorder) Write(b []byte) (int, error) {
	if br.limit <= 0 || br.size+int64(len(b)) <= br.limit {
		br.buf.Write(b)
	}
	br.size += int64(len(b))
	return br.ResponseWriter.Write(b)
}

// cacheKey builds the Redis key for a request. Gated responses are always
// per-owner, so the authenticated user id is part of the key; two users
// hitting the same route must never share a cached body. The concrete URL
// path is used, not the registered route pattern: /api/mindmaps/1 and
// /api/mindmaps/2 are distinct resources and must never share an entry.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	var uid uint64
	if id, ok := Identity(c); ok {
		uid = id.UserID
	}
	raw := fmt.Sprintf("u%d:%s:%s:q=%s", uid, c.Request().Method, c.Request().URL.Path, c.Request().URL.RawQuery)
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// ResponseCache returns a TTL-bounded Redis cache for idempotent endpoints.
// With caching disabled or no Redis client available it degrades to a no-op
// so the service keeps working without the cache tier. Entries expire on
// their own; writes do not invalidate eagerly.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKey(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var entry cachedResponse
				if json.Unmarshal(bs, &entry) == nil && entry.Status != 0 {
					if entry.ContentType != "" {
						c.Response().Header().Set(echo.HeaderContentType, entry.ContentType)
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(entry.Status)
					_, _ = c.Response().Write(entry.Body)
					return nil
				}
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if rec.status == http.StatusOK && (rec.limit <= 0 || rec.size <= rec.limit) {
				entry := cachedResponse{
					Status:      rec.status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        rec.buf.Bytes(),
				}
				if bs, err := json.Marshal(entry); err == nil {
					_ = rdb.SetEx(context.Background(), key, bs, ttl).Err()
				}
			}
			return nil
		}
	}
}
