package middleware

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/greenfield-univ/library-api/internal/config"
)

// cachedPayload is the stored form of a response: status, content type and
// the raw body bytes.
type cachedPayload struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter tees the handler's response into a buffer so it can be
// stored after the handler runs.
type captureWriter struct {
	http.ResponseWriter
	buf    *bytes.Buffer
	status int
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// NewRedisCache caches successful responses for the configured methods.
// Cache keys mix the route, query string and the caller's identity, so
// per-user payloads never leak across accounts.  With no Redis client or
// when disabled, the middleware is a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !cfg.Methods[req.Method] {
				return next(c)
			}

			key := buildCacheKey(cfg, c)
			ctx := req.Context()

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var payload cachedPayload
				if jsonErr := json.Unmarshal(raw, &payload); jsonErr == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(payload.Status, payload.ContentType, payload.Body)
				}
				// Corrupt entry; drop it and fall through to the handler.
				rdb.Del(ctx, key)
			}

			buf := &bytes.Buffer{}
			cw := &captureWriter{ResponseWriter: c.Response().Writer, buf: buf, status: http.StatusOK}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			body := buf.Bytes()
			if cw.status < 200 || cw.status >= 300 {
				return nil
			}
			if cfg.MaxBodyBytes > 0 && len(body) > cfg.MaxBodyBytes {
				return nil
			}

			payload := cachedPayload{
				Status:      cw.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        body,
			}
			if raw, err := json.Marshal(payload); err == nil {
				rdb.Set(ctx, key, raw, cfg.TTL)
			}
			return nil
		}
	}
}

func buildCacheKey(cfg config.CacheConfig, c echo.Context) string {
	req := c.Request()
	raw := req.Method + "|" + req.URL.Path + "|" + req.URL.RawQuery
	if cfg.KeyStrategy != "route_query" {
		principal := Email(c)
		if principal == "" {
			principal = "anon"
		}
		raw += "|" + principal
	}
	sum := sha1.Sum([]byte(raw))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}
