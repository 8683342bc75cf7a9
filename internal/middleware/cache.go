package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/stagepass/seat-reservation/internal/config"
)

// cachedPayload is the envelope stored in Redis for a cached response.
type cachedPayload struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter tees the response body into a buffer so it can be
// stored after the handler runs.
type captureWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
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

// NewRedisCache returns a read-through response cache for idempotent
// endpoints. Seat maps and schedule listings are the hot paths here:
// they are read far more often than they change, and a short TTL keeps
// the map close to live without every browser hitting MySQL. Only
// successful responses up to MaxBodyBytes are stored, and Redis errors
// fall through to the handler.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[c.Request().Method] {
				return next(c)
			}

			key := cacheKeyFrom(cfg, c)
			ctx := c.Request().Context()

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if payload, err := decodePayload(raw); err == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().Header().Set(echo.HeaderContentType, payload.ContentType)
					c.Response().WriteHeader(payload.Status)
					_, _ = c.Response().Write(payload.Body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status >= 200 && cw.status < 300 && cw.buf.Len() <= cfg.MaxBodyBytes {
				payload := cachedPayload{
					Status:      cw.status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        cw.buf.Bytes(),
				}
				if raw, err := encodePayload(payload); err == nil {
					_ = rdb.Set(ctx, key, raw, cfg.TTL).Err()
				}
			}
			return nil
		}
	}
}

func encodePayload(p cachedPayload) ([]byte, error) {
	return json.Marshal(p)
}

func decodePayload(raw []byte) (cachedPayload, error) {
	var p cachedPayload
	err := json.Unmarshal(raw, &p)
	return p, err
}

// cacheKeyFrom builds a deterministic key from the request. Query
// parameters are sorted so logically identical URLs share an entry.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	req := c.Request()
	parts := []string{cfg.Prefix, req.Method, req.URL.Path}

	switch cfg.KeyStrategy {
	case "route":
		// path only
	case "route_user":
		parts = append(parts, currentUserID(c))
	default: // route_query
		q := req.URL.Query()
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var qb strings.Builder
		for _, k := range keys {
			vals := q[k]
			sort.Strings(vals)
			qb.WriteString(k)
			qb.WriteByte('=')
			qb.WriteString(strings.Join(vals, ","))
			qb.WriteByte('&')
		}
		if qb.Len() > 0 {
			sum := sha256.Sum256([]byte(qb.String()))
			parts = append(parts, hex.EncodeToString(sum[:8]))
		}
	}
	return strings.Join(parts, ":")
}
