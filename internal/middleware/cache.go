package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/stagelink/internal/config"
)

var errUnexpectedReply = errors.New("unexpected redis reply")

// cachedResponse is what the cache stores per key.
type cachedResponse struct {
	Status int         `json:"s"`
	Header http.Header `json:"h"`
	Body   []byte      `json:"b"`
}

// teeWriter forwards the response and keeps a copy of up to limit bytes.
// overflow is set once the body outgrows limit.
type teeWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// cacheKeyFrom hashes the parts of the request named by the strategy, an
// underscore separated list of method, route and query ("route_query" by
// default).  Path parameter values always count as part of the route.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	route := c.Path()
	if route == "" {
		route = r.URL.Path
	}
	if vals := c.ParamValues(); len(c.ParamNames()) > 0 {
		route += "?" + strings.Join(vals, "/")
	}

	strategy := cfg.KeyStrategy
	if strategy == "" {
		strategy = "route_query"
	}
	var parts []string
	for _, p := range strategyParts(strategy, "method", "route", "query") {
		switch p {
		case "method":
			parts = append(parts, "method", r.Method)
		case "route":
			parts = append(parts, "route", route)
		case "query":
			parts = append(parts, "q", r.URL.RawQuery)
		}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

func encodeEntry(status int, header http.Header, body []byte) ([]byte, error) {
	return json.Marshal(cachedResponse{Status: status, Header: header, Body: body})
}

func decodeEntry(bs []byte) (cachedResponse, bool) {
	var e cachedResponse
	if err := json.Unmarshal(bs, &e); err != nil || e.Status == 0 {
		return cachedResponse{}, false
	}
	return e, true
}

// NewRedisCache caches 200 responses of the public show routes, headers
// included, so a hit is byte-identical to the original response.  Requests
// carrying an Authorization header bypass the cache.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !cfg.Methods[strings.ToUpper(req.Method)] || req.Header.Get("Authorization") != "" {
				return next(c)
			}
			key := cacheKeyFrom(cfg, c)

			if bs, err := rdb.Get(req.Context(), key).Bytes(); err == nil {
				if e, ok := decodeEntry(bs); ok {
					return replay(c, e)
				}
			}

			tw := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = tw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if tw.status != http.StatusOK || tw.overflow {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			if payload, err := encodeEntry(tw.status, hdr, tw.buf.Bytes()); err == nil {
				// the request context may already be done
				_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
			}
			return nil
		}
	}
}

func replay(c echo.Context, e cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range e.Header {
		if strings.EqualFold(k, echo.HeaderContentLength) {
			continue
		}
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(e.Status)
	_, err := c.Response().Write(e.Body)
	return err
}
