package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds per-client limits. Reads and writes are budgeted
// separately: every create, edit or delete rewrites the whole patient
// document, so writes get the tighter limit.
type RateLimitConfig struct {
	ReadRPS    float64
	ReadBurst  int
	WriteRPS   float64
	WriteBurst int
	// ExpiresIn drops the limiter of a client idle for this long.
	ExpiresIn time.Duration
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		ReadRPS:    100,
		ReadBurst:  200,
		WriteRPS:   10,
		WriteBurst: 20,
		ExpiresIn:  3 * time.Minute,
	}
}

const (
	readKey  = "read:"
	writeKey = "write:"
)

// classStore routes each identifier to the limiter of its request class.
type classStore struct {
	reads  echomw.RateLimiterStore
	writes echomw.RateLimiterStore
}

func (s classStore) Allow(identifier string) (bool, error) {
	if strings.HasPrefix(identifier, writeKey) {
		return s.writes.Allow(identifier)
	}
	return s.reads.Allow(identifier)
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// RateLimit limits each client IP, answering 429 with Retry-After once a
// client's read or write budget is spent.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := classStore{
		reads: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate: rate.Limit(cfg.ReadRPS), Burst: cfg.ReadBurst, ExpiresIn: cfg.ExpiresIn,
		}),
		writes: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate: rate.Limit(cfg.WriteRPS), Burst: cfg.WriteBurst, ExpiresIn: cfg.ExpiresIn,
		}),
	}

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if isWrite(c.Request().Method) {
				return writeKey + c.RealIP(), nil
			}
			return readKey + c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "client could not be identified").SetInternal(err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			rps := cfg.ReadRPS
			if strings.HasPrefix(identifier, writeKey) {
				rps = cfg.WriteRPS
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter(rps)))
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

// retryAfter is the whole number of seconds until one token is refilled.
func retryAfter(rps float64) int {
	if rps <= 0 {
		return 1
	}
	secs := int(1 / rps)
	if float64(secs) < 1/rps {
		secs++
	}
	return secs
}
