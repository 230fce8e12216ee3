package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
)

// DefaultBodyLimit applies when the configured limit is empty or malformed.
const DefaultBodyLimit = "1M"

// BodyLimit rejects request bodies larger than limit ("512K", "1M", a bare
// number of bytes) with 413, whether or not Content-Length is declared.
func BodyLimit(limit string) echo.MiddlewareFunc {
	if _, err := bytes.Parse(limit); err != nil || limit == "" {
		limit = DefaultBodyLimit
	}
	return echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{Limit: limit})
}
