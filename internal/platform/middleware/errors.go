package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorBody is the envelope of every error response the API writes.
type ErrorBody struct {
	Detail interface{} `json:"detail"`
}

// ErrorHandler renders errors that escape the handlers as ErrorBody. An
// *echo.HTTPError keeps its status; when one wraps another (a body-limit
// failure surfacing through Bind) the innermost wins. Anything else is a
// 500 whose cause is logged, not returned.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var detail interface{} = "Internal server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			for {
				var inner *echo.HTTPError
				if he.Internal == nil || !errors.As(he.Internal, &inner) {
					break
				}
				he = inner
			}
			code = he.Code
			detail = he.Message
		}

		if code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Int("status", code).Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, ErrorBody{Detail: detail})
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}
