package httpx

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorHandler renders errors as {"error": message}. Non-HTTP errors become
// 500 and are logged with the request id; their text never reaches the
// client.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var body interface{} = map[string]string{"error": "internal server error"}

		var he *echo.HTTPError
		var ve *ValidationError
		switch {
		case errors.As(err, &he):
			code = he.Code
			switch m := he.Message.(type) {
			case string:
				body = map[string]string{"error": m}
			case error:
				body = map[string]string{"error": m.Error()}
			default:
				body = m
			}
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			body = map[string]string{"error": ve.Error()}
		}

		if code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", code).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
