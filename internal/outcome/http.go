package outcome

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorHandler returns an echo HTTPErrorHandler that renders *Failure
// values in the uniform error envelope and leaves echo's own HTTP errors
// intact. Anything else is an unexpected internal error: it is logged and
// surfaced as a generic 500 rather than being interpreted as success.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var f *Failure
		if errors.As(err, &f) {
			body := map[string]interface{}{
				"type":    f.Kind,
				"code":    f.Code,
				"message": f.Message,
			}
			if f.Detail != nil {
				body["detail"] = f.Detail
			}
			if jsonErr := c.JSON(f.HTTPStatus(), body); jsonErr != nil {
				logger.Error().Err(jsonErr).Msg("failed to write failure response")
			}
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := he.Message
			if s, ok := msg.(string); ok {
				msg = map[string]interface{}{"type": "error", "code": "HTTP_ERROR", "message": s}
			}
			if jsonErr := c.JSON(he.Code, msg); jsonErr != nil {
				logger.Error().Err(jsonErr).Msg("failed to write error response")
			}
			return
		}

		rid, _ := c.Get("request_id").(string)
		logger.Error().Err(err).Str("request_id", rid).Msg("unhandled error")
		_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"type":    "error",
			"code":    "INTERNAL_ERROR",
			"message": "internal server error",
		})
	}
}
