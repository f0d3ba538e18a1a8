package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/afisha"
	"github.com/labstack/echo/v4"
)

// errorStatusCode maps domain error codes to HTTP status codes.
func errorStatusCode(code string) int {
	switch code {
	case afisha.ENOTFOUND:
		return http.StatusNotFound
	case afisha.EINVALID:
		return http.StatusBadRequest
	case afisha.ECONFLICT:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse represents the JSON error response format.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HandleError converts domain errors to appropriate HTTP responses.
// It logs internal errors and returns user-safe messages.
func HandleError(c echo.Context, logger *slog.Logger, err error) error {
	code := afisha.ErrorCode(err)
	message := afisha.ErrorMessage(err)
	fields := afisha.ErrorFields(err)
	status := errorStatusCode(code)

	// Configuration errors are server faults as well
	if code == afisha.EINTERNAL || code == afisha.ECONFIG {
		logger.Error("internal error",
			slog.String("code", code),
			slog.String("error", err.Error()),
			slog.String("path", c.Path()),
			slog.String("method", c.Request().Method),
		)
		// Don't expose internal error details to clients
		message = "An internal error occurred."
	}

	return c.JSON(status, ErrorResponse{
		Error:   code,
		Message: message,
		Fields:  fields,
	})
}

// httpErrorHandler handles errors and returns appropriate responses.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	// Echo errors (404 route, 405, 413, 429) keep their status
	var he *echo.HTTPError
	if errors.As(err, &he) {
		_ = c.JSON(he.Code, ErrorResponse{
			Error:   http.StatusText(he.Code),
			Message: httpErrorMessage(he),
		})
		return
	}

	_ = HandleError(c, s.getRequestLogger(c), err)
}

func httpErrorMessage(he *echo.HTTPError) string {
	if m, ok := he.Message.(string); ok {
		return m
	}
	return http.StatusText(he.Code)
}
