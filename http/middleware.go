package http

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	// DefaultTimeout bounds database-only handlers.
	DefaultTimeout = 5 * time.Second

	// UploadTimeout bounds handlers that store and transform images.
	UploadTimeout = 30 * time.Second

	// DefaultMaxUploadSize is used when Config.MaxUploadSize is zero.
	DefaultMaxUploadSize = 10 * 1024 * 1024 // 10MB
)

// registerMiddleware sets up all middleware for the server.
func (s *Server) registerMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Logger middleware with request ID
	s.echo.Use(s.requestLoggerMiddleware())

	// Prometheus request metrics
	s.echo.Use(metricsMiddleware())

	// Custom error handler
	s.echo.HTTPErrorHandler = s.httpErrorHandler
}

// requestLoggerMiddleware creates a middleware that logs requests with context.
func (s *Server) requestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			// Create request-scoped logger
			logger := s.logger.With(
				slog.String("request_id", requestID),
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
			)
			c.Set("logger", logger)

			err := next(c)
			if err != nil {
				// Render now so the logged status is the real one
				c.Error(err)
			}

			duration := time.Since(start)
			status := c.Response().Status

			logAttrs := []any{
				slog.Int("status", status),
				slog.Duration("duration", duration),
			}

			if err != nil {
				logAttrs = append(logAttrs, slog.String("error", err.Error()))
			}

			switch {
			case status >= 500:
				logger.Error("request completed with server error", logAttrs...)
			case status >= 400:
				logger.Warn("request completed with client error", logAttrs...)
			default:
				logger.Info("request completed", logAttrs...)
			}

			return nil
		}
	}
}

// getRequestLogger retrieves the request-scoped logger from context.
func (s *Server) getRequestLogger(c echo.Context) *slog.Logger {
	if logger, ok := c.Get("logger").(*slog.Logger); ok {
		return logger
	}
	return s.logger
}
