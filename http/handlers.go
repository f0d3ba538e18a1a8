package http

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dukerupert/afisha"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// withTimeout creates a context with a timeout for handler operations.
func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), d)
}

// parseUUID parses a UUID from a string, returning a domain error if invalid.
func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, afisha.Invalid("Invalid ID format")
	}
	return id, nil
}

// requireUUIDParam extracts and parses a required UUID route parameter.
func requireUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	value := c.Param(name)
	if value == "" {
		return uuid.UUID{}, afisha.Invalid("%s is required", name)
	}
	return parseUUID(value)
}

// bind binds the request body to a struct and validates it.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return afisha.Invalid("Invalid request body")
	}
	if err := c.Validate(v); err != nil {
		return err
	}
	return nil
}

// receiveUpload writes the multipart "image" field to a temporary file.
// The returned cleanup func removes it and is safe to call on error.
func (s *Server) receiveUpload(c echo.Context) (string, func(), error) {
	noop := func() {}

	file, err := c.FormFile("image")
	if err != nil {
		return "", noop, afisha.Invalid("image file is required")
	}
	if file.Size > s.MaxUploadSize {
		return "", noop, afisha.Invalid("image file exceeds maximum size of %d bytes", s.MaxUploadSize)
	}

	src, err := file.Open()
	if err != nil {
		return "", noop, afisha.Internal("Failed to read uploaded file", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "afisha-upload-*")
	if err != nil {
		return "", noop, afisha.Internal("Failed to buffer uploaded file", err)
	}
	cleanup := func() {
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove upload buffer",
				slog.String("path", tmp.Name()),
				slog.String("error", err.Error()),
			)
		}
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		cleanup()
		return "", noop, afisha.Internal("Failed to buffer uploaded file", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", noop, afisha.Internal("Failed to buffer uploaded file", err)
	}

	return tmp.Name(), cleanup, nil
}

// discardFiles removes stored files that no record will reference.
func (s *Server) discardFiles(ctx context.Context, c echo.Context, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.store.Remove(ctx, p); err != nil {
			s.log(c).Warn("failed to remove orphaned file",
				slog.String("path", p),
				slog.String("error", err.Error()),
			)
		}
	}
}

// log returns the request-scoped logger.
func (s *Server) log(c echo.Context) *slog.Logger {
	return s.getRequestLogger(c)
}

func (s *Server) handleHealthCheck(c echo.Context) error {
	return RespondOK(c, map[string]string{"status": "ok"})
}
