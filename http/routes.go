package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes sets up all routes for the server.
// All routes are defined in this single file for easy navigation.
func (s *Server) registerRoutes() {
	// Health and metrics
	s.echo.GET("/health", s.handleHealthCheck)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	// Uploads run image transforms, so they sit behind the upload limiter.
	var upload []echo.MiddlewareFunc
	if s.limiter != nil {
		upload = append(upload, s.limiter.Middleware())
	}

	// Image kinds
	api.POST("/kinds", s.handleCreateImageKind)
	api.GET("/kinds/:id", s.handleGetImageKind)
	api.POST("/kinds/:id/default-thumbnail", s.handleCreateDefaultThumbnail, upload...)

	// Images
	api.POST("/kinds/:id/images", s.handleUploadImage, upload...)
	api.GET("/images/:id", s.handleGetImage)
	api.PUT("/images/:id", s.handleReplaceImage, upload...)
	api.DELETE("/images/:id", s.handleDeleteImage)
}
