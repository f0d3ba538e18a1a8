package http

import (
	"context"
	"log/slog"
	"net"

	"github.com/dukerupert/afisha"
	"github.com/dukerupert/afisha/internal/validation"
	"github.com/labstack/echo/v4"
)

// Server represents the HTTP server with all its dependencies.
type Server struct {
	echo    *echo.Echo
	ln      net.Listener
	logger  *slog.Logger
	limiter *UploadLimiter

	// Configuration
	Addr          string
	MaxUploadSize int64

	// Domain services
	imageService     afisha.ImageService
	imageKindService afisha.ImageKindService

	// File storage
	store afisha.ImageStore
}

// Config holds the configuration for creating a new Server.
type Config struct {
	Addr   string
	Logger *slog.Logger

	// MaxUploadSize caps multipart image uploads in bytes.
	MaxUploadSize int64

	// Upload rate limiting per client IP. Zero disables the limiter.
	UploadRate  float64
	UploadBurst int

	// Domain services
	ImageService     afisha.ImageService
	ImageKindService afisha.ImageKindService

	// File storage
	Store afisha.ImageStore
}

// NewServer creates a new HTTP server with the given configuration.
func NewServer(cfg Config) *Server {
	s := &Server{
		Addr:             cfg.Addr,
		MaxUploadSize:    cfg.MaxUploadSize,
		logger:           cfg.Logger,
		imageService:     cfg.ImageService,
		imageKindService: cfg.ImageKindService,
		store:            cfg.Store,
	}

	if s.MaxUploadSize <= 0 {
		s.MaxUploadSize = DefaultMaxUploadSize
	}
	if cfg.UploadRate > 0 {
		s.limiter = NewUploadLimiter(s.logger, cfg.UploadRate, cfg.UploadBurst)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Validator = validation.NewValidator()

	// Register middleware and routes
	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// Echo returns the underlying Echo instance.
// Use sparingly - prefer registering routes through Server methods.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Open starts the HTTP server.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln

	go func() {
		if err := s.echo.Server.Serve(s.ln); err != nil {
			s.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("server started", slog.String("addr", s.Addr))
	return nil
}

// Close gracefully shuts down the HTTP server.
func (s *Server) Close(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Shutdown()
	}
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// URL returns the URL of the server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}
