package http

import (
	"log/slog"

	"github.com/dukerupert/afisha"
	"github.com/dukerupert/afisha/internal/imaging"
	"github.com/dukerupert/afisha/internal/storage"
	"github.com/labstack/echo/v4"
)

// CreateImageKindRequest is the request payload for creating an image kind.
type CreateImageKindRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	BaseDir     string `json:"baseDir" validate:"required,max=200"`
	ThumbWidth  int    `json:"thumbWidth" validate:"gt=0"`
	ThumbHeight int    `json:"thumbHeight" validate:"gt=0"`
	Transform   int    `json:"transform" validate:"gte=0"`
}

// ImageKindResponse is an image kind with the public URL of its placeholder.
type ImageKindResponse struct {
	*afisha.ImageKind
	DefaultThumbURL string `json:"defaultThumbUrl,omitempty"`
}

func (s *Server) imageKindResponse(kind *afisha.ImageKind) ImageKindResponse {
	resp := ImageKindResponse{ImageKind: kind}
	if kind.DefaultThumbPath != "" {
		resp.DefaultThumbURL = s.store.FullURL(kind.DefaultThumbPath)
	}
	return resp
}

func (s *Server) handleCreateImageKind(c echo.Context) error {
	ctx, cancel := withTimeout(c, DefaultTimeout)
	defer cancel()

	var req CreateImageKindRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	kind := &afisha.ImageKind{
		Title:       req.Title,
		BaseDir:     req.BaseDir,
		ThumbWidth:  req.ThumbWidth,
		ThumbHeight: req.ThumbHeight,
		Transform:   afisha.TransformKind(req.Transform),
	}
	if kind.Transform == 0 {
		kind.Transform = afisha.TransformFitWithinBox
	}

	if err := storage.ValidateSubdir(req.BaseDir); err != nil {
		return afisha.Invalid("baseDir must be a relative path inside the store")
	}

	// Reject kinds whose thumbnails could never be produced
	if _, err := imaging.FromSpec(kind.ThumbnailSpec()); err != nil {
		return afisha.Invalid("%s", afisha.ErrorMessage(err))
	}

	if err := s.imageKindService.CreateImageKind(ctx, kind); err != nil {
		return err
	}

	s.log(c).Info("image kind created",
		slog.String("kind_id", kind.ID.String()),
		slog.String("title", kind.Title),
	)

	return RespondCreated(c, s.imageKindResponse(kind))
}

func (s *Server) handleGetImageKind(c echo.Context) error {
	ctx, cancel := withTimeout(c, DefaultTimeout)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	kind, err := s.imageKindService.FindImageKindByID(ctx, id)
	if err != nil {
		return err
	}

	return RespondOK(c, s.imageKindResponse(kind))
}

func (s *Server) handleCreateDefaultThumbnail(c echo.Context) error {
	ctx, cancel := withTimeout(c, UploadTimeout)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	kind, err := s.imageKindService.FindImageKindByID(ctx, id)
	if err != nil {
		return err
	}

	thumb, err := s.store.DefaultThumbnail(ctx, *kind)
	if err != nil {
		return err
	}
	if thumb == nil {
		return afisha.Internal("Failed to render default thumbnail", nil)
	}

	updated, err := s.imageKindService.SetDefaultThumbnail(ctx, kind.ID, thumb.RelativePath)
	if err != nil {
		s.discardFiles(ctx, c, thumb.RelativePath)
		return err
	}

	s.log(c).Info("default thumbnail created",
		slog.String("kind_id", kind.ID.String()),
		slog.String("path", thumb.RelativePath),
	)

	return RespondOK(c, s.imageKindResponse(updated))
}
