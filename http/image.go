package http

import (
	"log/slog"

	"github.com/dukerupert/afisha"
	"github.com/labstack/echo/v4"
)

// ImageResponse is an image record with public URLs for both files.
type ImageResponse struct {
	*afisha.Image
	ImageURL string `json:"imageUrl"`
	ThumbURL string `json:"thumbUrl"`
}

func (s *Server) imageResponse(img *afisha.Image) ImageResponse {
	return ImageResponse{
		Image:    img,
		ImageURL: s.store.FullURL(img.ImagePath),
		ThumbURL: s.store.FullURL(img.ThumbPath),
	}
}

func (s *Server) handleUploadImage(c echo.Context) error {
	ctx, cancel := withTimeout(c, UploadTimeout)
	defer cancel()

	kindID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	kind, err := s.imageKindService.FindImageKindByID(ctx, kindID)
	if err != nil {
		return err
	}

	source, cleanup, err := s.receiveUpload(c)
	defer cleanup()
	if err != nil {
		return err
	}

	upload, err := s.store.UploadImage(ctx, source, *kind)
	if err != nil {
		return err
	}
	if upload == nil {
		return afisha.Invalid("Uploaded file is not a supported image")
	}

	img := &afisha.Image{KindID: kind.ID}
	img.ApplyUpload(*upload)

	if err := s.imageService.CreateImage(ctx, img); err != nil {
		s.discardFiles(ctx, c, upload.Image.RelativePath, upload.Thumbnail.RelativePath)
		return err
	}

	s.log(c).Info("image uploaded",
		slog.String("image_id", img.ID.String()),
		slog.String("kind_id", kind.ID.String()),
		slog.String("path", img.ImagePath),
	)

	return RespondCreated(c, s.imageResponse(img))
}

func (s *Server) handleGetImage(c echo.Context) error {
	ctx, cancel := withTimeout(c, DefaultTimeout)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	img, err := s.imageService.FindImageByID(ctx, id)
	if err != nil {
		return err
	}

	return RespondOK(c, s.imageResponse(img))
}

func (s *Server) handleReplaceImage(c echo.Context) error {
	ctx, cancel := withTimeout(c, UploadTimeout)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	current, err := s.imageService.FindImageByID(ctx, id)
	if err != nil {
		return err
	}

	kind, err := s.imageKindService.FindImageKindByID(ctx, current.KindID)
	if err != nil {
		return err
	}

	source, cleanup, err := s.receiveUpload(c)
	defer cleanup()
	if err != nil {
		return err
	}

	upload, err := s.store.UploadImage(ctx, source, *kind)
	if err != nil {
		return err
	}
	if upload == nil {
		return afisha.Invalid("Uploaded file is not a supported image")
	}

	img, err := s.imageService.ReplaceImageFiles(ctx, id, *upload)
	if err != nil {
		s.discardFiles(ctx, c, upload.Image.RelativePath, upload.Thumbnail.RelativePath)
		return err
	}

	s.log(c).Info("image replaced",
		slog.String("image_id", img.ID.String()),
		slog.String("path", img.ImagePath),
	)

	return RespondOK(c, s.imageResponse(img))
}

func (s *Server) handleDeleteImage(c echo.Context) error {
	ctx, cancel := withTimeout(c, DefaultTimeout)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.imageService.DeleteImage(ctx, id); err != nil {
		return err
	}

	s.log(c).Info("image deleted", slog.String("image_id", id.String()))

	return RespondNoContent(c)
}
