package mock

import (
	"context"
	"time"

	"github.com/dukerupert/afisha"
	"github.com/google/uuid"
)

// Compile-time interface check
var _ afisha.ImageService = (*ImageService)(nil)

// ImageService is a mock implementation of afisha.ImageService.
type ImageService struct {
	FindImageByIDFn     func(ctx context.Context, id uuid.UUID) (*afisha.Image, error)
	CreateImageFn       func(ctx context.Context, img *afisha.Image) error
	ReplaceImageFilesFn func(ctx context.Context, id uuid.UUID, upload afisha.ImageUpload) (*afisha.Image, error)
	DeleteImageFn       func(ctx context.Context, id uuid.UUID) error
}

func (s *ImageService) FindImageByID(ctx context.Context, id uuid.UUID) (*afisha.Image, error) {
	if s.FindImageByIDFn != nil {
		return s.FindImageByIDFn(ctx, id)
	}
	return nil, afisha.NotFound("Image not found")
}

func (s *ImageService) CreateImage(ctx context.Context, img *afisha.Image) error {
	if s.CreateImageFn != nil {
		return s.CreateImageFn(ctx, img)
	}
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	img.CreatedAt = time.Now()
	img.UpdatedAt = img.CreatedAt
	return nil
}

func (s *ImageService) ReplaceImageFiles(ctx context.Context, id uuid.UUID, upload afisha.ImageUpload) (*afisha.Image, error) {
	if s.ReplaceImageFilesFn != nil {
		return s.ReplaceImageFilesFn(ctx, id, upload)
	}
	return nil, afisha.NotFound("Image not found")
}

func (s *ImageService) DeleteImage(ctx context.Context, id uuid.UUID) error {
	if s.DeleteImageFn != nil {
		return s.DeleteImageFn(ctx, id)
	}
	return nil
}

// Compile-time interface check
var _ afisha.ImageKindService = (*ImageKindService)(nil)

// ImageKindService is a mock implementation of afisha.ImageKindService.
type ImageKindService struct {
	FindImageKindByIDFn   func(ctx context.Context, id uuid.UUID) (*afisha.ImageKind, error)
	CreateImageKindFn     func(ctx context.Context, kind *afisha.ImageKind) error
	SetDefaultThumbnailFn func(ctx context.Context, id uuid.UUID, path string) (*afisha.ImageKind, error)
}

func (s *ImageKindService) FindImageKindByID(ctx context.Context, id uuid.UUID) (*afisha.ImageKind, error) {
	if s.FindImageKindByIDFn != nil {
		return s.FindImageKindByIDFn(ctx, id)
	}
	return nil, afisha.NotFound("Image kind not found")
}

func (s *ImageKindService) CreateImageKind(ctx context.Context, kind *afisha.ImageKind) error {
	if s.CreateImageKindFn != nil {
		return s.CreateImageKindFn(ctx, kind)
	}
	if kind.ID == uuid.Nil {
		kind.ID = uuid.New()
	}
	kind.CreatedAt = time.Now()
	return nil
}

func (s *ImageKindService) SetDefaultThumbnail(ctx context.Context, id uuid.UUID, path string) (*afisha.ImageKind, error) {
	if s.SetDefaultThumbnailFn != nil {
		return s.SetDefaultThumbnailFn(ctx, id, path)
	}
	return nil, afisha.NotFound("Image kind not found")
}
