package mock

import (
	"context"

	"github.com/dukerupert/afisha"
)

// Compile-time interface check
var _ afisha.ImageStore = (*ImageStore)(nil)

// ImageStore is a mock implementation of afisha.ImageStore.
type ImageStore struct {
	UploadImageFn      func(ctx context.Context, source string, kind afisha.ImageKind) (*afisha.ImageUpload, error)
	DefaultThumbnailFn func(ctx context.Context, kind afisha.ImageKind) (*afisha.ImageMetadata, error)
	FullURLFn          func(relativePath string) string
	RemoveFn           func(ctx context.Context, relativePath string) error
}

func (s *ImageStore) UploadImage(ctx context.Context, source string, kind afisha.ImageKind) (*afisha.ImageUpload, error) {
	if s.UploadImageFn != nil {
		return s.UploadImageFn(ctx, source, kind)
	}
	return nil, nil
}

func (s *ImageStore) DefaultThumbnail(ctx context.Context, kind afisha.ImageKind) (*afisha.ImageMetadata, error) {
	if s.DefaultThumbnailFn != nil {
		return s.DefaultThumbnailFn(ctx, kind)
	}
	return nil, nil
}

func (s *ImageStore) FullURL(relativePath string) string {
	if s.FullURLFn != nil {
		return s.FullURLFn(relativePath)
	}
	return "https://mock-storage.example.com/" + relativePath
}

func (s *ImageStore) Remove(ctx context.Context, relativePath string) error {
	if s.RemoveFn != nil {
		return s.RemoveFn(ctx, relativePath)
	}
	return nil
}
