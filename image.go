package afisha

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ImageFormat identifies a storable image encoding. The numeric values are
// persisted in the images.content_type column and must not be reordered.
type ImageFormat int

const (
	FormatUnknown ImageFormat = iota
	FormatJPEG
	FormatGIF
	FormatPNG
)

// String returns the lowercase format name.
func (f ImageFormat) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatGIF:
		return "gif"
	case FormatPNG:
		return "png"
	default:
		return "unknown"
	}
}

// ContentType returns the MIME type for the format, or
// "application/octet-stream" for FormatUnknown.
func (f ImageFormat) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatPNG:
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// ImageMetadata describes the result of inspecting a file.
//
// IsImage=false is a normal outcome for non-image input; Width, Height and
// Format are then zero values. RelativePath is only set for files that live
// inside the store.
type ImageMetadata struct {
	IsImage      bool        `json:"isImage"`
	Format       ImageFormat `json:"format"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	RelativePath string      `json:"relativePath,omitempty"`
}

// TransformKind selects a registered transform constructor.
type TransformKind int

// TransformFitWithinBox resizes preserving aspect ratio so the result fits
// inside the target box.
const TransformFitWithinBox TransformKind = 1

// TransformSpec is an immutable resize policy.
type TransformSpec struct {
	Kind   TransformKind `json:"kind"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
}

// ImageKind groups images that share a storage subdirectory and a
// thumbnail policy (for example event posters or performer photos).
type ImageKind struct {
	ID               uuid.UUID     `json:"id"`
	Title            string        `json:"title"`
	BaseDir          string        `json:"baseDir"`
	ThumbWidth       int           `json:"thumbWidth"`
	ThumbHeight      int           `json:"thumbHeight"`
	Transform        TransformKind `json:"transform"`
	DefaultThumbPath string        `json:"defaultThumbPath,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// ThumbnailSpec returns the transform policy used for the kind's thumbnails.
func (k ImageKind) ThumbnailSpec() TransformSpec {
	return TransformSpec{Kind: k.Transform, Width: k.ThumbWidth, Height: k.ThumbHeight}
}

// ImageUpload holds the two artifacts produced for one uploaded image.
type ImageUpload struct {
	Image     ImageMetadata `json:"image"`
	Thumbnail ImageMetadata `json:"thumbnail"`
}

// Image is the persisted record of an uploaded image and its thumbnail.
type Image struct {
	ID          uuid.UUID   `json:"id"`
	KindID      uuid.UUID   `json:"kindId"`
	ImagePath   string      `json:"imagePath"`
	ImageWidth  int         `json:"imageWidth"`
	ImageHeight int         `json:"imageHeight"`
	ThumbPath   string      `json:"thumbPath"`
	ThumbWidth  int         `json:"thumbWidth"`
	ThumbHeight int         `json:"thumbHeight"`
	ContentType ImageFormat `json:"contentType"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// ApplyUpload copies the stored paths and dimensions of an upload onto the
// record.
func (i *Image) ApplyUpload(u ImageUpload) {
	i.ImagePath = u.Image.RelativePath
	i.ImageWidth = u.Image.Width
	i.ImageHeight = u.Image.Height
	i.ThumbPath = u.Thumbnail.RelativePath
	i.ThumbWidth = u.Thumbnail.Width
	i.ThumbHeight = u.Thumbnail.Height
	i.ContentType = u.Image.Format
}

// ImageService defines persistence operations for image records.
type ImageService interface {
	// FindImageByID retrieves an image by its ID.
	// Returns ENOTFOUND if the image does not exist.
	FindImageByID(ctx context.Context, id uuid.UUID) (*Image, error)

	// CreateImage creates a new image record.
	// Note: the files are produced by ImageStore.UploadImage beforehand.
	CreateImage(ctx context.Context, img *Image) error

	// ReplaceImageFiles points an existing record at a new upload and
	// deletes the files it previously referenced.
	// Returns ENOTFOUND if the image does not exist.
	ReplaceImageFiles(ctx context.Context, id uuid.UUID, upload ImageUpload) (*Image, error)

	// DeleteImage deletes the record and its files.
	// Returns ENOTFOUND if the image does not exist.
	DeleteImage(ctx context.Context, id uuid.UUID) error
}

// ImageKindService defines persistence operations for image kinds.
type ImageKindService interface {
	// FindImageKindByID retrieves an image kind by its ID.
	// Returns ENOTFOUND if the kind does not exist.
	FindImageKindByID(ctx context.Context, id uuid.UUID) (*ImageKind, error)

	// CreateImageKind creates a new image kind.
	CreateImageKind(ctx context.Context, kind *ImageKind) error

	// SetDefaultThumbnail stores a new placeholder thumbnail path and
	// deletes the previous file.
	// Returns ENOTFOUND if the kind does not exist.
	SetDefaultThumbnail(ctx context.Context, id uuid.UUID, path string) (*ImageKind, error)
}
