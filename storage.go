package afisha

import (
	"context"
	"io"
)

// Default fanout limits for the sharded directory tree.
const (
	DefaultDirFanout  = 99
	DefaultFileFanout = 999999999
)

// StoreConfig holds configuration for the sharded file store.
type StoreConfig struct {
	// BaseDir is the absolute root every relative path resolves against.
	// It must already exist.
	BaseDir string `validate:"required,dir"`

	// PublicURLPrefix is prepended to a relative path to form a servable URL.
	PublicURLPrefix string

	// ImageSubdir is an optional namespace applied to all image placements.
	ImageSubdir string

	// DirFanout is the largest shard directory label (default 99).
	DirFanout int `validate:"gte=0"`

	// FileFanout is the largest leaf filename label (default 999999999).
	FileFanout int `validate:"gte=0"`

	// ReplicaProvider is "" (no replica) or "s3".
	ReplicaProvider string `validate:"omitempty,oneof=none s3"`

	// S3 replica configuration
	S3Bucket string `validate:"required_if=ReplicaProvider s3"`
	S3Region string
	S3Prefix string
}

// ImageStore places images into the sharded tree and resolves stored paths.
type ImageStore interface {
	// UploadImage stores a thumbnail and a full-size copy of source under
	// the kind's subdirectory. Returns nil without error when source is
	// not a storable image.
	UploadImage(ctx context.Context, source string, kind ImageKind) (*ImageUpload, error)

	// DefaultThumbnail stores a placeholder sized to the kind's thumbnail box.
	DefaultThumbnail(ctx context.Context, kind ImageKind) (*ImageMetadata, error)

	// FullURL returns the public URL for a relative path.
	FullURL(relativePath string) string

	FileRemover
}

// FileRemover deletes stored files by relative path.
type FileRemover interface {
	// Remove deletes the file. Returns nil if the file doesn't exist.
	Remove(ctx context.Context, relativePath string) error
}

// Replica mirrors stored files to secondary storage keyed by relative path.
type Replica interface {
	// Put uploads the content under key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes key. Returns nil if the key doesn't exist.
	Delete(ctx context.Context, key string) error
}
