package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/afisha"
	"github.com/dukerupert/afisha/internal/imaging"
	"github.com/dukerupert/afisha/internal/validation"
	"github.com/gabriel-vasile/mimetype"
)

// Compile-time interface check
var _ afisha.ImageStore = (*Store)(nil)

// Store is the sharded image store: it places files under a base
// directory, copies or transforms images into it and resolves stored
// paths to files and URLs.
type Store struct {
	cfg     afisha.StoreConfig
	placer  *Placer
	logger  *slog.Logger
	replica afisha.Replica
}

// Option configures a Store.
type Option func(*Store)

// WithReplica mirrors every stored file to r.
func WithReplica(r afisha.Replica) Option {
	return func(s *Store) {
		s.replica = r
	}
}

// New creates a store instance based on the configuration, including the
// S3 replica when ReplicaProvider is "s3".
func New(ctx context.Context, logger *slog.Logger, cfg afisha.StoreConfig) (*Store, error) {
	var opts []Option

	switch cfg.ReplicaProvider {
	case "s3":
		// Load AWS configuration
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.S3Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		opts = append(opts, WithReplica(NewS3Replica(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix)))

		logger.Info("initialized S3 replica",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
	}

	store, err := NewStore(logger, cfg, opts...)
	if err != nil {
		return nil, err
	}

	logger.Info("initialized image store",
		slog.String("base_dir", cfg.BaseDir),
		slog.String("url", cfg.PublicURLPrefix),
		slog.String("image_subdir", cfg.ImageSubdir),
	)

	return store, nil
}

// NewStore validates cfg and creates a store. BaseDir must be an existing
// absolute directory.
func NewStore(logger *slog.Logger, cfg afisha.StoreConfig, opts ...Option) (*Store, error) {
	if err := validation.NewValidator().Validate(cfg); err != nil {
		return nil, afisha.WrapError(afisha.ECONFIG, "Invalid store configuration", err)
	}
	if !filepath.IsAbs(cfg.BaseDir) {
		return nil, afisha.Configuration("store base directory must be absolute: %s", cfg.BaseDir)
	}
	if _, err := splitSubdir(cfg.ImageSubdir); err != nil {
		return nil, afisha.WrapError(afisha.ECONFIG, "Invalid image subdirectory", err)
	}

	if cfg.DirFanout == 0 {
		cfg.DirFanout = afisha.DefaultDirFanout
	}
	if cfg.FileFanout == 0 {
		cfg.FileFanout = afisha.DefaultFileFanout
	}
	cfg.PublicURLPrefix = strings.TrimSuffix(cfg.PublicURLPrefix, "/")

	s := &Store{
		cfg:    cfg,
		placer: NewPlacer(cfg.BaseDir, cfg.DirFanout, cfg.FileFanout),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FullPath returns the absolute path of a stored file.
func (s *Store) FullPath(relativePath string) string {
	return s.placer.FullPath(relativePath)
}

// FullURL returns the public URL of a stored file. No escaping is done;
// paths generated by the store are digits and known extensions.
func (s *Store) FullURL(relativePath string) string {
	return s.cfg.PublicURLPrefix + "/" + relativePath
}

// ImageInfo inspects a stored file. RelativePath is set only when the file
// is an image.
func (s *Store) ImageInfo(relativePath string) afisha.ImageMetadata {
	info := imaging.Inspect(s.FullPath(relativePath))
	if info.IsImage {
		info.RelativePath = relativePath
	}
	return info
}

// Place copies an arbitrary file into subdir and returns its relative path.
// An empty ext keeps the source file's extension.
func (s *Store) Place(ctx context.Context, source, ext, subdir string) (string, error) {
	if ext == "" {
		ext = filepath.Ext(source)
	}

	relativePath, err := s.placer.Place(source, ext, subdir, CopyFile)
	if err != nil {
		return "", err
	}

	s.replicate(ctx, relativePath, "")
	return relativePath, nil
}

// CopyImage copies source into the store, optionally through transform,
// and returns the metadata of the stored file.
//
// It returns nil without error when source is missing or not a storable
// image, when the transform fails or when the result is not a valid image.
// Nothing is left in the store in those cases. A subdir that escapes the
// store's image namespace is an EINVALID error.
func (s *Store) CopyImage(ctx context.Context, source string, transform imaging.Transform, subdir string) (*afisha.ImageMetadata, error) {
	subdir, err := s.imageSubdir(subdir)
	if err != nil {
		return nil, err
	}

	// A missing or unreadable source is simply not an image
	sourceInfo := imaging.Inspect(source)
	if !sourceInfo.IsImage {
		imageCopiesTotal.WithLabelValues("not_image").Inc()
		return nil, nil
	}

	ext, err := imaging.FormatExtension(sourceInfo.Format)
	if err != nil {
		return nil, err
	}

	materialize := CopyFile
	if transform != nil {
		materialize = TransformMaterializer(transform)
	}

	relativePath, err := s.placer.Place(source, ext, subdir, materialize)
	if errors.Is(err, ErrMaterialize) {
		s.logger.Warn("image materialization failed",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		imageCopiesTotal.WithLabelValues("materialize_failed").Inc()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	info := s.ImageInfo(relativePath)
	if !info.IsImage {
		s.logger.Warn("stored file is not a valid image",
			slog.String("source", source),
			slog.String("path", relativePath),
		)
		if err := os.Remove(s.FullPath(relativePath)); err != nil {
			s.logger.Error("failed to remove invalid image", slog.String("path", relativePath), slog.String("error", err.Error()))
		}
		imageCopiesTotal.WithLabelValues("invalid_result").Inc()
		return nil, nil
	}

	s.logger.Debug("image stored",
		slog.String("path", relativePath),
		slog.Int("width", info.Width),
		slog.Int("height", info.Height),
	)
	imageCopiesTotal.WithLabelValues("stored").Inc()

	s.replicate(ctx, relativePath, info.Format.ContentType())
	return &info, nil
}

// UploadImage stores a thumbnail sized to the kind's box and a full-size
// copy of source, both under the kind's base directory. It returns nil
// without error when either artifact could not be produced; any artifact
// already written is removed.
func (s *Store) UploadImage(ctx context.Context, source string, kind afisha.ImageKind) (*afisha.ImageUpload, error) {
	transform, err := imaging.FromSpec(kind.ThumbnailSpec())
	if err != nil {
		return nil, err
	}

	thumb, err := s.CopyImage(ctx, source, transform, kind.BaseDir)
	if err != nil || thumb == nil {
		return nil, err
	}

	original, err := s.CopyImage(ctx, source, nil, kind.BaseDir)
	if err != nil || original == nil {
		if rmErr := s.Remove(ctx, thumb.RelativePath); rmErr != nil {
			s.logger.Error("failed to remove orphaned thumbnail",
				slog.String("path", thumb.RelativePath),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, err
	}

	return &afisha.ImageUpload{Image: *original, Thumbnail: *thumb}, nil
}

// DefaultThumbnail stores a framed placeholder the size of the kind's
// thumbnail box.
func (s *Store) DefaultThumbnail(ctx context.Context, kind afisha.ImageKind) (*afisha.ImageMetadata, error) {
	tmp, err := os.CreateTemp("", "frame-*.png")
	if err != nil {
		return nil, afisha.Internal("Failed to create placeholder", err)
	}
	defer os.Remove(tmp.Name())

	if err := imaging.WriteFrame(tmp, kind.ThumbWidth, kind.ThumbHeight); err != nil {
		tmp.Close()
		return nil, afisha.Invalid("cannot render placeholder: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, afisha.Internal("Failed to write placeholder", err)
	}

	return s.CopyImage(ctx, tmp.Name(), nil, kind.BaseDir)
}

// Remove deletes a stored file and its replica. A missing file is not an
// error.
func (s *Store) Remove(ctx context.Context, relativePath string) error {
	if !isPathSafe(relativePath) {
		return afisha.Invalid("unsafe stored path: %q", relativePath)
	}

	if err := os.Remove(s.FullPath(relativePath)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return afisha.Internal("Failed to delete file", err)
	}

	if s.replica != nil {
		if err := s.replica.Delete(ctx, relativePath); err != nil {
			s.logger.Error("failed to delete replica",
				slog.String("path", relativePath),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// imageSubdir prefixes the caller's subdir with the store-wide image
// namespace. The caller's value is validated before joining so ".." can
// never cancel out the namespace.
func (s *Store) imageSubdir(subdir string) (string, error) {
	prefix, err := splitSubdir(s.cfg.ImageSubdir)
	if err != nil {
		return "", err
	}
	segments, err := splitSubdir(subdir)
	if err != nil {
		return "", err
	}
	return strings.Join(append(prefix, segments...), "/"), nil
}

// replicate mirrors a stored file. An empty contentType is detected from
// the file. Failures are logged; the local copy is authoritative.
func (s *Store) replicate(ctx context.Context, relativePath, contentType string) {
	if s.replica == nil {
		return
	}

	fullPath := s.FullPath(relativePath)
	if contentType == "" {
		mtype, err := mimetype.DetectFile(fullPath)
		if err != nil {
			s.logger.Error("failed to detect content type", slog.String("path", relativePath), slog.String("error", err.Error()))
			return
		}
		contentType = mtype.String()
	}

	f, err := os.Open(fullPath)
	if err != nil {
		s.logger.Error("failed to open file for replica", slog.String("path", relativePath), slog.String("error", err.Error()))
		return
	}
	defer f.Close()

	if err := s.replica.Put(ctx, relativePath, f, contentType); err != nil {
		s.logger.Error("failed to replicate file",
			slog.String("path", relativePath),
			slog.String("error", err.Error()),
		)
	}
}

// TransformMaterializer adapts a Transform to a Materializer.
func TransformMaterializer(t imaging.Transform) Materializer {
	return func(source, target string) error {
		if !t.Apply(source, target) {
			return errors.New("transform failed")
		}
		return nil
	}
}

// isPathSafe reports whether relativePath stays inside the base directory.
func isPathSafe(relativePath string) bool {
	if relativePath == "" || strings.HasPrefix(relativePath, "/") || filepath.IsAbs(relativePath) {
		return false
	}
	for _, s := range strings.Split(filepath.ToSlash(relativePath), "/") {
		if s == ".." {
			return false
		}
	}
	return true
}
