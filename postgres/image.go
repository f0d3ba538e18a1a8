package postgres

import (
	"context"
	"errors"

	"github.com/dukerupert/afisha"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Compile-time check that ImageService implements afisha.ImageService.
var _ afisha.ImageService = (*ImageService)(nil)

const imageColumns = `id, kind_id, image_path, image_width, image_height,
	thumb_path, thumb_width, thumb_height, content_type, created_at, updated_at`

// ImageService implements afisha.ImageService using PostgreSQL.
type ImageService struct {
	db *DB
}

func (s *ImageService) FindImageByID(ctx context.Context, id uuid.UUID) (*afisha.Image, error) {
	img, err := scanImage(s.db.pool.QueryRow(ctx,
		`SELECT `+imageColumns+` FROM images WHERE id = $1`, toPgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, afisha.NotFound("Image not found")
		}
		return nil, afisha.Internal("Failed to fetch image", err)
	}
	return img, nil
}

func (s *ImageService) CreateImage(ctx context.Context, img *afisha.Image) error {
	id := img.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	created, err := scanImage(s.db.pool.QueryRow(ctx, `
		INSERT INTO images (id, kind_id, image_path, image_width, image_height,
			thumb_path, thumb_width, thumb_height, content_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+imageColumns,
		toPgUUID(id), toPgUUID(img.KindID),
		img.ImagePath, img.ImageWidth, img.ImageHeight,
		img.ThumbPath, img.ThumbWidth, img.ThumbHeight,
		int(img.ContentType),
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return afisha.NotFound("Image kind not found")
		}
		return afisha.Internal("Failed to create image", err)
	}

	// Update image with generated values
	*img = *created
	return nil
}

func (s *ImageService) ReplaceImageFiles(ctx context.Context, id uuid.UUID, upload afisha.ImageUpload) (*afisha.Image, error) {
	var old, updated *afisha.Image

	err := pgx.BeginFunc(ctx, s.db.pool, func(tx pgx.Tx) error {
		var err error
		old, err = scanImage(tx.QueryRow(ctx,
			`SELECT `+imageColumns+` FROM images WHERE id = $1 FOR UPDATE`, toPgUUID(id)))
		if err != nil {
			return err
		}

		next := *old
		next.ApplyUpload(upload)

		updated, err = scanImage(tx.QueryRow(ctx, `
			UPDATE images SET image_path = $2, image_width = $3, image_height = $4,
				thumb_path = $5, thumb_width = $6, thumb_height = $7,
				content_type = $8, updated_at = now()
			WHERE id = $1
			RETURNING `+imageColumns,
			toPgUUID(id),
			next.ImagePath, next.ImageWidth, next.ImageHeight,
			next.ThumbPath, next.ThumbWidth, next.ThumbHeight,
			int(next.ContentType),
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, afisha.NotFound("Image not found")
		}
		return nil, afisha.Internal("Failed to update image", err)
	}

	s.db.removeFiles(ctx, changedPaths(
		[2]string{old.ImagePath, updated.ImagePath},
		[2]string{old.ThumbPath, updated.ThumbPath},
	)...)

	return updated, nil
}

func (s *ImageService) DeleteImage(ctx context.Context, id uuid.UUID) error {
	var imagePath, thumbPath string
	err := s.db.pool.QueryRow(ctx,
		`DELETE FROM images WHERE id = $1 RETURNING image_path, thumb_path`, toPgUUID(id),
	).Scan(&imagePath, &thumbPath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return afisha.NotFound("Image not found")
		}
		return afisha.Internal("Failed to delete image", err)
	}

	s.db.removeFiles(ctx, imagePath, thumbPath)
	return nil
}

func scanImage(row pgx.Row) (*afisha.Image, error) {
	var (
		img         afisha.Image
		id, kindID  pgtype.UUID
		contentType int
	)
	err := row.Scan(
		&id, &kindID,
		&img.ImagePath, &img.ImageWidth, &img.ImageHeight,
		&img.ThumbPath, &img.ThumbWidth, &img.ThumbHeight,
		&contentType, &img.CreatedAt, &img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	img.ID = fromPgUUID(id)
	img.KindID = fromPgUUID(kindID)
	img.ContentType = afisha.ImageFormat(contentType)
	return &img, nil
}
