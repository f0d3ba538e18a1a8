package postgres

import (
	"context"
	"errors"

	"github.com/dukerupert/afisha"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Compile-time check that ImageKindService implements afisha.ImageKindService.
var _ afisha.ImageKindService = (*ImageKindService)(nil)

const imageKindColumns = `id, title, base_dir, thumb_width, thumb_height,
	transform_kind, default_thumb_path, created_at`

// ImageKindService implements afisha.ImageKindService using PostgreSQL.
type ImageKindService struct {
	db *DB
}

func (s *ImageKindService) FindImageKindByID(ctx context.Context, id uuid.UUID) (*afisha.ImageKind, error) {
	kind, err := scanImageKind(s.db.pool.QueryRow(ctx,
		`SELECT `+imageKindColumns+` FROM image_kinds WHERE id = $1`, toPgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, afisha.NotFound("Image kind not found")
		}
		return nil, afisha.Internal("Failed to fetch image kind", err)
	}
	return kind, nil
}

func (s *ImageKindService) CreateImageKind(ctx context.Context, kind *afisha.ImageKind) error {
	id := kind.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	created, err := scanImageKind(s.db.pool.QueryRow(ctx, `
		INSERT INTO image_kinds (id, title, base_dir, thumb_width, thumb_height,
			transform_kind, default_thumb_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+imageKindColumns,
		toPgUUID(id), kind.Title, kind.BaseDir,
		kind.ThumbWidth, kind.ThumbHeight, int(kind.Transform), kind.DefaultThumbPath,
	))
	if err != nil {
		return afisha.Internal("Failed to create image kind", err)
	}

	*kind = *created
	return nil
}

func (s *ImageKindService) SetDefaultThumbnail(ctx context.Context, id uuid.UUID, path string) (*afisha.ImageKind, error) {
	var oldPath string
	var updated *afisha.ImageKind

	err := pgx.BeginFunc(ctx, s.db.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`SELECT default_thumb_path FROM image_kinds WHERE id = $1 FOR UPDATE`, toPgUUID(id),
		).Scan(&oldPath); err != nil {
			return err
		}

		var err error
		updated, err = scanImageKind(tx.QueryRow(ctx,
			`UPDATE image_kinds SET default_thumb_path = $2 WHERE id = $1 RETURNING `+imageKindColumns,
			toPgUUID(id), path))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, afisha.NotFound("Image kind not found")
		}
		return nil, afisha.Internal("Failed to update image kind", err)
	}

	s.db.removeFiles(ctx, changedPaths([2]string{oldPath, path})...)
	return updated, nil
}

func scanImageKind(row pgx.Row) (*afisha.ImageKind, error) {
	var (
		kind      afisha.ImageKind
		id        pgtype.UUID
		transform int
	)
	err := row.Scan(
		&id, &kind.Title, &kind.BaseDir, &kind.ThumbWidth, &kind.ThumbHeight,
		&transform, &kind.DefaultThumbPath, &kind.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	kind.ID = fromPgUUID(id)
	kind.Transform = afisha.TransformKind(transform)
	return &kind, nil
}
