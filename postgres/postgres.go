// Package postgres provides PostgreSQL implementations of domain service interfaces.
package postgres

import (
	"context"
	"log/slog"

	"github.com/dukerupert/afisha"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the database connection pool and exposes domain services.
type DB struct {
	pool   *pgxpool.Pool
	files  afisha.FileRemover
	logger *slog.Logger

	// Domain services (initialized in NewDB)
	ImageService     afisha.ImageService
	ImageKindService afisha.ImageKindService
}

// NewDB creates a new database wrapper with all services initialized.
// files is used to delete stored files that records stop referencing.
func NewDB(pool *pgxpool.Pool, files afisha.FileRemover, logger *slog.Logger) *DB {
	db := &DB{
		pool:   pool,
		files:  files,
		logger: logger,
	}

	// Initialize services with reference back to DB
	db.ImageService = &ImageService{db: db}
	db.ImageKindService = &ImageKindService{db: db}

	return db
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer using service methods.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// removeFiles deletes stored files that are no longer referenced. The
// database change is already committed, so failures are only logged.
func (db *DB) removeFiles(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := db.files.Remove(ctx, p); err != nil {
			db.logger.Error("failed to remove unreferenced file",
				slog.String("path", p),
				slog.String("error", err.Error()),
			)
		}
	}
}
