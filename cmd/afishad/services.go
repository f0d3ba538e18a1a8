package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukerupert/afisha"
	"github.com/dukerupert/afisha/internal/imaging"
	"github.com/dukerupert/afisha/internal/storage"
	"github.com/dukerupert/afisha/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Services holds all application services.
type Services struct {
	ImageService     afisha.ImageService
	ImageKindService afisha.ImageKindService
	Store            afisha.ImageStore
}

// initServices initializes all application services.
func initServices(ctx context.Context, pool *pgxpool.Pool, cfg *Config, logger *slog.Logger) (*Services, error) {
	store, err := initStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Records delete the files they stop referencing through the store
	db := postgres.NewDB(pool, store, logger)
	logger.Info("database services initialized")

	return &Services{
		ImageService:     db.ImageService,
		ImageKindService: db.ImageKindService,
		Store:            store,
	}, nil
}

// initStore creates the base directory if needed and opens the image store.
func initStore(ctx context.Context, cfg *Config, logger *slog.Logger) (*storage.Store, error) {
	storeCfg, err := cfg.StoreConfig()
	if err != nil {
		return nil, err
	}

	logger.Debug("image store configuration",
		slog.String("base_dir", storeCfg.BaseDir),
		slog.String("public_url", storeCfg.PublicURLPrefix),
		slog.String("replica", cfg.ReplicaProvider),
		slog.String("s3_bucket", storeCfg.S3Bucket))

	imaging.SetMaxPixels(cfg.StoreMaxPixels)

	if err := os.MkdirAll(storeCfg.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store base directory: %w", err)
	}

	return storage.New(ctx, logger, storeCfg)
}
