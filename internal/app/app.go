// Package app wires configuration into the blob backend, store, engine,
// processor and directory.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/seuros/pacer/internal/blobstore"
	"github.com/seuros/pacer/internal/config"
	"github.com/seuros/pacer/internal/database"
	"github.com/seuros/pacer/internal/directory"
	"github.com/seuros/pacer/internal/progress"
	"github.com/seuros/pacer/internal/store"
	"github.com/seuros/pacer/internal/workout"
)

type App struct {
	Cfg       *config.Config
	Logger    *zap.Logger
	DB        *sqlx.DB
	Blobs     blobstore.BlobStore
	Store     *store.Store
	Engine    *progress.Engine
	Processor *workout.Processor
	Directory *directory.Directory
}

// New opens the configured backend and loads the initial snapshot
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var db *sqlx.DB
	var blobs blobstore.BlobStore

	switch cfg.StorageBackend {
	case config.BackendSQL:
		conn, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.Migrate(conn, cfg.DatabaseDriver, logger); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		db = conn
		blobs = blobstore.NewSQLStore(conn)
	case config.BackendS3:
		s3Store, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Endpoint:  cfg.S3.Endpoint,
			Prefix:    cfg.S3.Prefix,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		blobs = s3Store
	case config.BackendMemory:
		blobs = blobstore.NewMemoryStore()
	default:
		fileStore, err := blobstore.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		blobs = fileStore
	}

	a, err := NewWithBlobStore(ctx, cfg, blobs, logger)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	a.DB = db

	logger.Info("storage ready", zap.String("backend", cfg.StorageBackend))
	return a, nil
}

// NewWithBlobStore builds the components on top of an existing backend
func NewWithBlobStore(ctx context.Context, cfg *config.Config, blobs blobstore.BlobStore, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	st := store.New(blobs, logger.Named("store"))
	engine := progress.NewEngine(
		progress.WithWeekStart(cfg.WeekStart),
		progress.WithLocation(cfg.Location),
	)
	processor := workout.NewProcessor(st, logger.Named("workout"))
	dir := directory.New(st, engine, processor, logger.Named("directory"))

	if err := dir.Reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}

	return &App{
		Cfg:       cfg,
		Logger:    logger,
		Blobs:     blobs,
		Store:     st,
		Engine:    engine,
		Processor: processor,
		Directory: dir,
	}, nil
}

func (a *App) Close() error {
	return database.Close(a.DB)
}
