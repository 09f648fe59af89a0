package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"depot/internal/server/api"
	"depot/internal/server/config"
	"depot/internal/server/database"
	"depot/internal/server/service"
	"depot/internal/server/session"
	"depot/internal/server/storage"

	"github.com/joho/godotenv"
)

func main() {
	// Structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load config (.env is optional)
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}
	cfg := config.Load()
	slog.Info("configuration loaded",
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
		"folder_path", cfg.FolderPath,
		"token_ttl", cfg.TokenTTL,
	)

	// Connect to database
	ctx := context.Background()
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations complete")

	// Open the session store
	sessions, err := session.New(cfg.SessionDBPath)
	if err != nil {
		slog.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer sessions.Close()
	slog.Info("session store opened", "path", cfg.SessionDBPath)

	// Initialize content storage
	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	if err := blobs.EnsureReady(ctx); err != nil {
		slog.Error("storage backend not ready", "error", err)
		os.Exit(1)
	}
	slog.Info("content storage initialized", "backend", cfg.StorageBackend)

	// Initialize repository and services
	repo := database.NewRepository(db)
	auth := service.NewAuthService(repo, sessions, cfg.TokenTTL)
	files := service.NewFileService(repo, blobs)

	// Setup HTTP router
	handler := api.NewHandler(auth, files, repo, db, sessions)
	e := api.SetupRouter(handler, auth, cfg)

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	// Stop accepting new requests, finish in-flight with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server exited cleanly")
}

// newBlobStore selects the content storage backend from config.
func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.StorageBackend {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			KeyPrefix:       cfg.S3KeyPrefix,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	case "fs":
		return storage.NewFileSystemStore(cfg.FolderPath), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
