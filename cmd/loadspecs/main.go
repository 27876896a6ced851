package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"imposter/internal/config"
	"imposter/internal/imagestore"
	"imposter/internal/repository/postgres"
	"imposter/internal/service"

	"github.com/joho/godotenv"
)

// loadspecs reads template definition files (.json/.yaml) from a directory
// and registers any templates the database does not know yet. Existing
// templates are left untouched, so the command is safe to re-run.
func main() {
	dir := flag.String("dir", "specs", "Directory containing template definition files")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Loading templates from %s (environment: %s, prefix: %s)", *dir, cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	templateRepo := postgres.NewTemplateRepository(repoConfig)
	imageRepo := postgres.NewImageRepository(repoConfig)

	blobs, err := imagestore.NewFSBlobStore(cfg.MediaRoot, cfg.MediaBaseURL)
	if err != nil {
		log.Fatalf("Failed to open media root: %v", err)
	}
	images := imagestore.New(blobs, imageRepo, cfg.MaxUploadBytes, logger)

	templates := service.NewTemplateService(templateRepo, images, logger)
	loaded, err := templates.LoadDir(ctx, *dir)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}
	log.Printf("Done: %d template(s) loaded", loaded)
}
