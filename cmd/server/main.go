package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"imposter/internal/auth"
	"imposter/internal/config"
	"imposter/internal/handler"
	"imposter/internal/imagestore"
	"imposter/internal/middleware"
	"imposter/internal/render"
	"imposter/internal/repository/postgres"
	"imposter/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	jwtVerifier, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	bureauRepo := postgres.NewBureauRepository(repoConfig)
	templateRepo := postgres.NewTemplateRepository(repoConfig)
	posterRepo := postgres.NewPosterRepository(repoConfig)
	imageRepo := postgres.NewImageRepository(repoConfig)

	blobs, err := imagestore.NewFSBlobStore(cfg.MediaRoot, cfg.MediaBaseURL)
	if err != nil {
		log.Fatalf("Failed to open media root: %v", err)
	}
	images := imagestore.New(blobs, imageRepo, cfg.MaxUploadBytes, logger)
	renderer := render.New(blobs, imageRepo, logger)

	templateService := service.NewTemplateService(templateRepo, images, logger)
	posterService := service.NewPosterService(
		posterRepo,
		templateRepo,
		bureauRepo,
		images,
		blobs,
		renderer,
		logger,
	)

	bureauHandler := handler.NewBureauHandler(bureauRepo, logger)
	templateHandler := handler.NewTemplateHandler(templateService, logger)
	posterHandler := handler.NewPosterHandler(posterService, logger)

	logger.Info("services initialized")

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Bureau routes
	mux.HandleFunc("GET /api/bureaus", bureauHandler.List)
	mux.HandleFunc("GET /api/bureaus/{id}", bureauHandler.Get)

	// Template routes
	mux.HandleFunc("GET /api/specs", templateHandler.List)
	mux.HandleFunc("GET /api/specs/{id}", templateHandler.Get)

	// Poster routes
	mux.HandleFunc("GET /api/posters", posterHandler.List)
	mux.HandleFunc("POST /api/posters", posterHandler.Create)
	mux.HandleFunc("GET /api/posters/{id}", posterHandler.Get)
	mux.HandleFunc("PUT /api/posters/{id}", posterHandler.Update)
	mux.HandleFunc("DELETE /api/posters/{id}", posterHandler.Delete)

	// Rendered artifacts and stored images
	mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(blobs.Root()))))

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	var root http.Handler = mux
	root = middleware.Auth(jwtVerifier)(root)
	root = middleware.Recovery(logger)(root)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
