package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"golang.org/x/time/rate"

	"github.com/basterrika/wp-image-optimizer/config"
	"github.com/basterrika/wp-image-optimizer/internal/delivery/http/middleware"
	v1 "github.com/basterrika/wp-image-optimizer/internal/delivery/http/v1"
	"github.com/basterrika/wp-image-optimizer/internal/usecase"
	"github.com/basterrika/wp-image-optimizer/pkg/editor"
	"github.com/basterrika/wp-image-optimizer/pkg/logger"
	"github.com/basterrika/wp-image-optimizer/pkg/storage"
)

func main() {
	cfg := config.LoadConfig()

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	// Activation-time capability check. If this environment cannot
	// produce WebP at all, every conversion would silently no-op
	// forever, so refuse to start and tell the operator why.
	if err := editor.VerifyWebPSupport(); err != nil {
		log.Fatal().Err(err).Msg("WebP support check failed; refusing to start")
	}
	log.Info().Msg("WebP support verified")

	// Local upload storage
	localStorage, err := storage.NewLocalStorage(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize upload storage")
	}

	// Conversion pipeline
	policy := usecase.NewPolicy(cfg.WebPQualityPhoto, cfg.WebPQualityGraphic)
	convertUC := usecase.NewConvertUsecase(
		editor.NewWebPEditor(),
		localStorage,
		policy,
		usecase.NewExifOrientationReader(),
	)
	uploadHandler := v1.NewUploadHandler(localStorage, convertUC, cfg.MaxUploadSizeMB)

	// Set up Router
	mux := http.NewServeMux()

	// Both upload extension points run through the same filter.
	mux.HandleFunc("POST /api/v1/upload", uploadHandler.UploadFile)
	mux.HandleFunc("POST /api/v1/sideload", uploadHandler.Sideload)

	// Serve converted files
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(localStorage.BaseDir()))))

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler) // Support root health check for Load Balancers

	addr := fmt.Sprintf(":%s", cfg.Port)

	rateLimiter := middleware.NewRateLimiter(
		rate.Limit(cfg.RateLimitPerSecond),
		cfg.RateLimitBurst,
		cfg.RateLimitClientTTL,
	)

	// Apply CORS (with config injection), Request Logger, Rate Limit, and Gzip
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart("wp-image-optimizer", "1.0.0", cfg.Port)

	// Wait for interrupt signal via channel
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.ServiceStop("wp-image-optimizer")
}
