package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/client"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/config"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/db"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/handler"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/middleware"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/repository"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/router"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/service"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/storage"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "media-api")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	handler.InitMetrics(pool)

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	blobs, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.PublicBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure blob store")
	}

	profiles := config.DefaultProfiles()

	claimRepo := repository.NewClaimRepo(pool)
	assetRepo := repository.NewAssetRepo(pool)
	statsRepo := repository.NewStatsRepo(pool)

	rateSvc := service.NewRateLimitService(statsRepo, profiles)
	claimSvc := service.NewClaimService(claimRepo, rateSvc, profiles, cache)
	moderationSvc := service.NewModerationService(
		config.DefaultModerationConfig(),
		client.NewVisionClient(cfg.VisionServiceURL),
		client.NewLLMClient(cfg.LLMServiceURL),
	)
	uploadSvc := service.NewUploadService(
		claimSvc,
		assetRepo,
		blobs,
		moderationSvc,
		client.NewMediaProviderClient(cfg.MediaProviderURL, cfg.MediaProviderToken),
		profiles,
		cfg.CORSOrigins,
	)

	app := fiber.New(fiber.Config{
		AppName:      "Media Upload API",
		ServerHeader: "media-api",
		BodyLimit:    32 << 20,
	})

	router.Setup(app, &router.Handlers{
		Claim:     handler.NewClaimHandler(claimSvc),
		Upload:    handler.NewUploadHandler(uploadSvc),
		RateLimit: handler.NewRateLimitHandler(rateSvc),
		Health:    handler.NewHealthHandler(pool, cache.Client()),
	}, cfg.CORSOrigins)

	// Serve until SIGINT/SIGTERM, then drain in-flight requests.
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("media API starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutdown signal received, draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("media API stopped")
}
