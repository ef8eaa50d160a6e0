package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/config"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/db"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/events"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/middleware"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/repository"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/service"
)

// The reconciler is a separate process from the API server: it tails the
// provider event topic and settles video claims, so a provider outage or a
// poison partition never affects upload traffic.
func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "media-reconciler")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	profiles := config.DefaultProfiles()
	claimRepo := repository.NewClaimRepo(pool)
	assetRepo := repository.NewAssetRepo(pool)
	statsRepo := repository.NewStatsRepo(pool)

	rateSvc := service.NewRateLimitService(statsRepo, profiles)
	claimSvc := service.NewClaimService(claimRepo, rateSvc, profiles, cache)

	dlq := events.NewDeadLetterProducer(cfg.KafkaBrokers, cfg.KafkaDeadLetterTopic)
	defer dlq.Close()

	reconciler := service.NewReconcileService(assetRepo, claimSvc, dlq, cfg.StreamBaseURL, cfg.PreviewBaseURL)
	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaEventsTopic, cfg.KafkaGroupID, reconciler)

	// Expose consumer metrics on the same port the API would use; the two
	// processes never share a host port in deployment.
	metricsSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	consumer.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info().Msg("reconciler stopped")
}
