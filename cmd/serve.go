package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/tripplanner/config"
	"example.com/tripplanner/internal/api"
	"example.com/tripplanner/internal/cache"
	"example.com/tripplanner/internal/database"
	"example.com/tripplanner/internal/messaging"
	"example.com/tripplanner/internal/metrics"
	"example.com/tripplanner/internal/ordering"
	"example.com/tripplanner/internal/repositories"
	"example.com/tripplanner/internal/search"
	"example.com/tripplanner/internal/services"
	"example.com/tripplanner/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server carrying the session and API-key bindings`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		return err
	}
	defer redisCache.Close()

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = noopTracer()
	}
	defer tracer.Close()

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
		elasticClient = nil
	}

	publisher, err := messaging.NewPublisher(cfg.Azure)
	if err != nil {
		return err
	}
	defer publisher.Close()

	metricsCollector := metrics.NewMetrics()

	tripRepo := repositories.NewTripRepository(db, readOnlyDB)
	itemRepo := repositories.NewItineraryRepository(db, readOnlyDB)
	placeRepo := repositories.NewPlaceRepository(db, readOnlyDB)
	apiKeyRepo := repositories.NewAPIKeyRepository(db, readOnlyDB)

	engine := ordering.NewEngine(itemRepo)

	tripService := services.NewTripService(tripRepo, itemRepo, placeRepo, redisCache, publisher)
	itineraryService := services.NewItineraryService(itemRepo, placeRepo, tripService, engine, publisher, metricsCollector, tracer)
	placeService := services.NewPlaceService(placeRepo, tripService, elasticClient)

	server := api.NewServer(cfg, tripService, itineraryService, placeService,
		redisCache, apiKeyRepo, elasticClient, metricsCollector, tracer)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}

func noopTracer() tracing.Tracer {
	tracer, _ := tracing.NewTracer(config.TracingConfig{})
	return tracer
}
