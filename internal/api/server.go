package api

import (
	"context"
	"net/http"
	"time"

	"example.com/tripplanner/config"
	"example.com/tripplanner/internal/api/handlers"
	"example.com/tripplanner/internal/api/middleware"
	"example.com/tripplanner/internal/cache"
	"example.com/tripplanner/internal/metrics"
	"example.com/tripplanner/internal/repositories"
	"example.com/tripplanner/internal/search"
	"example.com/tripplanner/internal/services"
	"example.com/tripplanner/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Server represents the HTTP server carrying both transport bindings:
// the session-authenticated /api/v1 group and the API-key /ext/v1 group
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server

	tripService      *services.TripService
	itineraryService *services.ItineraryService
	placeService     *services.PlaceService
	sessions         *cache.RedisCache
	apiKeyRepo       repositories.APIKeyRepository
	elastic          *search.ElasticClient
	metrics          *metrics.Metrics
	tracer           tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	tripService *services.TripService,
	itineraryService *services.ItineraryService,
	placeService *services.PlaceService,
	sessions *cache.RedisCache,
	apiKeyRepo repositories.APIKeyRepository,
	elastic *search.ElasticClient,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
) *Server {
	server := &Server{
		config:           cfg,
		tripService:      tripService,
		itineraryService: itineraryService,
		placeService:     placeService,
		sessions:         sessions,
		apiKeyRepo:       apiKeyRepo,
		elastic:          elastic,
		metrics:          metricsCollector,
		tracer:           tracer,
	}

	server.router = server.setupRouter()

	server.httpServer = &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      server.router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging())

	if s.config.CorsEnabled {
		router.Use(middleware.CORS(s.config))
	}

	if app := s.tracer.Application(); app != nil {
		router.Use(nrgin.Middleware(app))
	}

	healthHandler := handlers.NewHealthHandler(s.elastic)
	router.GET("/health", healthHandler.Health)

	metricsHandler := handlers.NewMetricsHandler(s.metrics)
	router.GET("/metrics", metricsHandler.Metrics)

	tripHandler := handlers.NewTripHandler(s.tripService)
	itineraryHandler := handlers.NewItineraryHandler(s.itineraryService, s.tracer)
	placeHandler := handlers.NewPlaceHandler(s.placeService)

	// Session binding: browser clients with share-code read grants
	internal := router.Group("/api/v1")
	internal.Use(middleware.SessionAuth(s.sessions))
	tripHandler.RegisterRoutes(internal)
	itineraryHandler.RegisterRoutes(internal)
	placeHandler.RegisterRoutes(internal)

	// API-key binding: external integrations acting as the key's owner
	external := router.Group("/ext/v1")
	external.Use(middleware.APIKeyAuth(s.apiKeyRepo))
	tripHandler.RegisterRoutes(external)
	itineraryHandler.RegisterRoutes(external)
	placeHandler.RegisterRoutes(external)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
