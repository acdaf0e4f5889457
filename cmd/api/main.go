package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/hospital-cost-navigator/internal/adapters/cache"
	"github.com/zatekoja/hospital-cost-navigator/internal/adapters/database"
	"github.com/zatekoja/hospital-cost-navigator/internal/adapters/geocoding"
	"github.com/zatekoja/hospital-cost-navigator/internal/adapters/search"
	"github.com/zatekoja/hospital-cost-navigator/internal/api/handlers"
	"github.com/zatekoja/hospital-cost-navigator/internal/api/routes"
	"github.com/zatekoja/hospital-cost-navigator/internal/application/services"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/providers"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/repositories"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/clients/openai"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/clients/redis"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/observability"
	"github.com/zatekoja/hospital-cost-navigator/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client; the service works without caching
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		log.Println("Redis client initialized successfully")
	}

	// Load the offline postal-code dataset
	geocoder, err := geocoding.NewGeoNamesAdapter(cfg.Geocoding.DatasetPath, cfg.Geocoding.CountryCode)
	if err != nil {
		log.Fatalf("Failed to load geocoding dataset: %v", err)
	}
	log.Printf("Geocoding dataset loaded: %d postal codes", geocoder.Size())

	// Initialize Typesense for typo-tolerant procedure search
	var fuzzyRepo repositories.OfferingFuzzySearchRepository
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
	} else {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		if err := adapter.InitSchema(context.Background()); err != nil {
			log.Printf("Warning: Failed to init Typesense schema: %v", err)
		}
		fuzzyRepo = adapter
		log.Println("Typesense client initialized successfully")
	}

	// Model-backed extraction is optional; the pattern grammar always runs
	var inference services.QueryExtractor
	if cfg.OpenAI.APIKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set; question inference disabled")
	} else {
		openaiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Printf("Warning: Failed to initialize OpenAI client: %v", err)
		} else {
			defer openaiClient.Close()
			inference = services.NewInferenceExtractor(openaiClient)
			log.Println("OpenAI client initialized successfully")
		}
	}

	// Initialize services
	searchAdapter := database.NewOfferingSearchAdapter(pgClient)
	extractionService := services.NewExtractionService(services.NewPatternExtractor(), inference, cacheProvider)
	guardService := services.NewIntentGuardService(geocoder, cfg.Search)
	plannerService := services.NewSearchPlannerService(searchAdapter, fuzzyRepo)
	navigatorService := services.NewNavigatorService(
		extractionService,
		guardService,
		plannerService,
		services.NewRankingService(),
		cfg.Search,
	)

	// Set up router
	navigatorHandler := handlers.NewNavigatorHandler(navigatorService)
	router := routes.NewRouter(navigatorHandler, metrics)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("Server stopped")
}
