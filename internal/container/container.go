package container

import (
	"context"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-planner/config"
	"github.com/FACorreiaa/go-travel-planner/internal/api"
	"github.com/FACorreiaa/go-travel-planner/internal/api/attractions"
	"github.com/FACorreiaa/go-travel-planner/internal/api/formatter"
	generativeAI "github.com/FACorreiaa/go-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-planner/internal/api/geo"
	"github.com/FACorreiaa/go-travel-planner/internal/api/hotels"
	"github.com/FACorreiaa/go-travel-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-travel-planner/internal/api/trips"
	"github.com/FACorreiaa/go-travel-planner/internal/api/websearch"
	"github.com/FACorreiaa/go-travel-planner/internal/prompts"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *slog.Logger
	TripHandler *trips.HandlerImpl

	httpClient *api.HTTPClient
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	store, err := prompts.Load()
	if err != nil {
		logger.Error("Failed to load prompt templates", slog.Any("error", err))
		return nil, err
	}

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize LLM client", slog.Any("error", err))
		return nil, err
	}

	normalizer := formatter.New(generator, store, logger, cfg.Formatter.MaxAttempts, cfg.Formatter.Temperature)

	// All outbound provider calls share one rate-limited transport.
	httpClient := api.NewHTTPClient(
		cfg.Providers.Timeout,
		cfg.Providers.RequestsPerSecond,
		cfg.Providers.MaxRetries,
		cfg.Providers.UserAgent,
	)

	geoClient, err := geo.NewClient(httpClient, "", logger)
	if err != nil {
		logger.Error("Failed to initialize geocoding client", slog.Any("error", err))
		return nil, err
	}
	geoService := geo.NewServiceImpl(geoClient, generator, store, normalizer, logger)

	// Web search only grounds discovery prompts, so a missing key downgrades
	// the pipeline instead of blocking boot.
	var search attractions.SearchProvider
	searchClient, err := websearch.NewClient(httpClient, "", logger)
	if err != nil {
		logger.Warn("Web search disabled", slog.Any("error", err))
	} else {
		search = searchClient
	}
	attractionService := attractions.NewServiceImpl(search, generator, store, normalizer, logger)

	bookingClient, err := hotels.NewClient(httpClient, "", logger)
	if err != nil {
		logger.Error("Failed to initialize hotel search client", slog.Any("error", err))
		return nil, err
	}
	hotelService := hotels.NewServiceImpl(bookingClient, generator, store, hotels.Weights{
		Location: cfg.Hotels.Weights.Location,
		Review:   cfg.Hotels.Weights.Review,
		Price:    cfg.Hotels.Weights.Price,
		Stars:    cfg.Hotels.Weights.Stars,
	}, cfg.Hotels.MaxPages, logger)

	itineraryService := itinerary.NewServiceImpl(geoService, generator, store, normalizer,
		cfg.Planner.MaxRepairAttempts, cfg.Planner.MaxPerDay, logger)

	tripService := trips.NewServiceImpl(
		attractionService,
		hotelService,
		itineraryService,
		geoService,
		generator,
		store,
		normalizer,
		metrics.Get(),
		logger,
	)
	tripHandler := trips.NewHandlerImpl(tripService, logger)

	return &Container{
		Config:      cfg,
		Logger:      logger,
		TripHandler: tripHandler,
		httpClient:  httpClient,
	}, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (generativeAI.Generator, error) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		return generativeAI.NewOpenAIClient(cfg.LLM.Model)
	default:
		return generativeAI.NewAIClient(ctx, cfg.LLM.Model)
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
}
