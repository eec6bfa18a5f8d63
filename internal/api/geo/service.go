// Package geo resolves attraction names to coordinates and derives the
// geometry the planner needs: distances, route averages and shareable
// walking-direction links.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-travel-planner/internal/api/formatter"
	generativeAI "github.com/FACorreiaa/go-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-planner/internal/prompts"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

// resolveConcurrency bounds parallel geocoding calls per batch.
const resolveConcurrency = 5

// Geocoder is the slice of the Maps client the resolver depends on.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Coordinate, error)
	ETA(ctx context.Context, origin, destination, mode string) (TravelEstimate, error)
}

var _ Geocoder = (*Client)(nil)

// Service resolves coordinates for a trip run.
type Service interface {
	// ResolveCoordinates geocodes every attraction name once, keyed by the
	// original name. Names that cannot be resolved are omitted; the error is
	// non-nil only when not a single name resolved.
	ResolveCoordinates(ctx context.Context, city string, names []string) (map[string]types.Coordinate, error)
	// ResolveAddress geocodes one free-form address, bypassing the name
	// rewrite pass. city widens the lookup when the address alone misses.
	ResolveAddress(ctx context.Context, address, city string) (types.Coordinate, error)
	// EstimateTravel returns an advisory duration/distance between two points.
	EstimateTravel(ctx context.Context, origin, destination types.Coordinate, mode string) (TravelEstimate, error)
}

var _ Service = (*ServiceImpl)(nil)

// ServiceImpl implements Service on top of the Google Maps client with an
// in-memory cache and an optional reasoning pass that rewrites names into
// the wording a map search recognises.
type ServiceImpl struct {
	logger      *slog.Logger
	geocoder    Geocoder
	generator   generativeAI.Generator
	store       *prompts.Store
	normalizer  *formatter.Normalizer
	cache       *cache.Cache
	concurrency int
	temperature float32
}

// NewServiceImpl creates the resolver. generator may be nil, which disables
// the name canonicalization pass and geocodes the raw names.
func NewServiceImpl(geocoder Geocoder, generator generativeAI.Generator, store *prompts.Store, normalizer *formatter.Normalizer, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		geocoder:    geocoder,
		generator:   generator,
		store:       store,
		normalizer:  normalizer,
		cache:       cache.New(24*time.Hour, 1*time.Hour), // Cache for 24 hours with cleanup every hour
		concurrency: resolveConcurrency,
		temperature: 0.1,
	}
}

func (s *ServiceImpl) ResolveCoordinates(ctx context.Context, city string, names []string) (map[string]types.Coordinate, error) {
	ctx, span := otel.Tracer("GeoService").Start(ctx, "ResolveCoordinates", trace.WithAttributes(
		attribute.String("geo.city", city),
		attribute.Int("geo.name_count", len(names)),
	))
	defer span.End()

	if len(names) == 0 {
		return map[string]types.Coordinate{}, nil
	}

	queries := s.searchNames(ctx, names)

	var (
		mu       sync.Mutex
		resolved = make(map[string]types.Coordinate, len(names))
		failed   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, name := range names {
		g.Go(func() error {
			coord, err := s.resolveOne(gctx, city, name, queries[name])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				s.logger.WarnContext(gctx, "Dropping attraction without coordinates",
					slog.String("attraction", name),
					slog.Any("error", err))
				return nil // a single miss never fails the batch
			}
			resolved[name] = coord
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("geo.resolved", len(resolved)),
		attribute.Int("geo.failed", failed),
	)

	if len(resolved) == 0 {
		err := fmt.Errorf("%w: no coordinates found for any of the %d attractions in %s", types.ErrResolution, len(names), city)
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "resolved")
	return resolved, nil
}

func (s *ServiceImpl) resolveOne(ctx context.Context, city, name, query string) (types.Coordinate, error) {
	if query == "" {
		query = name
	}
	address := fmt.Sprintf("%s, %s", query, city)
	key := strings.ToLower("geocode|" + address)
	if v, ok := s.cache.Get(key); ok {
		if coord, ok := v.(types.Coordinate); ok {
			return coord, nil
		}
	}

	coord, err := s.geocoder.Geocode(ctx, address)
	if errors.Is(err, ErrNoResults) && !strings.EqualFold(query, name) {
		// The rewritten name missed; the original wording may still match.
		coord, err = s.geocoder.Geocode(ctx, fmt.Sprintf("%s, %s", name, city))
	}
	if err != nil {
		return types.Coordinate{}, err
	}

	s.cache.Set(key, coord, cache.DefaultExpiration)
	return coord, nil
}

// searchNames maps each attraction name to the wording used for geocoding.
// A reasoning pass strips translations and parenthesised qualifiers that
// confuse the geocoder; any name missing from the reply keeps its original
// wording, so this pass can only help, never lose an attraction.
func (s *ServiceImpl) searchNames(ctx context.Context, names []string) map[string]string {
	queries := make(map[string]string, len(names))
	for _, name := range names {
		queries[name] = name
	}
	if s.generator == nil || s.store == nil || s.normalizer == nil {
		return queries
	}

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	prompt, err := s.store.Render(prompts.NameNormalization, map[string]string{"raw_names": b.String()})
	if err != nil {
		s.logger.WarnContext(ctx, "Name normalization prompt unavailable", slog.Any("error", err))
		return queries
	}

	reply, err := s.generator.GenerateJSONResponse(ctx, prompt, s.temperature)
	if err != nil {
		s.logger.WarnContext(ctx, "Name normalization skipped", slog.Any("error", err))
		return queries
	}
	data, err := s.normalizer.Normalize(ctx, reply, nameMapSchema())
	if err != nil {
		s.logger.WarnContext(ctx, "Name normalization reply unusable", slog.Any("error", err))
		return queries
	}

	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return queries
	}
	lower := make(map[string]string, len(mapping))
	for k, v := range mapping {
		if strings.TrimSpace(v) != "" {
			lower[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
		}
	}
	for _, name := range names {
		if v, ok := lower[strings.ToLower(name)]; ok {
			queries[name] = v
		}
	}
	return queries
}

func (s *ServiceImpl) ResolveAddress(ctx context.Context, address, city string) (types.Coordinate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return types.Coordinate{}, fmt.Errorf("%w: empty address", types.ErrResolution)
	}

	key := strings.ToLower("geocode|" + address)
	if v, ok := s.cache.Get(key); ok {
		if coord, ok := v.(types.Coordinate); ok {
			return coord, nil
		}
	}

	coord, err := s.geocoder.Geocode(ctx, address)
	if errors.Is(err, ErrNoResults) && city != "" && !strings.Contains(strings.ToLower(address), strings.ToLower(city)) {
		coord, err = s.geocoder.Geocode(ctx, fmt.Sprintf("%s, %s", address, city))
	}
	if err != nil {
		return types.Coordinate{}, err
	}

	s.cache.Set(key, coord, cache.DefaultExpiration)
	return coord, nil
}

func nameMapSchema() formatter.Schema {
	return formatter.Schema{
		Name:  "name_map",
		Shape: `{"original name": "normalized name"}`,
		Check: func(data []byte) error {
			var m map[string]string
			if err := json.Unmarshal(data, &m); err != nil {
				return fmt.Errorf("expected an object mapping names to names: %w", err)
			}
			return nil
		},
	}
}

// EstimateTravel queries the Distance Matrix with raw coordinates. Callers
// treat failures as advisory and plan without the estimate.
func (s *ServiceImpl) EstimateTravel(ctx context.Context, origin, destination types.Coordinate, mode string) (TravelEstimate, error) {
	o := fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude)
	d := fmt.Sprintf("%f,%f", destination.Latitude, destination.Longitude)
	return s.geocoder.ETA(ctx, o, d, mode)
}
