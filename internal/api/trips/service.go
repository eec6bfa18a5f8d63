// Package trips orchestrates the full planning pipeline: preference
// extraction, attraction discovery, hotel recommendations and the itinerary,
// combined into one TripPlan artifact. Failures carry the stage they
// happened in so callers can report where a run died.
package trips

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-planner/internal/api/attractions"
	"github.com/FACorreiaa/go-travel-planner/internal/api/formatter"
	"github.com/FACorreiaa/go-travel-planner/internal/api/geo"
	generativeAI "github.com/FACorreiaa/go-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-planner/internal/api/hotels"
	"github.com/FACorreiaa/go-travel-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-travel-planner/internal/prompts"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

// Pipeline stage names, used in error attribution, logs and metrics.
const (
	StagePreferences = "preferences"
	StageDiscovery   = "discovery"
	StageGeocoding   = "geocoding"
	StageHotels      = "hotels"
	StageItinerary   = "itinerary"
)

const preferenceTemperature = 0.2

// Service runs the planning pipeline end to end or stage by stage.
type Service interface {
	// PlanTrip runs the full pipeline and returns the combined artifact.
	PlanTrip(ctx context.Context, req *types.TravelRequest) (*types.TripPlan, error)
	// DiscoverAttractions runs discovery only.
	DiscoverAttractions(ctx context.Context, req *types.TravelRequest) (*types.AttractionSet, error)
	// RecommendHotels runs discovery, geocoding and the hotel pipeline.
	RecommendHotels(ctx context.Context, req *types.TravelRequest) (*types.HotelRecommendationSet, error)
	// PlanItinerary runs discovery (unless attractions are supplied) and the
	// itinerary state machine, skipping hotels.
	PlanItinerary(ctx context.Context, req *types.TravelRequest) (*types.Itinerary, error)
}

var _ Service = (*ServiceImpl)(nil)

// ServiceImpl wires the stage services together.
type ServiceImpl struct {
	logger      *slog.Logger
	attractions attractions.Service
	hotels      hotels.Service
	itinerary   itinerary.Service
	geo         geo.Service
	generator   generativeAI.Generator
	store       *prompts.Store
	normalizer  *formatter.Normalizer
	metrics     *metrics.AppMetrics
}

// NewServiceImpl creates the orchestrator. appMetrics may be nil; recording
// is then a no-op.
func NewServiceImpl(
	attractionsSvc attractions.Service,
	hotelsSvc hotels.Service,
	itinerarySvc itinerary.Service,
	geoSvc geo.Service,
	generator generativeAI.Generator,
	store *prompts.Store,
	normalizer *formatter.Normalizer,
	appMetrics *metrics.AppMetrics,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		attractions: attractionsSvc,
		hotels:      hotelsSvc,
		itinerary:   itinerarySvc,
		geo:         geoSvc,
		generator:   generator,
		store:       store,
		normalizer:  normalizer,
		metrics:     appMetrics,
	}
}

func (s *ServiceImpl) PlanTrip(ctx context.Context, req *types.TravelRequest) (*types.TripPlan, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "PlanTrip", trace.WithAttributes(
		attribute.String("trip.city", req.City),
	))
	defer span.End()
	runStart := time.Now()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	requestedAccommodation := strings.TrimSpace(req.Accommodation)
	s.applyPreferences(ctx, req)
	req.ApplyDefaults()

	runID := uuid.New()
	l := s.logger.With(slog.String("run_id", runID.String()), slog.String("city", req.City))
	l.InfoContext(ctx, "Planning trip",
		slog.Int("days", req.TripDays),
		slog.Int("attractions", req.NumAttractions),
		slog.Bool("skip_hotels", req.SkipHotels))

	plan := &types.TripPlan{RunID: runID, City: req.City, CreatedAt: time.Now().UTC()}

	set, err := s.discover(ctx, req)
	if err != nil {
		s.metrics.RecordPlanRun(ctx, runStart, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "discovery failed")
		return nil, err
	}
	plan.Attractions = set

	if !req.SkipHotels {
		plan.Hotels, err = s.recommendForAttractions(ctx, req, set)
		if err != nil {
			s.metrics.RecordPlanRun(ctx, runStart, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "hotel pipeline failed")
			return nil, err
		}
	}

	stageStart := time.Now()
	it, err := s.itinerary.PlanItinerary(ctx, itinerary.PlanRequest{
		City:          req.City,
		Days:          req.TripDays,
		Accommodation: pickAccommodation(requestedAccommodation, req.City, plan.Hotels),
		TravelMode:    req.TravelMode,
		Attractions:   set.Attractions,
	})
	s.metrics.RecordStage(ctx, StageItinerary, stageStart, err)
	if err != nil {
		s.metrics.RecordPlanRun(ctx, runStart, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "itinerary failed")
		return nil, types.FailStage(StageItinerary, err)
	}
	plan.Itinerary = it

	s.metrics.RecordPlanRun(ctx, runStart, nil)
	l.InfoContext(ctx, "Trip planned",
		slog.Int("planned_attractions", it.PlannedCount()),
		slog.Int("omitted_attractions", len(it.OmittedAttractions)),
		slog.Duration("took", time.Since(runStart)))
	span.SetStatus(codes.Ok, "trip planned")
	return plan, nil
}

func (s *ServiceImpl) DiscoverAttractions(ctx context.Context, req *types.TravelRequest) (*types.AttractionSet, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "DiscoverAttractions", trace.WithAttributes(
		attribute.String("trip.city", req.City),
	))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	s.applyPreferences(ctx, req)
	req.ApplyDefaults()
	return s.discover(ctx, req)
}

func (s *ServiceImpl) RecommendHotels(ctx context.Context, req *types.TravelRequest) (*types.HotelRecommendationSet, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "RecommendHotels", trace.WithAttributes(
		attribute.String("trip.city", req.City),
	))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	s.applyPreferences(ctx, req)
	req.ApplyDefaults()

	set, err := s.discover(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.recommendForAttractions(ctx, req, set)
}

func (s *ServiceImpl) PlanItinerary(ctx context.Context, req *types.TravelRequest) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "PlanItinerary", trace.WithAttributes(
		attribute.String("trip.city", req.City),
	))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	requestedAccommodation := strings.TrimSpace(req.Accommodation)
	s.applyPreferences(ctx, req)
	req.ApplyDefaults()

	var candidates []types.Attraction
	if len(req.Attractions) > 0 {
		for _, name := range req.Attractions {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				candidates = append(candidates, types.Attraction{Name: trimmed})
			}
		}
	}
	if len(candidates) == 0 {
		set, err := s.discover(ctx, req)
		if err != nil {
			return nil, err
		}
		candidates = set.Attractions
	}

	stageStart := time.Now()
	it, err := s.itinerary.PlanItinerary(ctx, itinerary.PlanRequest{
		City:          req.City,
		Days:          req.TripDays,
		Accommodation: pickAccommodation(requestedAccommodation, req.City, nil),
		TravelMode:    req.TravelMode,
		Attractions:   candidates,
	})
	s.metrics.RecordStage(ctx, StageItinerary, stageStart, err)
	if err != nil {
		return nil, types.FailStage(StageItinerary, err)
	}
	return it, nil
}

func (s *ServiceImpl) discover(ctx context.Context, req *types.TravelRequest) (*types.AttractionSet, error) {
	stageStart := time.Now()
	set, err := s.attractions.DiscoverAttractions(ctx, req.City, req.AttractionFocus, req.NumAttractions)
	s.metrics.RecordStage(ctx, StageDiscovery, stageStart, err)
	if err != nil {
		return nil, types.FailStage(StageDiscovery, err)
	}
	return set, nil
}

// recommendForAttractions geocodes the discovered set once and feeds the
// coordinates to the hotel pipeline for distance scoring.
func (s *ServiceImpl) recommendForAttractions(ctx context.Context, req *types.TravelRequest, set *types.AttractionSet) (*types.HotelRecommendationSet, error) {
	stageStart := time.Now()
	coords, err := s.geo.ResolveCoordinates(ctx, req.City, set.Names())
	s.metrics.RecordStage(ctx, StageGeocoding, stageStart, err)
	if err != nil {
		return nil, types.FailStage(StageGeocoding, err)
	}

	stageStart = time.Now()
	hotelSet, err := s.hotels.GetRecommendations(ctx, criteriaFromRequest(req), coords)
	s.metrics.RecordStage(ctx, StageHotels, stageStart, err)
	if err != nil {
		return nil, types.FailStage(StageHotels, err)
	}
	return hotelSet, nil
}

// applyPreferences extracts structured preferences from the free-text trip
// description and fills only the fields the request left unset. The
// description is advisory: extraction failures are logged and swallowed.
func (s *ServiceImpl) applyPreferences(ctx context.Context, req *types.TravelRequest) {
	desc := strings.TrimSpace(req.Description)
	if desc == "" || s.generator == nil || s.store == nil || s.normalizer == nil {
		return
	}

	stageStart := time.Now()
	prefs, err := s.extractPreferences(ctx, req, desc)
	s.metrics.RecordStage(ctx, StagePreferences, stageStart, err)
	if err != nil {
		s.logger.WarnContext(ctx, "Preference extraction failed, continuing without it", slog.Any("error", err))
		return
	}

	if req.AttractionFocus == "" && prefs.Focus != "" {
		req.AttractionFocus = prefs.Focus
	}
	if req.TravelMode == "" && prefs.TravelMode != "" {
		req.TravelMode = prefs.TravelMode
	}
	if req.MinPrice == 0 && req.MaxPrice == 0 {
		req.MinPrice = prefs.MinPrice
		req.MaxPrice = prefs.MaxPrice
	}
	s.logger.DebugContext(ctx, "Applied extracted preferences",
		slog.String("focus", req.AttractionFocus),
		slog.String("travel_mode", req.TravelMode))
}

func (s *ServiceImpl) extractPreferences(ctx context.Context, req *types.TravelRequest, desc string) (*types.TripPreferences, error) {
	prompt, err := s.store.Render(prompts.PreferenceExtraction, map[string]string{
		"country":          req.Country,
		"city":             req.City,
		"user_description": desc,
	})
	if err != nil {
		return nil, err
	}
	reply, err := s.generator.GenerateJSONResponse(ctx, prompt, preferenceTemperature)
	if err != nil {
		return nil, fmt.Errorf("%w: preference extraction: %v", types.ErrProvider, err)
	}

	shape, err := s.store.Render(prompts.PreferencesSchema, nil)
	if err != nil {
		return nil, err
	}
	data, err := s.normalizer.Normalize(ctx, reply, formatter.Schema{Name: "preferences", Shape: shape})
	if err != nil {
		return nil, err
	}

	var prefs types.TripPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("%w: preferences decode: %v", types.ErrFormat, err)
	}
	return &prefs, nil
}

func validateRequest(req *types.TravelRequest) error {
	if strings.TrimSpace(req.City) == "" {
		return fmt.Errorf("%w: city is required", types.ErrValidation)
	}
	return nil
}

// pickAccommodation chooses the itinerary start: the explicit request value,
// else the top Best Value hotel, else the city center.
func pickAccommodation(requested, city string, hotelSet *types.HotelRecommendationSet) string {
	if requested != "" {
		return requested
	}
	if hotelSet != nil {
		if cat := hotelSet.Category(types.CategoryBestValue); cat != nil && len(cat.Hotels) > 0 {
			return cat.Hotels[0].Name + ", " + city
		}
	}
	return city + " city center"
}

func criteriaFromRequest(req *types.TravelRequest) types.HotelSearchCriteria {
	return types.HotelSearchCriteria{
		City:           req.City,
		Country:        req.Country,
		CheckinDate:    req.CheckinDate,
		CheckoutDate:   req.CheckoutDate,
		Adults:         req.Adults,
		Rooms:          req.Rooms,
		MinPrice:       req.MinPrice,
		MaxPrice:       req.MaxPrice,
		Currency:       req.Currency,
		StarClasses:    req.StarClasses,
		MinReviewScore: req.MinReviewScore,
		MaxHotels:      req.MaxHotels,
	}
}
