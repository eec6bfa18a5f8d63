package hotels

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-planner/internal/api/geo"
	generativeAI "github.com/FACorreiaa/go-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-planner/internal/prompts"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

const (
	defaultMaxPages  = 3
	perCategoryCount = 3
)

// SearchClient is the provider surface the pipeline depends on.
type SearchClient interface {
	LocationID(ctx context.Context, city, country string) (string, error)
	SearchPage(ctx context.Context, destID string, criteria types.HotelSearchCriteria, page int) ([]types.HotelRecord, error)
}

var _ SearchClient = (*Client)(nil)

// Service ranks hotels for a trip run.
type Service interface {
	// GetRecommendations searches, filters and ranks hotels around the
	// resolved attraction coordinates into the three fixed categories.
	GetRecommendations(ctx context.Context, criteria types.HotelSearchCriteria, attractionCoords map[string]types.Coordinate) (*types.HotelRecommendationSet, error)
}

var _ Service = (*ServiceImpl)(nil)

// ServiceImpl implements the hotel pipeline: paged search, filtering,
// distance enrichment, value scoring and category assembly.
type ServiceImpl struct {
	logger         *slog.Logger
	client         SearchClient
	generator      generativeAI.Generator
	store          *prompts.Store
	weights        Weights
	maxPages       int
	tipTemperature float32
}

// NewServiceImpl creates the hotel service. generator may be nil, which
// limits pro tips to the deterministic ones.
func NewServiceImpl(client SearchClient, generator generativeAI.Generator, store *prompts.Store, weights Weights, maxPages int, logger *slog.Logger) *ServiceImpl {
	if maxPages < 1 {
		maxPages = defaultMaxPages
	}
	if err := weights.Validate(); err != nil {
		logger.Warn("Invalid hotel score weights, using defaults", slog.Any("error", err))
		weights = DefaultWeights()
	}
	return &ServiceImpl{
		logger:         logger,
		client:         client,
		generator:      generator,
		store:          store,
		weights:        weights,
		maxPages:       maxPages,
		tipTemperature: 0.7,
	}
}

func (s *ServiceImpl) GetRecommendations(ctx context.Context, criteria types.HotelSearchCriteria, attractionCoords map[string]types.Coordinate) (*types.HotelRecommendationSet, error) {
	ctx, span := otel.Tracer("HotelService").Start(ctx, "GetRecommendations", trace.WithAttributes(
		attribute.String("hotel.city", criteria.City),
		attribute.Int("hotel.attraction_count", len(attractionCoords)),
	))
	defer span.End()

	criteria = withCriteriaDefaults(criteria)

	destID, err := s.client.LocationID(ctx, criteria.City, criteria.Country)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "destination lookup failed")
		return nil, err
	}

	eligible, err := s.collectEligible(ctx, destID, criteria)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hotel search failed")
		return nil, err
	}
	if len(eligible) == 0 {
		err := fmt.Errorf("%w: no hotels in %s match the filters", types.ErrInsufficientData, criteria.City)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no eligible hotels")
		return nil, err
	}

	candidates := s.enrich(ctx, eligible, coordList(attractionCoords), criteria.Currency)
	if len(candidates) == 0 {
		err := fmt.Errorf("%w: none of the matching hotels in %s expose coordinates", types.ErrInsufficientData, criteria.City)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no locatable hotels")
		return nil, err
	}

	scoreCandidates(candidates, s.weights)

	set := &types.HotelRecommendationSet{
		City:     criteria.City,
		Currency: criteria.Currency,
		Categories: []types.HotelCategory{
			categorize(types.CategoryBestValue, rankByValue(candidates)),
			categorize(types.CategoryBestLocation, rankByLocation(candidates)),
			categorize(types.CategoryBestQuality, rankByQuality(candidates)),
		},
	}
	set.ProTips = s.proTips(ctx, criteria, candidates)

	span.SetAttributes(attribute.Int("hotel.candidates", len(candidates)))
	span.SetStatus(codes.Ok, "recommendations assembled")
	return set, nil
}

// collectEligible pages through search results until enough hotels pass the
// filters, the provider runs dry, or the page cap is hit. A page failure
// after the first degrades to whatever was already collected.
func (s *ServiceImpl) collectEligible(ctx context.Context, destID string, criteria types.HotelSearchCriteria) ([]types.HotelRecord, error) {
	target := perCategoryCount * 3
	if criteria.MaxHotels > 0 && criteria.MaxHotels < target {
		target = criteria.MaxHotels
	}

	var eligible []types.HotelRecord
	seen := make(map[int64]bool)
	for page := 0; page < s.maxPages && len(eligible) < target; page++ {
		records, err := s.client.SearchPage(ctx, destID, criteria, page)
		if err != nil {
			if len(eligible) > 0 {
				s.logger.WarnContext(ctx, "Hotel page fetch failed, keeping results collected so far",
					slog.Int("page", page),
					slog.Int("collected", len(eligible)),
					slog.Any("error", err))
				break
			}
			return nil, err
		}
		if len(records) == 0 {
			break
		}
		for _, rec := range records {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			if matchesFilters(rec, criteria) {
				eligible = append(eligible, rec)
			}
		}
	}

	if criteria.MaxHotels > 0 && len(eligible) > criteria.MaxHotels {
		eligible = eligible[:criteria.MaxHotels]
	}
	return eligible, nil
}

func matchesFilters(rec types.HotelRecord, criteria types.HotelSearchCriteria) bool {
	if rec.Name == "" || rec.Price <= 0 {
		return false
	}
	if criteria.MinPrice > 0 && rec.Price < criteria.MinPrice {
		return false
	}
	if criteria.MaxPrice > 0 && rec.Price > criteria.MaxPrice {
		return false
	}
	if criteria.MinReviewScore > 0 && rec.ReviewScore < criteria.MinReviewScore {
		return false
	}
	if len(criteria.StarClasses) > 0 && !containsStar(criteria.StarClasses, rec.Stars) {
		return false
	}
	return true
}

func containsStar(classes []int, star int) bool {
	for _, c := range classes {
		if c == star {
			return true
		}
	}
	return false
}

// enrich turns records into candidates, dropping hotels without coordinates
// since distance is part of the ranking contract.
func (s *ServiceImpl) enrich(ctx context.Context, records []types.HotelRecord, attractionCoords []types.Coordinate, currency string) []types.HotelCandidate {
	candidates := make([]types.HotelCandidate, 0, len(records))
	for _, rec := range records {
		if rec.Coordinate == nil {
			s.logger.DebugContext(ctx, "Skipping hotel without coordinates", slog.String("hotel", rec.Name))
			continue
		}
		cur := rec.Currency
		if cur == "" {
			cur = currency
		}
		coord := *rec.Coordinate
		candidates = append(candidates, types.HotelCandidate{
			Name:          rec.Name,
			Price:         rec.Price,
			Currency:      cur,
			Stars:         rec.Stars,
			ReviewScore:   rec.ReviewScore,
			ReviewCount:   rec.ReviewCount,
			Address:       rec.Address,
			AvgDistanceKm: geo.AverageDistanceKm(coord, attractionCoords),
			Link:          BookingLink(rec.ID),
			Coordinate:    &coord,
		})
	}
	return candidates
}

func categorize(name string, ranked []types.HotelCandidate) types.HotelCategory {
	top := topN(ranked, perCategoryCount)
	hotels := make([]types.HotelCandidate, len(top))
	copy(hotels, top)
	for i := range hotels {
		hotels[i].WhyRecommended = whyRecommended(name, hotels[i])
	}
	return types.HotelCategory{Name: name, Hotels: hotels}
}

func whyRecommended(category string, h types.HotelCandidate) string {
	switch category {
	case types.CategoryBestValue:
		return fmt.Sprintf("Strong overall value (score %.2f) at %.0f %s for the stay", h.ValueScore, h.Price, h.Currency)
	case types.CategoryBestLocation:
		return fmt.Sprintf("Averages %.2f km to your attractions", h.AvgDistanceKm)
	case types.CategoryBestQuality:
		if h.Stars > 0 {
			return fmt.Sprintf("Guests rate it %.1f/10 (%d-star)", h.ReviewScore, h.Stars)
		}
		return fmt.Sprintf("Guests rate it %.1f/10", h.ReviewScore)
	}
	return ""
}

// proTips builds the advisory strings: deterministic facts first, then up to
// three short model-written tips when a generator is wired.
func (s *ServiceImpl) proTips(ctx context.Context, criteria types.HotelSearchCriteria, candidates []types.HotelCandidate) []string {
	tips := make([]string, 0, 6)

	if len(candidates) < perCategoryCount {
		tips = append(tips, fmt.Sprintf(
			"Only %d hotel(s) matched your filters; a wider budget or lower review threshold would surface more options.",
			len(candidates)))
	}

	if byLocation := rankByLocation(candidates); len(byLocation) > 0 {
		closest := byLocation[0]
		tips = append(tips, fmt.Sprintf("%s is the closest pick, averaging %.2f km to your attractions.",
			closest.Name, closest.AvgDistanceKm))
	}

	if cheapest := cheapestOf(candidates); cheapest != nil {
		tips = append(tips, fmt.Sprintf("%s has the lowest total price at %.0f %s.",
			cheapest.Name, cheapest.Price, cheapest.Currency))
	}

	return append(tips, s.modelTips(ctx, criteria, candidates)...)
}

func cheapestOf(candidates []types.HotelCandidate) *types.HotelCandidate {
	var best *types.HotelCandidate
	for i := range candidates {
		if best == nil || candidates[i].Price < best.Price {
			best = &candidates[i]
		}
	}
	return best
}

func (s *ServiceImpl) modelTips(ctx context.Context, criteria types.HotelSearchCriteria, candidates []types.HotelCandidate) []string {
	if s.generator == nil || s.store == nil {
		return nil
	}

	var lines strings.Builder
	for _, h := range candidates {
		fmt.Fprintf(&lines, "- %s: %.0f %s total, %.1f/10, %.2f km avg\n",
			h.Name, h.Price, h.Currency, h.ReviewScore, h.AvgDistanceKm)
	}
	prompt, err := s.store.Render(prompts.HotelProTips, map[string]string{
		"city":         criteria.City,
		"budget_range": budgetRange(criteria),
		"hotel_lines":  lines.String(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Hotel tip prompt unavailable", slog.Any("error", err))
		return nil
	}

	reply, err := s.generator.GenerateResponse(ctx, prompt, s.tipTemperature)
	if err != nil {
		// Tips are advisory; the artifact ships without them.
		s.logger.WarnContext(ctx, "Hotel tips generation skipped", slog.Any("error", err))
		return nil
	}

	var tips []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line == "" {
			continue
		}
		tips = append(tips, line)
		if len(tips) == 3 {
			break
		}
	}
	return tips
}

func budgetRange(criteria types.HotelSearchCriteria) string {
	switch {
	case criteria.MinPrice > 0 && criteria.MaxPrice > 0:
		return fmt.Sprintf("%.0f-%.0f %s", criteria.MinPrice, criteria.MaxPrice, criteria.Currency)
	case criteria.MaxPrice > 0:
		return fmt.Sprintf("up to %.0f %s", criteria.MaxPrice, criteria.Currency)
	case criteria.MinPrice > 0:
		return fmt.Sprintf("from %.0f %s", criteria.MinPrice, criteria.Currency)
	default:
		return "no budget cap"
	}
}

func withCriteriaDefaults(criteria types.HotelSearchCriteria) types.HotelSearchCriteria {
	if criteria.Adults < 1 {
		criteria.Adults = 2
	}
	if criteria.Rooms < 1 {
		criteria.Rooms = 1
	}
	if criteria.Currency == "" {
		criteria.Currency = "USD"
	}
	if criteria.OrderBy == "" {
		criteria.OrderBy = "popularity"
	}
	return criteria
}

func coordList(coords map[string]types.Coordinate) []types.Coordinate {
	out := make([]types.Coordinate, 0, len(coords))
	for _, c := range coords {
		out = append(out, c)
	}
	return out
}
