// Package attractions discovers candidate attractions for a destination,
// grounding the reasoning prompt in fresh web search snippets so suggestions
// stay tied to places that exist.
package attractions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-planner/internal/api/formatter"
	generativeAI "github.com/FACorreiaa/go-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-planner/internal/api/websearch"
	"github.com/FACorreiaa/go-travel-planner/internal/prompts"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

const (
	defaultAttractionCount = 5
	defaultMaxSnippets     = 5
	discoveryTemperature   = 0.7

	noSearchContext = "(no recent search results available; rely on established knowledge)"
)

// SearchProvider is the slice of the web search client discovery depends on.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error)
}

var _ SearchProvider = (*websearch.Client)(nil)

// Service discovers attractions for a city.
type Service interface {
	// DiscoverAttractions returns up to count deduplicated attractions,
	// optionally narrowed by a focus such as "street food" or "history".
	DiscoverAttractions(ctx context.Context, city, focus string, count int) (*types.AttractionSet, error)
}

var _ Service = (*ServiceImpl)(nil)

// ServiceImpl implements discovery: search snippets in, normalized
// attraction set out.
type ServiceImpl struct {
	logger      *slog.Logger
	search      SearchProvider
	generator   generativeAI.Generator
	store       *prompts.Store
	normalizer  *formatter.Normalizer
	temperature float32
	maxSnippets int
}

// NewServiceImpl creates the discovery service. search may be nil, which
// makes every run rely on model knowledge alone.
func NewServiceImpl(search SearchProvider, generator generativeAI.Generator, store *prompts.Store, normalizer *formatter.Normalizer, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		search:      search,
		generator:   generator,
		store:       store,
		normalizer:  normalizer,
		temperature: discoveryTemperature,
		maxSnippets: defaultMaxSnippets,
	}
}

func (s *ServiceImpl) DiscoverAttractions(ctx context.Context, city, focus string, count int) (*types.AttractionSet, error) {
	ctx, span := otel.Tracer("AttractionService").Start(ctx, "DiscoverAttractions", trace.WithAttributes(
		attribute.String("attractions.city", city),
		attribute.String("attractions.focus", focus),
		attribute.Int("attractions.requested", count),
	))
	defer span.End()

	if count < 1 {
		count = defaultAttractionCount
	}

	focusClause := ""
	if focus != "" {
		focusClause = " with a focus on " + focus
	}
	prompt, err := s.store.Render(prompts.AttractionDiscovery, map[string]string{
		"num_attractions": strconv.Itoa(count),
		"city":            city,
		"focus_clause":    focusClause,
		"search_context":  s.searchContext(ctx, city, focus),
	})
	if err != nil {
		return nil, fmt.Errorf("discovery prompt: %w", err)
	}

	reply, err := s.generator.GenerateJSONResponse(ctx, prompt, s.temperature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, fmt.Errorf("%w: attraction discovery: %v", types.ErrProvider, err)
	}

	shape, err := s.store.Render(prompts.AttractionsSchema, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery schema: %w", err)
	}
	data, err := s.normalizer.Normalize(ctx, reply, formatter.Schema{
		Name:  "attractions",
		Shape: shape,
		Check: checkAttractionsDoc,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "normalization failed")
		return nil, err
	}

	var set types.AttractionSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: attraction set decode: %v", types.ErrFormat, err)
	}

	set.City = city
	set.Focus = focus
	set.Attractions = dedupeAttractions(set.Attractions, count)
	if len(set.Attractions) == 0 {
		err := fmt.Errorf("%w: discovery produced no attractions for %s", types.ErrInsufficientData, city)
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty attraction set")
		return nil, err
	}

	span.SetAttributes(attribute.Int("attractions.found", len(set.Attractions)))
	span.SetStatus(codes.Ok, "attractions discovered")
	return &set, nil
}

func checkAttractionsDoc(data []byte) error {
	var doc struct {
		Attractions *[]types.Attraction `json:"attractions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Attractions == nil {
		return errors.New(`missing "attractions" array`)
	}
	return nil
}

// searchContext fetches grounding snippets. Search being down degrades the
// prompt to model knowledge rather than failing the run.
func (s *ServiceImpl) searchContext(ctx context.Context, city, focus string) string {
	if s.search == nil {
		return noSearchContext
	}

	query := fmt.Sprintf("top attractions and things to do in %s", city)
	if focus != "" {
		query = fmt.Sprintf("top %s attractions and things to do in %s", focus, city)
	}
	results, err := s.search.Search(ctx, query, s.maxSnippets)
	if err != nil {
		s.logger.WarnContext(ctx, "Web search unavailable, discovery continues without snippets",
			slog.Any("error", err))
		return noSearchContext
	}

	block := websearch.SnippetBlock(results)
	if block == "" {
		return noSearchContext
	}
	return block
}

// dedupeAttractions removes blank and case-insensitive duplicate names and
// caps the list, preserving first-seen order.
func dedupeAttractions(list []types.Attraction, limit int) []types.Attraction {
	seen := make(map[string]bool, len(list))
	out := make([]types.Attraction, 0, len(list))
	for _, a := range list {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		a.Name = name
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out
}
