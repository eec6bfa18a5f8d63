// Package itinerary turns a discovered attraction set into a day-by-day
// plan. The planner is an explicit state machine: resolve coordinates,
// compute clustering guidance, ask the reasoning component for the plan
// through a session, validate the hard invariants programmatically and
// repair through the same session a bounded number of times.
package itinerary

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
	"github.com/FACorreiaa/go-travel-planner/internal/api/geo"
	generativeAI "github.com/FACorreiaa/go-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-planner/internal/prompts"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

const (
	defaultMaxRepairAttempts = 2
	defaultMaxPerDay         = 4
	planTemperature          = 0.4
)

type runState int

const (
	stateGathering runState = iota
	stateResolving
	stateClustering
	stateRequestingPlan
	stateValidatingPlan
	stateRepairingPlan
	stateDone
	stateFailed
)

func (s runState) String() string {
	switch s {
	case stateGathering:
		return "GATHERING_ATTRACTIONS"
	case stateResolving:
		return "RESOLVING_COORDINATES"
	case stateClustering:
		return "CLUSTERING"
	case stateRequestingPlan:
		return "REQUESTING_PLAN"
	case stateValidatingPlan:
		return "VALIDATING_PLAN"
	case stateRepairingPlan:
		return "REPAIRING_PLAN"
	case stateDone:
		return "DONE"
	case stateFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// PlanRequest is the planner input: a destination, a trip length and the
// candidate attractions to spread across the days.
type PlanRequest struct {
	City          string
	Days          int
	Accommodation string
	TravelMode    string
	Attractions   []types.Attraction
}

// Service plans itineraries.
type Service interface {
	PlanItinerary(ctx context.Context, req PlanRequest) (*types.Itinerary, error)
}

var _ Service = (*ServiceImpl)(nil)

// ServiceImpl implements the planning state machine.
type ServiceImpl struct {
	logger            *slog.Logger
	geo               geo.Service
	generator         generativeAI.Generator
	store             *prompts.Store
	normalizer        *formatter.Normalizer
	maxRepairAttempts int
	maxPerDay         int
	temperature       float32
}

// NewServiceImpl creates the planner. maxRepairAttempts bounds the
// REPAIRING_PLAN loop; maxPerDay caps daily sightseeing load.
func NewServiceImpl(geoSvc geo.Service, generator generativeAI.Generator, store *prompts.Store, normalizer *formatter.Normalizer, maxRepairAttempts, maxPerDay int, logger *slog.Logger) *ServiceImpl {
	if maxRepairAttempts < 0 {
		maxRepairAttempts = defaultMaxRepairAttempts
	}
	if maxPerDay < 1 {
		maxPerDay = defaultMaxPerDay
	}
	return &ServiceImpl{
		logger:            logger,
		geo:               geoSvc,
		generator:         generator,
		store:             store,
		normalizer:        normalizer,
		maxRepairAttempts: maxRepairAttempts,
		maxPerDay:         maxPerDay,
		temperature:       planTemperature,
	}
}

func (s *ServiceImpl) PlanItinerary(ctx context.Context, req PlanRequest) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "PlanItinerary", trace.WithAttributes(
		attribute.String("itinerary.city", req.City),
		attribute.Int("itinerary.days", req.Days),
		attribute.Int("itinerary.attractions", len(req.Attractions)),
	))
	defer span.End()

	var (
		state        = stateGathering
		repairs      int
		start        types.Coordinate
		places       []Place
		candidates   []string
		clusters     [][]Place
		session      generativeAI.Session
		lastJSON     string
		problems     []string
		doc          *planDocument
		localOmitted []types.OmittedAttraction
	)

	for state != stateDone && state != stateFailed {
		s.logger.DebugContext(ctx, "Planner state",
			slog.String("state", state.String()),
			slog.Int("repairs", repairs))

		switch state {
		case stateGathering:
			if req.Days < 1 {
				return nil, fmt.Errorf("%w: trip length must be at least 1 day", types.ErrValidation)
			}
			if len(req.Attractions) == 0 {
				return nil, fmt.Errorf("%w: no attractions to plan", types.ErrInsufficientData)
			}
			if strings.TrimSpace(req.Accommodation) == "" {
				req.Accommodation = req.City + " city center"
			}
			if req.TravelMode == "" {
				req.TravelMode = "transit"
			}
			state = stateResolving

		case stateResolving:
			names := make([]string, 0, len(req.Attractions))
			for _, a := range req.Attractions {
				names = append(names, a.Name)
			}
			coords, err := s.geo.ResolveCoordinates(ctx, req.City, names)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "resolution failed")
				return nil, err
			}
			for _, a := range req.Attractions {
				coord, ok := coords[a.Name]
				if !ok {
					localOmitted = append(localOmitted, types.OmittedAttraction{
						Name:   a.Name,
						Reason: "no coordinates could be found for this attraction",
					})
					continue
				}
				places = append(places, Place{Name: a.Name, Coord: coord})
			}
			start = s.resolveStart(ctx, req, coords)
			state = stateClustering

		case stateClustering:
			var capped []types.OmittedAttraction
			places, capped = capPlaces(places, req.Days, s.maxPerDay, start)
			localOmitted = append(localOmitted, capped...)
			clusters = clusterPlaces(places, req.Days, start)
			candidates = make([]string, 0, len(places))
			for _, p := range places {
				candidates = append(candidates, p.Name)
			}
			state = stateRequestingPlan

		case stateRequestingPlan:
			prompt, err := s.buildPlanPrompt(req, places, clusters)
			if err != nil {
				return nil, err
			}
			session, err = s.generator.StartSession(ctx, s.temperature)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "session start failed")
				return nil, fmt.Errorf("%w: plan session: %v", types.ErrProvider, err)
			}
			reply, err := session.Send(ctx, prompt)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "plan request failed")
				return nil, fmt.Errorf("%w: plan request: %v", types.ErrProvider, err)
			}
			lastJSON = reply
			state = stateValidatingPlan

		case stateValidatingPlan:
			parsed, normalized, err := s.parsePlan(ctx, lastJSON)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "plan parse failed")
				return nil, err
			}
			lastJSON = normalized
			canonicalizeNames(parsed, candidates)
			problems = validatePlan(parsed, req.Days, candidates)
			if len(problems) == 0 {
				doc = parsed
				state = stateDone
				break
			}
			s.logger.WarnContext(ctx, "Plan rejected",
				slog.Int("repairs", repairs),
				slog.String("problems", strings.Join(problems, "; ")))
			if repairs < s.maxRepairAttempts {
				state = stateRepairingPlan
			} else {
				state = stateFailed
			}

		case stateRepairingPlan:
			repairs++
			prompt, err := s.store.Render(prompts.ItineraryRepair, map[string]string{
				"days":          strconv.Itoa(req.Days),
				"errors":        "- " + strings.Join(problems, "\n- "),
				"previous_json": lastJSON,
			})
			if err != nil {
				return nil, err
			}
			reply, err := session.Send(ctx, prompt)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "repair request failed")
				return nil, fmt.Errorf("%w: plan repair: %v", types.ErrProvider, err)
			}
			lastJSON = reply
			state = stateValidatingPlan
		}
	}

	if state == stateFailed {
		err := fmt.Errorf("%w: plan still invalid after %d repair attempts: %s",
			types.ErrValidation, repairs, strings.Join(problems, "; "))
		span.RecordError(err)
		span.SetStatus(codes.Error, "repair attempts exhausted")
		return nil, err
	}

	it := s.finalize(ctx, req, doc, places, start, localOmitted)
	span.SetAttributes(
		attribute.Int("itinerary.repairs", repairs),
		attribute.Int("itinerary.omitted", len(it.OmittedAttractions)),
	)
	span.SetStatus(codes.Ok, "plan accepted")
	return it, nil
}

// resolveStart geocodes the accommodation; when that fails the centroid of
// the resolved attractions stands in so the geometry stays anchored.
func (s *ServiceImpl) resolveStart(ctx context.Context, req PlanRequest, coords map[string]types.Coordinate) types.Coordinate {
	coord, err := s.geo.ResolveAddress(ctx, req.Accommodation, req.City)
	if err == nil {
		return coord
	}
	s.logger.WarnContext(ctx, "Accommodation not geocodable, anchoring on the attraction centroid",
		slog.String("accommodation", req.Accommodation),
		slog.Any("error", err))
	return centroid(coords)
}

func centroid(coords map[string]types.Coordinate) types.Coordinate {
	if len(coords) == 0 {
		return types.Coordinate{}
	}
	var lat, lng float64
	for _, c := range coords {
		lat += c.Latitude
		lng += c.Longitude
	}
	n := float64(len(coords))
	return types.Coordinate{Latitude: lat / n, Longitude: lng / n}
}

func (s *ServiceImpl) buildPlanPrompt(req PlanRequest, places []Place, clusters [][]Place) (string, error) {
	var lines strings.Builder
	for _, p := range places {
		fmt.Fprintf(&lines, "- %s (%.4f, %.4f)\n", p.Name, p.Coord.Latitude, p.Coord.Longitude)
	}
	return s.store.Render(prompts.ItineraryPlan, map[string]string{
		"city":               req.City,
		"days":               strconv.Itoa(req.Days),
		"accommodation":      req.Accommodation,
		"travel_mode":        req.TravelMode,
		"max_per_day":        strconv.Itoa(s.maxPerDay),
		"attraction_lines":   lines.String(),
		"suggested_clusters": suggestedClusters(clusters),
	})
}

func (s *ServiceImpl) parsePlan(ctx context.Context, reply string) (*planDocument, string, error) {
	shape, err := s.store.Render(prompts.ItinerarySchema, nil)
	if err != nil {
		return nil, "", err
	}
	data, err := s.normalizer.Normalize(ctx, reply, formatter.Schema{
		Name:  "itinerary",
		Shape: shape,
		Check: checkPlanDoc,
	})
	if err != nil {
		return nil, "", err
	}

	var doc planDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("%w: itinerary decode: %v", types.ErrFormat, err)
	}
	return &doc, string(data), nil
}

func checkPlanDoc(data []byte) error {
	var doc struct {
		Days *[]types.DayPlan `json:"days"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Days == nil {
		return errors.New(`missing "days" array`)
	}
	return nil
}

// finalize fills the fields the model never controls: the city, per-day map
// links derived from the validated order plus the accommodation, the locally
// omitted attractions, and an advisory first-leg travel estimate in the logs.
func (s *ServiceImpl) finalize(ctx context.Context, req PlanRequest, doc *planDocument, places []Place, start types.Coordinate, localOmitted []types.OmittedAttraction) *types.Itinerary {
	coordsByName := make(map[string]types.Coordinate, len(places))
	for _, p := range places {
		coordsByName[p.Name] = p.Coord
	}

	it := &types.Itinerary{
		City:               req.City,
		Days:               doc.Days,
		OmittedAttractions: append(doc.OmittedAttractions, localOmitted...),
	}
	for i := range it.Days {
		names := make([]string, 0, len(it.Days[i].Attractions))
		for _, ref := range it.Days[i].Attractions {
			names = append(names, ref.Name)
		}
		it.Days[i].MapLink = geo.BuildRouteLink(req.City, req.Accommodation, names)

		if len(names) > 0 {
			if first, ok := coordsByName[names[0]]; ok {
				if eta, err := s.geo.EstimateTravel(ctx, start, first, req.TravelMode); err == nil {
					s.logger.InfoContext(ctx, "First leg travel estimate",
						slog.Int("day", it.Days[i].Day),
						slog.String("to", names[0]),
						slog.String("duration", eta.Duration),
						slog.String("distance", eta.Distance))
				}
			}
		}
	}
	return it
}
