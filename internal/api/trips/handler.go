package trips

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-travel-planner/internal/api"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

// HandlerImpl exposes the planning pipeline over HTTP.
type HandlerImpl struct {
	tripService Service
	logger      *slog.Logger
}

func NewHandlerImpl(tripService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		tripService: tripService,
		logger:      logger,
	}
}

// PlanTrip godoc
// @Summary      Plan Trip
// @Description  Runs the full pipeline: discovery, hotels and itinerary.
// @Tags         Trips
// @Accept       json
// @Produce      json
// @Param        request body types.TravelRequest true "Planning Request"
// @Success      200 {object} types.TripPlan "Trip Plan"
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      404 {object} api.Response "Insufficient Data"
// @Failure      502 {object} api.Response "Pipeline Failure"
// @Router       /trips/plan [post]
func (h *HandlerImpl) PlanTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "PlanTrip")
	defer span.End()
	l := h.logger.With(slog.String("HandlerImpl", "PlanTrip"))

	req, ok := h.decodeRequest(w, r, l)
	if !ok {
		span.SetStatus(codes.Error, "Invalid request body")
		return
	}

	plan, err := h.tripService.PlanTrip(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "Trip planning failed",
			slog.String("stage", types.StageOf(err)), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		writePipelineError(w, r, err)
		return
	}

	l.InfoContext(ctx, "Trip planned", slog.String("run_id", plan.RunID.String()))
	span.SetStatus(codes.Ok, "Trip planned")
	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}

// DiscoverAttractions godoc
// @Summary      Discover Attractions
// @Description  Runs the discovery stage only.
// @Tags         Trips
// @Accept       json
// @Produce      json
// @Param        request body types.TravelRequest true "Planning Request"
// @Success      200 {object} types.AttractionSet "Attractions"
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      404 {object} api.Response "Insufficient Data"
// @Failure      502 {object} api.Response "Pipeline Failure"
// @Router       /trips/attractions [post]
func (h *HandlerImpl) DiscoverAttractions(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "DiscoverAttractions")
	defer span.End()
	l := h.logger.With(slog.String("HandlerImpl", "DiscoverAttractions"))

	req, ok := h.decodeRequest(w, r, l)
	if !ok {
		span.SetStatus(codes.Error, "Invalid request body")
		return
	}

	set, err := h.tripService.DiscoverAttractions(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "Attraction discovery failed",
			slog.String("stage", types.StageOf(err)), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		writePipelineError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Attractions discovered")
	api.WriteJSONResponse(w, r, http.StatusOK, set)
}

// RecommendHotels godoc
// @Summary      Recommend Hotels
// @Description  Runs discovery, geocoding and the hotel ranking pipeline.
// @Tags         Trips
// @Accept       json
// @Produce      json
// @Param        request body types.TravelRequest true "Planning Request"
// @Success      200 {object} types.HotelRecommendationSet "Hotel Recommendations"
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      404 {object} api.Response "Insufficient Data"
// @Failure      502 {object} api.Response "Pipeline Failure"
// @Router       /trips/hotels [post]
func (h *HandlerImpl) RecommendHotels(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "RecommendHotels")
	defer span.End()
	l := h.logger.With(slog.String("HandlerImpl", "RecommendHotels"))

	req, ok := h.decodeRequest(w, r, l)
	if !ok {
		span.SetStatus(codes.Error, "Invalid request body")
		return
	}

	set, err := h.tripService.RecommendHotels(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "Hotel recommendation failed",
			slog.String("stage", types.StageOf(err)), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		writePipelineError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Hotels recommended")
	api.WriteJSONResponse(w, r, http.StatusOK, set)
}

// PlanItinerary godoc
// @Summary      Plan Itinerary
// @Description  Plans the day-by-day itinerary, skipping hotels. Attractions
// @Description  may be supplied in the request or discovered on the fly.
// @Tags         Trips
// @Accept       json
// @Produce      json
// @Param        request body types.TravelRequest true "Planning Request"
// @Success      200 {object} types.Itinerary "Itinerary"
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      404 {object} api.Response "Insufficient Data"
// @Failure      502 {object} api.Response "Pipeline Failure"
// @Router       /trips/itinerary [post]
func (h *HandlerImpl) PlanItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "PlanItinerary")
	defer span.End()
	l := h.logger.With(slog.String("HandlerImpl", "PlanItinerary"))

	req, ok := h.decodeRequest(w, r, l)
	if !ok {
		span.SetStatus(codes.Error, "Invalid request body")
		return
	}

	it, err := h.tripService.PlanItinerary(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "Itinerary planning failed",
			slog.String("stage", types.StageOf(err)), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		writePipelineError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Itinerary planned")
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

func (h *HandlerImpl) decodeRequest(w http.ResponseWriter, r *http.Request, l *slog.Logger) (*types.TravelRequest, bool) {
	var req types.TravelRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(r.Context(), "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if req.City == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "city is required")
		return nil, false
	}
	return &req, true
}

// writePipelineError maps error kinds to statuses: missing data is 404, a
// malformed request 400, everything else an upstream failure (502). The
// failed stage rides along in the body.
func writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, types.ErrInsufficientData):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrValidation) && types.StageOf(err) == "":
		// Request-level validation, nothing upstream was involved.
		status = http.StatusBadRequest
	}
	api.StageErrorResponse(w, r, status, types.StageOf(err), err.Error())
}
