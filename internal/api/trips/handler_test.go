package trips

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

type MockTripService struct {
	mock.Mock
}

func (m *MockTripService) PlanTrip(ctx context.Context, req *types.TravelRequest) (*types.TripPlan, error) {
	args := m.Called(ctx, req)
	var plan *types.TripPlan
	if args.Get(0) != nil {
		plan = args.Get(0).(*types.TripPlan)
	}
	return plan, args.Error(1)
}

func (m *MockTripService) DiscoverAttractions(ctx context.Context, req *types.TravelRequest) (*types.AttractionSet, error) {
	args := m.Called(ctx, req)
	var set *types.AttractionSet
	if args.Get(0) != nil {
		set = args.Get(0).(*types.AttractionSet)
	}
	return set, args.Error(1)
}

func (m *MockTripService) RecommendHotels(ctx context.Context, req *types.TravelRequest) (*types.HotelRecommendationSet, error) {
	args := m.Called(ctx, req)
	var set *types.HotelRecommendationSet
	if args.Get(0) != nil {
		set = args.Get(0).(*types.HotelRecommendationSet)
	}
	return set, args.Error(1)
}

func (m *MockTripService) PlanItinerary(ctx context.Context, req *types.TravelRequest) (*types.Itinerary, error) {
	args := m.Called(ctx, req)
	var it *types.Itinerary
	if args.Get(0) != nil {
		it = args.Get(0).(*types.Itinerary)
	}
	return it, args.Error(1)
}

func setupTripHandlerTest(t *testing.T) (*HandlerImpl, *MockTripService) {
	t.Helper()
	service := new(MockTripService)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandlerImpl(service, logger), service
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trips/plan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandlerImpl_PlanTrip(t *testing.T) {
	t.Run("returns the trip plan", func(t *testing.T) {
		handler, service := setupTripHandlerTest(t)
		plan := &types.TripPlan{City: "Sarajevo", Attractions: sarajevoSet()}
		service.On("PlanTrip", mock.Anything, mock.MatchedBy(func(req *types.TravelRequest) bool {
			return req.City == "Sarajevo" && req.TripDays == 2
		})).Return(plan, nil).Once()

		rec := postJSON(t, handler.PlanTrip, `{"city": "Sarajevo", "trip_days": 2}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		body := decodeBody(t, rec)
		assert.Equal(t, "Sarajevo", body["city"])
		service.AssertExpectations(t)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		handler, service := setupTripHandlerTest(t)

		rec := postJSON(t, handler.PlanTrip, `{"city": `)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		service.AssertNotCalled(t, "PlanTrip", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		handler, service := setupTripHandlerTest(t)

		rec := postJSON(t, handler.PlanTrip, `{"city": "Sarajevo", "nights": 2}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Contains(t, body["error"], "unknown key")
		service.AssertNotCalled(t, "PlanTrip", mock.Anything, mock.Anything)
	})

	t.Run("rejects a missing city", func(t *testing.T) {
		handler, service := setupTripHandlerTest(t)

		rec := postJSON(t, handler.PlanTrip, `{"trip_days": 2}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "city is required", body["error"])
		service.AssertNotCalled(t, "PlanTrip", mock.Anything, mock.Anything)
	})

	t.Run("maps missing data to 404 with the failed stage", func(t *testing.T) {
		handler, service := setupTripHandlerTest(t)
		err := types.FailStage(StageHotels, fmt.Errorf("%w: no hotels in Sarajevo match the filters", types.ErrInsufficientData))
		service.On("PlanTrip", mock.Anything, mock.Anything).Return(nil, err).Once()

		rec := postJSON(t, handler.PlanTrip, `{"city": "Sarajevo"}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "hotels", body["stage"])
		assert.Contains(t, body["error"], "no hotels")
	})

	t.Run("maps upstream failures to 502", func(t *testing.T) {
		handler, service := setupTripHandlerTest(t)
		err := types.FailStage(StageDiscovery, fmt.Errorf("%w: attraction discovery: timeout", types.ErrProvider))
		service.On("PlanTrip", mock.Anything, mock.Anything).Return(nil, err).Once()

		rec := postJSON(t, handler.PlanTrip, `{"city": "Sarajevo"}`)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "discovery", body["stage"])
	})

	t.Run("maps exhausted plan repairs to 502", func(t *testing.T) {
		handler, service := setupTripHandlerTest(t)
		err := types.FailStage(StageItinerary, fmt.Errorf("%w: plan still invalid after 2 repair attempts", types.ErrValidation))
		service.On("PlanTrip", mock.Anything, mock.Anything).Return(nil, err).Once()

		rec := postJSON(t, handler.PlanTrip, `{"city": "Sarajevo"}`)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("maps request-level validation to 400", func(t *testing.T) {
		handler, service := setupTripHandlerTest(t)
		service.On("PlanTrip", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: trip length must be at least 1 day", types.ErrValidation)).Once()

		rec := postJSON(t, handler.PlanTrip, `{"city": "Sarajevo", "trip_days": -1}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlerImpl_PartialEndpoints(t *testing.T) {
	t.Run("DiscoverAttractions returns the set", func(t *testing.T) {
		handler, service := setupTripHandlerTest(t)
		service.On("DiscoverAttractions", mock.Anything, mock.Anything).Return(sarajevoSet(), nil).Once()

		rec := postJSON(t, handler.DiscoverAttractions, `{"city": "Sarajevo"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Len(t, body["attractions"], 3)
	})

	t.Run("RecommendHotels returns the categories", func(t *testing.T) {
		handler, service := setupTripHandlerTest(t)
		service.On("RecommendHotels", mock.Anything, mock.Anything).Return(sarajevoHotels(), nil).Once()

		rec := postJSON(t, handler.RecommendHotels, `{"city": "Sarajevo"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Len(t, body["categories"], 3)
	})

	t.Run("PlanItinerary returns the day plans", func(t *testing.T) {
		handler, service := setupTripHandlerTest(t)
		service.On("PlanItinerary", mock.Anything, mock.MatchedBy(func(req *types.TravelRequest) bool {
			return len(req.Attractions) == 2
		})).Return(sarajevoItinerary(), nil).Once()

		rec := postJSON(t, handler.PlanItinerary, `{"city": "Sarajevo", "attractions": ["Latin Bridge", "Baščaršija"]}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Len(t, body["days"], 2)
	})
}
