package types

import (
	"time"

	"github.com/google/uuid"
)

// Coordinate is a latitude/longitude pair resolved for a named location.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Attraction is a point of interest produced by the discovery stage.
// Immutable once created; Name is unique within a planning run.
type Attraction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FunFacts    string `json:"fun_facts,omitempty"`
}

// AttractionSet is the discovery stage artifact for one city.
type AttractionSet struct {
	City        string       `json:"city"`
	Focus       string       `json:"focus,omitempty"`
	Attractions []Attraction `json:"attractions"`
}

// Names returns the attraction names in input order.
func (s *AttractionSet) Names() []string {
	names := make([]string, 0, len(s.Attractions))
	for _, a := range s.Attractions {
		names = append(names, a.Name)
	}
	return names
}

// TripPreferences holds structured preferences extracted from a free-text
// trip description. Fields only override the request where it is unset.
type TripPreferences struct {
	Focus      string   `json:"focus,omitempty"`
	TravelMode string   `json:"travel_mode,omitempty"`
	MinPrice   float64  `json:"min_price,omitempty"`
	MaxPrice   float64  `json:"max_price,omitempty"`
	Interests  []string `json:"interests,omitempty"`
}

// TravelRequest is the single input of a planning run.
type TravelRequest struct {
	City            string  `json:"city"`
	Country         string  `json:"country,omitempty"`
	Description     string  `json:"description,omitempty"`
	CheckinDate     string  `json:"checkin_date,omitempty"`  // YYYY-MM-DD
	CheckoutDate    string  `json:"checkout_date,omitempty"` // YYYY-MM-DD
	Adults          int     `json:"adults,omitempty"`
	Rooms           int     `json:"rooms,omitempty"`
	MinPrice        float64 `json:"min_price,omitempty"`
	MaxPrice        float64 `json:"max_price,omitempty"`
	Currency        string  `json:"currency,omitempty"`
	StarClasses     []int   `json:"star_classes,omitempty"`
	MinReviewScore  float64 `json:"min_review_score,omitempty"`
	MaxHotels       int     `json:"max_hotels,omitempty"`
	NumAttractions  int     `json:"num_attractions,omitempty"`
	AttractionFocus string  `json:"attraction_focus,omitempty"`
	TravelMode      string  `json:"travel_mode,omitempty"`
	TripDays        int     `json:"trip_days,omitempty"`
	Accommodation   string  `json:"accommodation,omitempty"`
	SkipHotels      bool    `json:"skip_hotels,omitempty"`
	// Attractions short-circuits discovery for itinerary-only requests.
	Attractions []string `json:"attractions,omitempty"`
}

// ApplyDefaults fills unset fields with the documented defaults and derives
// TripDays from the stay dates when both parse.
func (r *TravelRequest) ApplyDefaults() {
	if r.Adults == 0 {
		r.Adults = 2
	}
	if r.Rooms == 0 {
		r.Rooms = 1
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}
	if r.MinReviewScore == 0 {
		r.MinReviewScore = 7.0
	}
	if r.MaxHotels == 0 {
		r.MaxHotels = 10
	}
	if r.NumAttractions == 0 {
		r.NumAttractions = 5
	}
	if r.TravelMode == "" {
		r.TravelMode = "transit"
	}
	if r.TripDays == 0 {
		if days := nightsBetween(r.CheckinDate, r.CheckoutDate); days > 0 {
			r.TripDays = days
		} else {
			r.TripDays = 3
		}
	}
	if r.Accommodation == "" {
		r.Accommodation = r.City + " city center"
	}
}

func nightsBetween(checkin, checkout string) int {
	in, err := time.Parse("2006-01-02", checkin)
	if err != nil {
		return 0
	}
	out, err := time.Parse("2006-01-02", checkout)
	if err != nil {
		return 0
	}
	return int(out.Sub(in).Hours() / 24)
}

// TripPlan is the combined artifact of one full planning run.
type TripPlan struct {
	RunID       uuid.UUID               `json:"run_id"`
	City        string                  `json:"city"`
	Attractions *AttractionSet          `json:"attractions,omitempty"`
	Hotels      *HotelRecommendationSet `json:"hotels,omitempty"`
	Itinerary   *Itinerary              `json:"itinerary,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}
