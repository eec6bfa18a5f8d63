package types

// Recommendation category names. The set is fixed; contents degrade
// gracefully when fewer than three candidates exist.
const (
	CategoryBestValue    = "Best Value"
	CategoryBestLocation = "Best Location"
	CategoryBestQuality  = "Best Quality"
)

// HotelCandidate is one ranked hotel. The json keys follow the artifact the
// presentation layer consumes ("location" is the street address,
// "avg_distance" is kilometers to the attraction set, 2 decimals).
type HotelCandidate struct {
	Name           string      `json:"name"`
	Price          float64     `json:"price"`
	Currency       string      `json:"currency"`
	Stars          int         `json:"stars,omitempty"`
	ReviewScore    float64     `json:"review_score"`
	ReviewCount    int         `json:"review_count,omitempty"`
	Address        string      `json:"location"`
	AvgDistanceKm  float64     `json:"avg_distance"`
	ValueScore     float64     `json:"value_score"`
	Link           string      `json:"link"`
	Coordinate     *Coordinate `json:"coordinate,omitempty"`
	WhyRecommended string      `json:"why_recommended,omitempty"`
}

// HotelCategory groups candidates under one of the three category names.
type HotelCategory struct {
	Name   string           `json:"name"`
	Hotels []HotelCandidate `json:"hotels"`
}

// HotelRecommendationSet is the hotel pipeline artifact.
type HotelRecommendationSet struct {
	City       string          `json:"city"`
	Currency   string          `json:"currency"`
	Categories []HotelCategory `json:"categories"`
	ProTips    []string        `json:"pro_tips,omitempty"`
}

// Category returns the named category, or nil when absent.
func (s *HotelRecommendationSet) Category(name string) *HotelCategory {
	for i := range s.Categories {
		if s.Categories[i].Name == name {
			return &s.Categories[i]
		}
	}
	return nil
}

// HotelSearchCriteria is the provider-facing filter set for one search.
type HotelSearchCriteria struct {
	City           string
	Country        string
	CheckinDate    string
	CheckoutDate   string
	Adults         int
	Rooms          int
	MinPrice       float64
	MaxPrice       float64
	Currency       string
	StarClasses    []int
	MinReviewScore float64
	MaxHotels      int
	OrderBy        string // price, popularity or review_score
}

// HotelRecord is a raw provider result before filtering and ranking.
type HotelRecord struct {
	ID          int64
	Name        string
	Price       float64
	Currency    string
	Stars       int
	ReviewScore float64
	ReviewCount int
	Address     string
	Coordinate  *Coordinate
}
