// Package hotels searches, filters, enriches and ranks stays around the
// attractions of a trip run.
package hotels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-travel-planner/internal/api"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

const (
	defaultBookingBaseURL = "https://booking-com.p.rapidapi.com"
	bookingHost           = "booking-com.p.rapidapi.com"
	defaultLocale         = "en-gb"
)

// Client calls the Booking.com affiliate API exposed through RapidAPI.
type Client struct {
	http    *api.HTTPClient
	baseURL string
	apiKey  string
	locale  string
	logger  *slog.Logger
}

// NewClient builds a hotel search client. The API key is read from
// RAPIDAPI_KEY when apiKey is empty.
func NewClient(httpClient *api.HTTPClient, apiKey string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("RAPIDAPI_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("hotels: missing RAPIDAPI_KEY")
	}
	if httpClient == nil {
		httpClient = api.NewHTTPClient(0, 0, 0, "")
	}
	return &Client{
		http:    httpClient,
		baseURL: defaultBookingBaseURL,
		apiKey:  apiKey,
		locale:  defaultLocale,
		logger:  logger.With(slog.String("client", "booking_com")),
	}, nil
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("X-RapidAPI-Key", c.apiKey)
	h.Set("X-RapidAPI-Host", bookingHost)
	return h
}

type bookingLocation struct {
	DestID   string `json:"dest_id"`
	DestType string `json:"dest_type"`
	CityName string `json:"city_name"`
	Label    string `json:"label"`
}

// LocationID resolves a city to the provider's destination id. Preference
// goes to city-typed matches; country narrows the lookup when the plain city
// name finds nothing.
func (c *Client) LocationID(ctx context.Context, city, country string) (string, error) {
	id, err := c.findDestination(ctx, city)
	if err != nil {
		return "", fmt.Errorf("hotel locations %q: %w", city, err)
	}
	if id == "" && country != "" {
		id, err = c.findDestination(ctx, city+", "+country)
		if err != nil {
			return "", fmt.Errorf("hotel locations %q: %w", city+", "+country, err)
		}
	}
	if id == "" {
		return "", fmt.Errorf("%w: no bookable destination matches %q", types.ErrInsufficientData, city)
	}
	return id, nil
}

func (c *Client) findDestination(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("locale", c.locale)

	var locations []bookingLocation
	if err := c.http.GetJSON(ctx, c.baseURL+"/v1/hotels/locations?"+q.Encode(), c.headers(), &locations); err != nil {
		return "", err
	}
	for _, loc := range locations {
		if loc.DestType == "city" {
			return loc.DestID, nil
		}
	}
	if len(locations) > 0 {
		return locations[0].DestID, nil
	}
	return "", nil
}

type bookingHotel struct {
	HotelID       int64    `json:"hotel_id"`
	HotelName     string   `json:"hotel_name"`
	MinTotalPrice float64  `json:"min_total_price"`
	CurrencyCode  string   `json:"currencycode"`
	ReviewScore   *float64 `json:"review_score"`
	ReviewNr      int      `json:"review_nr"`
	Address       string   `json:"address"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Class         float64  `json:"class"`
}

type bookingSearchResponse struct {
	Result []bookingHotel `json:"result"`
}

// SearchPage fetches one page of hotel results for the destination. Pages
// start at 0; an empty slice means the provider ran out of results.
func (c *Client) SearchPage(ctx context.Context, destID string, criteria types.HotelSearchCriteria, page int) ([]types.HotelRecord, error) {
	orderBy := criteria.OrderBy
	if orderBy == "" {
		orderBy = "popularity"
	}

	q := url.Values{}
	q.Set("dest_id", destID)
	q.Set("dest_type", "city")
	q.Set("checkin_date", criteria.CheckinDate)
	q.Set("checkout_date", criteria.CheckoutDate)
	q.Set("adults_number", strconv.Itoa(criteria.Adults))
	q.Set("room_number", strconv.Itoa(criteria.Rooms))
	q.Set("locale", c.locale)
	q.Set("units", "metric")
	q.Set("order_by", orderBy)
	q.Set("filter_by_currency", criteria.Currency)
	q.Set("page_number", strconv.Itoa(page))
	if criteria.MinPrice > 0 {
		q.Set("price_min", strconv.FormatFloat(criteria.MinPrice, 'f', -1, 64))
	}
	if criteria.MaxPrice > 0 {
		q.Set("price_max", strconv.FormatFloat(criteria.MaxPrice, 'f', -1, 64))
	}
	if len(criteria.StarClasses) > 0 {
		stars := make([]string, len(criteria.StarClasses))
		for i, s := range criteria.StarClasses {
			stars[i] = strconv.Itoa(s)
		}
		q.Set("stars", strings.Join(stars, ","))
	}

	var resp bookingSearchResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/v1/hotels/search?"+q.Encode(), c.headers(), &resp); err != nil {
		return nil, fmt.Errorf("hotel search page %d: %w", page, err)
	}

	records := make([]types.HotelRecord, 0, len(resp.Result))
	for _, h := range resp.Result {
		rec := types.HotelRecord{
			ID:          h.HotelID,
			Name:        h.HotelName,
			Price:       h.MinTotalPrice,
			Currency:    h.CurrencyCode,
			Stars:       int(h.Class),
			ReviewCount: h.ReviewNr,
			Address:     h.Address,
		}
		if h.ReviewScore != nil {
			rec.ReviewScore = *h.ReviewScore
		}
		if h.Latitude != nil && h.Longitude != nil {
			rec.Coordinate = &types.Coordinate{Latitude: *h.Latitude, Longitude: *h.Longitude}
		}
		records = append(records, rec)
	}

	c.logger.DebugContext(ctx, "Hotel search page fetched",
		slog.String("dest_id", destID),
		slog.Int("page", page),
		slog.Int("records", len(records)))
	return records, nil
}

// BookingLink is the public page for a hotel id.
func BookingLink(hotelID int64) string {
	return fmt.Sprintf("https://www.booking.com/hotel/%d.html", hotelID)
}
