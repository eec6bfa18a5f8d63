package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/FACorreiaa/go-travel-planner/internal/api"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

const defaultMapsBaseURL = "https://maps.googleapis.com"

// ErrNoResults indicates the geocoder returned no match for an address.
// Callers resolving a batch absorb it per name instead of failing the run.
var ErrNoResults = errors.New("geocoding returned no results")

// Client talks to the Google Maps web services used by the resolver:
// Geocoding for coordinates and the Distance Matrix for travel estimates.
type Client struct {
	http    *api.HTTPClient
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewClient builds a Maps client. The API key is read from
// GOOGLE_MAPS_API_KEY when apiKey is empty.
func NewClient(httpClient *api.HTTPClient, apiKey string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("geo: missing GOOGLE_MAPS_API_KEY")
	}
	if httpClient == nil {
		httpClient = api.NewHTTPClient(0, 0, 0, "")
	}
	return &Client{
		http:    httpClient,
		baseURL: defaultMapsBaseURL,
		apiKey:  apiKey,
		logger:  logger.With(slog.String("client", "google_maps")),
	}, nil
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Geocode resolves a free-form address to a coordinate pair. Addresses
// should carry the city suffix ("Louvre Museum, Paris") so homonyms in
// other cities do not win.
func (c *Client) Geocode(ctx context.Context, address string) (types.Coordinate, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s/maps/api/geocode/json?%s", c.baseURL, q.Encode())

	var resp geocodeResponse
	if err := c.http.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return types.Coordinate{}, fmt.Errorf("geocode %q: %w", address, err)
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return types.Coordinate{}, fmt.Errorf("geocode %q: %w", address, ErrNoResults)
	default:
		c.logger.WarnContext(ctx, "Geocoding request rejected",
			slog.String("status", resp.Status),
			slog.String("message", resp.ErrorMessage))
		return types.Coordinate{}, fmt.Errorf("%w: geocode status %s", types.ErrProvider, resp.Status)
	}
	if len(resp.Results) == 0 {
		return types.Coordinate{}, fmt.Errorf("geocode %q: %w", address, ErrNoResults)
	}

	loc := resp.Results[0].Geometry.Location
	return types.Coordinate{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}

type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Duration struct {
				Text string `json:"text"`
			} `json:"duration"`
			Distance struct {
				Text string `json:"text"`
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// TravelEstimate is a human-readable duration and distance between two
// places for a given travel mode, e.g. "25 mins" over "7.2 km".
type TravelEstimate struct {
	Duration string
	Distance string
}

// ETA asks the Distance Matrix for a single origin/destination estimate.
// The result is advisory; planning never fails because an ETA is missing.
func (c *Client) ETA(ctx context.Context, origin, destination, mode string) (TravelEstimate, error) {
	q := url.Values{}
	q.Set("origins", origin)
	q.Set("destinations", destination)
	q.Set("mode", mode)
	q.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s/maps/api/distancematrix/json?%s", c.baseURL, q.Encode())

	var resp distanceMatrixResponse
	if err := c.http.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return TravelEstimate{}, fmt.Errorf("distance matrix: %w", err)
	}
	if resp.Status != "OK" || len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return TravelEstimate{}, fmt.Errorf("%w: distance matrix status %s", types.ErrProvider, resp.Status)
	}

	elem := resp.Rows[0].Elements[0]
	if elem.Status != "OK" {
		return TravelEstimate{}, fmt.Errorf("distance matrix element status %s: %w", elem.Status, ErrNoResults)
	}
	return TravelEstimate{Duration: elem.Duration.Text, Distance: elem.Distance.Text}, nil
}
