package hotels

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-planner/internal/api"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

func newTestBookingClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		http:    api.NewHTTPClient(2*time.Second, 100, 1, "test"),
		baseURL: srv.URL,
		apiKey:  "rapid-test",
		locale:  defaultLocale,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_LocationID(t *testing.T) {
	ctx := context.Background()

	t.Run("prefers city typed matches", func(t *testing.T) {
		client := newTestBookingClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/hotels/locations", r.URL.Path)
			assert.Equal(t, "Sarajevo", r.URL.Query().Get("name"))
			assert.Equal(t, defaultLocale, r.URL.Query().Get("locale"))
			assert.Equal(t, "rapid-test", r.Header.Get("X-RapidAPI-Key"))
			assert.Equal(t, bookingHost, r.Header.Get("X-RapidAPI-Host"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"dest_id": "929", "dest_type": "district", "label": "Old Town"},
				{"dest_id": "-2092174", "dest_type": "city", "city_name": "Sarajevo"}
			]`))
		})

		id, err := client.LocationID(ctx, "Sarajevo", "")
		require.NoError(t, err)
		assert.Equal(t, "-2092174", id)
	})

	t.Run("falls back to the first match", func(t *testing.T) {
		client := newTestBookingClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"dest_id": "929", "dest_type": "district"}]`))
		})

		id, err := client.LocationID(ctx, "Sarajevo", "")
		require.NoError(t, err)
		assert.Equal(t, "929", id)
	})

	t.Run("retries with the country when the city alone misses", func(t *testing.T) {
		client := newTestBookingClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if r.URL.Query().Get("name") == "Springfield, USA" {
				_, _ = w.Write([]byte(`[{"dest_id": "514", "dest_type": "city"}]`))
				return
			}
			_, _ = w.Write([]byte(`[]`))
		})

		id, err := client.LocationID(ctx, "Springfield", "USA")
		require.NoError(t, err)
		assert.Equal(t, "514", id)
	})

	t.Run("unknown destination", func(t *testing.T) {
		client := newTestBookingClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		})

		_, err := client.LocationID(ctx, "Atlantis", "")
		assert.ErrorIs(t, err, types.ErrInsufficientData)
	})
}

func TestClient_SearchPage(t *testing.T) {
	ctx := context.Background()

	criteria := types.HotelSearchCriteria{
		City:         "Sarajevo",
		CheckinDate:  "2026-09-10",
		CheckoutDate: "2026-09-13",
		Adults:       2,
		Rooms:        1,
		MinPrice:     50,
		MaxPrice:     300,
		Currency:     "USD",
		StarClasses:  []int{3, 4},
		OrderBy:      "review_score",
	}

	t.Run("sends the full filter set and maps records", func(t *testing.T) {
		client := newTestBookingClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/hotels/search", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "-2092174", q.Get("dest_id"))
			assert.Equal(t, "city", q.Get("dest_type"))
			assert.Equal(t, "2026-09-10", q.Get("checkin_date"))
			assert.Equal(t, "2026-09-13", q.Get("checkout_date"))
			assert.Equal(t, "2", q.Get("adults_number"))
			assert.Equal(t, "1", q.Get("room_number"))
			assert.Equal(t, "review_score", q.Get("order_by"))
			assert.Equal(t, "USD", q.Get("filter_by_currency"))
			assert.Equal(t, "metric", q.Get("units"))
			assert.Equal(t, "50", q.Get("price_min"))
			assert.Equal(t, "300", q.Get("price_max"))
			assert.Equal(t, "3,4", q.Get("stars"))
			assert.Equal(t, "2", q.Get("page_number"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"result": [
					{
						"hotel_id": 111, "hotel_name": "Hotel Central", "min_total_price": 210.5,
						"currencycode": "USD", "review_score": 8.7, "review_nr": 1520,
						"address": "1 Main St", "latitude": 43.8575, "longitude": 18.4289, "class": 4
					},
					{
						"hotel_id": 222, "hotel_name": "Pension Stari Grad", "min_total_price": 95,
						"currencycode": "USD", "review_score": null, "review_nr": 0,
						"address": "5 Side St", "class": 3
					}
				]
			}`))
		})

		records, err := client.SearchPage(ctx, "-2092174", criteria, 2)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, int64(111), records[0].ID)
		assert.Equal(t, "Hotel Central", records[0].Name)
		assert.Equal(t, 210.5, records[0].Price)
		assert.Equal(t, 4, records[0].Stars)
		assert.Equal(t, 8.7, records[0].ReviewScore)
		require.NotNil(t, records[0].Coordinate)
		assert.Equal(t, 43.8575, records[0].Coordinate.Latitude)

		assert.Equal(t, 0.0, records[1].ReviewScore)
		assert.Nil(t, records[1].Coordinate)
	})

	t.Run("server failure is a provider error", func(t *testing.T) {
		client := newTestBookingClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		})

		_, err := client.SearchPage(ctx, "-2092174", criteria, 0)
		assert.ErrorIs(t, err, types.ErrProvider)
	})
}

func TestBookingLink(t *testing.T) {
	assert.Equal(t, "https://www.booking.com/hotel/1377073.html", BookingLink(1377073))
}
