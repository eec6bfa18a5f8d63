package websearch

import (
	"context"
	"encoding/json"
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

func newTestSearchClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		http:    api.NewHTTPClient(2*time.Second, 100, 1, "test"),
		baseURL: srv.URL,
		apiKey:  "tvly-test",
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("posts query and decodes results", func(t *testing.T) {
		client := newTestSearchClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/search", r.URL.Path)

			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "tvly-test", req["api_key"])
			assert.Equal(t, "top attractions in Sarajevo", req["query"])
			assert.Equal(t, float64(3), req["max_results"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"results": [
					{"title": "Old Town", "url": "https://example.com/a", "content": "Bascarsija is the historic bazaar.", "score": 0.93},
					{"title": "Museums", "url": "https://example.com/b", "content": "The tunnel museum covers the siege.", "score": 0.88}
				]
			}`))
		})

		results, err := client.Search(ctx, "top attractions in Sarajevo", 3)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Old Town", results[0].Title)
		assert.InDelta(t, 0.93, results[0].Score, 1e-9)
	})

	t.Run("unauthorized is a provider error", func(t *testing.T) {
		client := newTestSearchClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail": "invalid api key"}`, http.StatusUnauthorized)
		})

		_, err := client.Search(ctx, "anything", 1)
		assert.ErrorIs(t, err, types.ErrProvider)
	})
}

func TestSnippetBlock(t *testing.T) {
	t.Run("joins titled snippets", func(t *testing.T) {
		block := SnippetBlock([]Result{
			{Title: "Old Town", Content: "Historic bazaar district."},
			{Title: "", Content: "Free walking tours start at noon."},
		})
		assert.Equal(t, "- Old Town: Historic bazaar district.\n- Free walking tours start at noon.", block)
	})

	t.Run("empty input yields empty block", func(t *testing.T) {
		assert.Empty(t, SnippetBlock(nil))
		assert.Empty(t, SnippetBlock([]Result{{Title: "  ", Content: ""}}))
	})
}
