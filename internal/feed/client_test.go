package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-ops-backend/config"
)

func feedConfig(url string, pageSize int) config.FeedConfig {
	return config.FeedConfig{
		Request: config.FeedRequest{
			URL:      url,
			PageSize: pageSize,
			Headers:  map[string]string{"X-Api-Key": "secret"},
			Payload:  map[string]any{"venue": "main"},
		},
	}
}

func TestClient_FetchPaginates(t *testing.T) {
	var mu sync.Mutex
	var pages []float64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "main", payload["venue"])
		assert.Equal(t, "2026-10-18", payload["date"])

		page := payload["page"].(float64)
		mu.Lock()
		pages = append(pages, page)
		mu.Unlock()

		items := []ApiBooking{{ID: "b1"}, {ID: "b2"}}
		if page == 2 {
			items = []ApiBooking{{ID: "b3"}}
		}
		json.NewEncoder(w).Encode(ApiResponse{
			Code: 0,
			Data: ApiPage{Page: int(page), PageSize: 2, Total: 3, Items: items},
		})
	}))
	defer server.Close()

	items, err := NewClient(feedConfig(server.URL, 2)).Fetch(context.Background(), "2026-10-18")
	require.NoError(t, err)

	got := make([]string, 0, len(items))
	for _, it := range items {
		got = append(got, it.ID)
	}
	assert.Equal(t, []string{"b1", "b2", "b3"}, got)
	assert.Equal(t, []float64{1, 2}, pages)
}

func TestClient_FetchFollowsServerPageSize(t *testing.T) {
	var mu sync.Mutex
	var pages []float64

	// The API caps pages at 2 items although 10 were requested.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		page := int(payload["page"].(float64))
		mu.Lock()
		pages = append(pages, float64(page))
		mu.Unlock()

		all := []ApiBooking{{ID: "b1"}, {ID: "b2"}, {ID: "b3"}, {ID: "b4"}, {ID: "b5"}}
		from := (page - 1) * 2
		to := from + 2
		if from > len(all) {
			from = len(all)
		}
		if to > len(all) {
			to = len(all)
		}
		json.NewEncoder(w).Encode(ApiResponse{Data: ApiPage{Page: page, PageSize: 2, Total: len(all), Items: all[from:to]}})
	}))
	defer server.Close()

	items, err := NewClient(feedConfig(server.URL, 10)).Fetch(context.Background(), "2026-10-18")
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Equal(t, []float64{1, 2, 3}, pages)
}

func TestClient_FetchTruncatedDayFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		items := []ApiBooking{{ID: "b1"}, {ID: "b2"}}
		if payload["page"].(float64) > 1 {
			items = nil
		}
		json.NewEncoder(w).Encode(ApiResponse{Data: ApiPage{Page: 1, PageSize: 2, Total: 4, Items: items}})
	}))
	defer server.Close()

	items, err := NewClient(feedConfig(server.URL, 10)).Fetch(context.Background(), "2026-10-18")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 2 of 4")
	assert.Nil(t, items)
}

func TestClient_FetchEmptyDay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ApiResponse{Code: 0})
	}))
	defer server.Close()

	items, err := NewClient(feedConfig(server.URL, 10)).Fetch(context.Background(), "2026-10-18")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClient_FetchErrors(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "Non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "Application error code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(ApiResponse{Code: 401})
			},
		},
		{
			name: "Malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>maintenance</html>"))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			_, err := NewClient(feedConfig(server.URL, 10)).Fetch(context.Background(), "2026-10-18")
			assert.Error(t, err)
		})
	}
}
