package travel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

const hotelResultsJSON = `{
	"hotels_results": [
		{
			"name": "Hotel Kabuki",
			"price": "$220",
			"rating": 4.3,
			"reviews": 1824,
			"address": "1625 Post St, San Francisco",
			"description": "Modern hotel in Japantown"
		},
		{
			"name": "Palace Hotel",
			"price": "$410",
			"rating": 4.6,
			"reviews": 5210,
			"address": "2 New Montgomery St, San Francisco",
			"description": "Landmark luxury hotel"
		}
	]
}`

func newTestHotelSearch(t *testing.T, handler http.HandlerFunc) *HotelSearch {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	search := NewHotelSearch(SearchConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Currency: "USD",
	}, zap.NewNop())
	search.now = func() time.Time { return fixedNow }
	return search
}

func TestHotelSearchFormatsResults(t *testing.T) {
	var query map[string]string
	search := newTestHotelSearch(t, func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(hotelResultsJSON))
	})

	got, err := search.Search(context.Background(), map[string]string{
		"location":       "San Francisco",
		"check_in_date":  "2026-09-10",
		"check_out_date": "2026-09-12",
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if query["engine"] != "google_hotels" {
		t.Errorf("expected engine google_hotels, got %q", query["engine"])
	}
	if query["q"] != "San Francisco" {
		t.Errorf("expected q San Francisco, got %q", query["q"])
	}
	if query["check_in_date"] != "2026-09-10" || query["check_out_date"] != "2026-09-12" {
		t.Errorf("unexpected dates: %q to %q", query["check_in_date"], query["check_out_date"])
	}
	if query["adults"] != "2" {
		t.Errorf("expected default 2 adults, got %q", query["adults"])
	}

	if !strings.Contains(got, "1. Hotel Kabuki") {
		t.Errorf("missing first hotel in:\n%s", got)
	}
	if !strings.Contains(got, "Rating: 4.3/5 (1824 reviews)") {
		t.Errorf("missing rating line in:\n%s", got)
	}
	if !strings.Contains(got, "2. Palace Hotel") {
		t.Errorf("missing second hotel in:\n%s", got)
	}
}

func TestHotelSearchWeekendResolvesBothDates(t *testing.T) {
	var query map[string]string
	search := newTestHotelSearch(t, func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(hotelResultsJSON))
	})

	_, err := search.Search(context.Background(), map[string]string{
		"location":      "San Francisco",
		"check_in_date": "this weekend",
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if query["check_in_date"] != "2026-09-05" || query["check_out_date"] != "2026-09-06" {
		t.Errorf("expected weekend dates, got %q to %q", query["check_in_date"], query["check_out_date"])
	}
}

func TestHotelSearchAPIErrorBecomesText(t *testing.T) {
	search := newTestHotelSearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Invalid API key"}`))
	})

	got, err := search.Search(context.Background(), map[string]string{
		"location":       "San Francisco",
		"check_in_date":  "2026-09-10",
		"check_out_date": "2026-09-12",
	})
	if err != nil {
		t.Fatalf("API error should not surface as error: %v", err)
	}
	if got != "Failed to retrieve hotel data: Invalid API key" {
		t.Errorf("unexpected response: %q", got)
	}
}

func TestHotelSearchNoResults(t *testing.T) {
	search := newTestHotelSearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hotels_results": []}`))
	})

	got, err := search.Search(context.Background(), map[string]string{
		"location":       "San Francisco",
		"check_in_date":  "2026-09-10",
		"check_out_date": "2026-09-12",
	})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if got != "No hotels found" {
		t.Errorf("unexpected response: %q", got)
	}
}
