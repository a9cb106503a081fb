package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/halverson/concierge-bot/internal/assistant"
	"github.com/halverson/concierge-bot/internal/travel"
)

const flightResultsJSON = `{
	"best_flights": [
		{
			"price": 250,
			"flights": [
				{
					"airline": "United",
					"duration": 332,
					"departure_airport": {"name": "San Francisco International Airport", "id": "SFO", "time": "2026-09-10 08:00"},
					"arrival_airport": {"name": "John F. Kennedy International Airport", "id": "JFK", "time": "2026-09-10 16:32"}
				}
			]
		}
	]
}`

const hotelResultsJSON = `{
	"hotels_results": [
		{
			"name": "Hotel Kabuki",
			"price": "$220",
			"rating": 4.3,
			"reviews": 1824,
			"address": "1625 Post St, San Francisco",
			"description": "Modern hotel in Japantown"
		}
	]
}`

// newTestDispatcher wires the dispatcher against one test server answering
// both search engines. requests counts the calls that reached the server.
func newTestDispatcher(t *testing.T) (*Dispatcher, *int) {
	t.Helper()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		switch r.URL.Query().Get("engine") {
		case "google_flights":
			w.Write([]byte(flightResultsJSON))
		case "google_hotels":
			w.Write([]byte(hotelResultsJSON))
		default:
			http.Error(w, "unknown engine", http.StatusBadRequest)
		}
	}))
	t.Cleanup(server.Close)

	cfg := travel.SearchConfig{APIKey: "test-key", BaseURL: server.URL, DefaultOrigin: "SFO"}
	flights := travel.NewFlightSearch(cfg, zap.NewNop())
	hotels := travel.NewHotelSearch(cfg, zap.NewNop())
	planner := travel.NewPlanner(flights, hotels, zap.NewNop())
	return NewDispatcher(flights, hotels, planner, zap.NewNop()), &requests
}

func TestExtractPendingCall(t *testing.T) {
	run := &assistant.Run{
		PendingCalls: []assistant.ToolCall{
			{ID: "call_1", Name: "search_flights"},
			{ID: "call_2", Name: "search_hotels"},
		},
	}
	call, err := ExtractPendingCall(run)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if call.ID != "call_1" {
		t.Errorf("expected first call, got %s", call.ID)
	}

	_, err = ExtractPendingCall(&assistant.Run{})
	if !errors.Is(err, ErrNoPendingCall) {
		t.Errorf("expected ErrNoPendingCall, got %v", err)
	}
}

func TestDispatchFlightSearch(t *testing.T) {
	d, requests := newTestDispatcher(t)

	out := d.Dispatch(context.Background(), assistant.ToolCall{
		ID:        "call_1",
		Name:      "search_flights",
		Arguments: `{"origin":"SFO","destination":"JFK","departure_date":"2026-09-10"}`,
	})

	if out.CallID != "call_1" {
		t.Errorf("expected call_1, got %s", out.CallID)
	}
	if !strings.Contains(out.Output, "1. United - $250 - 0 stop(s):") {
		t.Errorf("unexpected output:\n%s", out.Output)
	}
	if *requests != 1 {
		t.Errorf("expected 1 request, got %d", *requests)
	}
}

func TestDispatchFlightSearchMissingParams(t *testing.T) {
	d, requests := newTestDispatcher(t)

	tests := []string{
		`{"origin":"SFO","departure_date":"2026-09-10"}`, // no destination
		`{"origin":"SFO","destination":"JFK"}`,           // no departure date
		`not json`,
	}
	for _, args := range tests {
		out := d.Dispatch(context.Background(), assistant.ToolCall{
			ID:        "call_1",
			Name:      "search_flights",
			Arguments: args,
		})
		if out.Output != "Missing required parameters for flight search" {
			t.Errorf("args %q: unexpected output %q", args, out.Output)
		}
	}
	if *requests != 0 {
		t.Errorf("missing parameters must not hit the network, got %d requests", *requests)
	}
}

func TestDispatchHotelSearch(t *testing.T) {
	d, _ := newTestDispatcher(t)

	out := d.Dispatch(context.Background(), assistant.ToolCall{
		ID:        "call_1",
		Name:      "search_hotels",
		Arguments: `{"location":"San Francisco","check_in_date":"2026-09-10","check_out_date":"2026-09-12"}`,
	})
	if !strings.Contains(out.Output, "1. Hotel Kabuki") {
		t.Errorf("unexpected output:\n%s", out.Output)
	}
}

func TestDispatchHotelSearchMissingParams(t *testing.T) {
	d, requests := newTestDispatcher(t)

	out := d.Dispatch(context.Background(), assistant.ToolCall{
		ID:        "call_1",
		Name:      "search_hotels",
		Arguments: `{"location":"San Francisco"}`,
	})
	if out.Output != "Missing required parameters for hotel search" {
		t.Errorf("unexpected output: %q", out.Output)
	}
	if *requests != 0 {
		t.Errorf("missing parameters must not hit the network, got %d requests", *requests)
	}
}

func TestDispatchPlanTrip(t *testing.T) {
	d, requests := newTestDispatcher(t)

	out := d.Dispatch(context.Background(), assistant.ToolCall{
		ID:   "call_1",
		Name: "plan_trip",
		Arguments: `{"travel_request":{"origin":"SFO","destination":"JFK","departure_date":"2026-09-10",` +
			`"check_in":"2026-09-10","check_out":"2026-09-12"}}`,
	})
	if !strings.Contains(out.Output, "Accommodations in JFK") {
		t.Errorf("missing accommodations in:\n%s", out.Output)
	}
	if !strings.Contains(out.Output, "Flights from SFO to JFK") {
		t.Errorf("missing flights in:\n%s", out.Output)
	}
	if *requests != 2 {
		t.Errorf("expected 2 requests, got %d", *requests)
	}
}

func TestDispatchPlanTripMissingParams(t *testing.T) {
	d, _ := newTestDispatcher(t)

	tests := []string{
		`{}`,
		`{"travel_request":{"destination":"JFK"}}`,
		`not json`,
	}
	for _, args := range tests {
		out := d.Dispatch(context.Background(), assistant.ToolCall{
			ID:        "call_1",
			Name:      "plan_trip",
			Arguments: args,
		})
		if out.Output != "Missing required parameters for trip planning" {
			t.Errorf("args %q: unexpected output %q", args, out.Output)
		}
	}
}

func TestDispatchUnknownFunction(t *testing.T) {
	d, _ := newTestDispatcher(t)

	out := d.Dispatch(context.Background(), assistant.ToolCall{
		ID:        "call_1",
		Name:      "frobnicate",
		Arguments: `{}`,
	})
	if out.Output != "Unknown function: frobnicate" {
		t.Errorf("unexpected output: %q", out.Output)
	}
}

func TestDispatchNumericArgumentsCoerced(t *testing.T) {
	d, _ := newTestDispatcher(t)

	out := d.Dispatch(context.Background(), assistant.ToolCall{
		ID:        "call_1",
		Name:      "search_flights",
		Arguments: `{"origin":"SFO","destination":"JFK","departure_date":"2026-09-10","adults":2}`,
	})
	if strings.HasPrefix(out.Output, "Missing required parameters") {
		t.Errorf("numeric extras must not break dispatch, got %q", out.Output)
	}
}
