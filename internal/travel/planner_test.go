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

// newTestPlanner serves both search engines from one test server, switching
// on the engine query parameter.
func newTestPlanner(t *testing.T) (*Planner, *[]string) {
	t.Helper()

	var engines []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		engine := r.URL.Query().Get("engine")
		engines = append(engines, engine)
		switch engine {
		case "google_flights":
			w.Write([]byte(flightResultsJSON))
		case "google_hotels":
			w.Write([]byte(hotelResultsJSON))
		default:
			http.Error(w, "unknown engine", http.StatusBadRequest)
		}
	}))
	t.Cleanup(server.Close)

	cfg := SearchConfig{APIKey: "test-key", BaseURL: server.URL, DefaultOrigin: "SFO", Currency: "USD"}
	flights := NewFlightSearch(cfg, zap.NewNop())
	flights.now = func() time.Time { return fixedNow }
	hotels := NewHotelSearch(cfg, zap.NewNop())
	hotels.now = func() time.Time { return fixedNow }

	planner := NewPlanner(flights, hotels, zap.NewNop())
	planner.now = func() time.Time { return fixedNow }
	return planner, &engines
}

func TestPlanTripCombinesFlightsAndHotels(t *testing.T) {
	planner, engines := newTestPlanner(t)

	got, err := planner.PlanTrip(context.Background(), TripRequest{
		Origin:        "sfo",
		Destination:   "jfk",
		DepartureDate: "2026-09-10",
		ReturnDate:    "2026-09-15",
		CheckIn:       "2026-09-10",
		CheckOut:      "2026-09-15",
	})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	if !strings.Contains(got, "Accommodations in JFK from 2026-09-10 to 2026-09-15:") {
		t.Errorf("missing accommodations section in:\n%s", got)
	}
	if !strings.Contains(got, "Flights from SFO to JFK on 2026-09-10:") {
		t.Errorf("missing flights section in:\n%s", got)
	}
	if len(*engines) != 2 || (*engines)[0] != "google_hotels" || (*engines)[1] != "google_flights" {
		t.Errorf("expected hotels then flights, got %v", *engines)
	}
}

func TestPlanTripFlightsOnly(t *testing.T) {
	planner, engines := newTestPlanner(t)

	got, err := planner.PlanTrip(context.Background(), TripRequest{
		Origin:        "SFO",
		Destination:   "JFK",
		DepartureDate: "friday",
	})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	if !strings.Contains(got, "Flights from SFO to JFK on 2026-09-04:") {
		t.Errorf("missing flights section in:\n%s", got)
	}
	if strings.Contains(got, "Accommodations") {
		t.Errorf("unexpected accommodations section in:\n%s", got)
	}
	if len(*engines) != 1 || (*engines)[0] != "google_flights" {
		t.Errorf("expected only a flight search, got %v", *engines)
	}
}

func TestPlanTripDefaultsMissingOrigin(t *testing.T) {
	planner, _ := newTestPlanner(t)

	got, err := planner.PlanTrip(context.Background(), TripRequest{
		Origin:        "null",
		Destination:   "jfk",
		DepartureDate: "2026-09-10",
	})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if !strings.Contains(got, "Flights from SFO to JFK") {
		t.Errorf("expected default origin SFO in:\n%s", got)
	}
}

func TestPlanTripInsufficientInformation(t *testing.T) {
	planner, engines := newTestPlanner(t)

	got, err := planner.PlanTrip(context.Background(), TripRequest{Destination: "JFK"})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if !strings.Contains(got, "couldn't determine what specific travel information") {
		t.Errorf("expected the apology text, got:\n%s", got)
	}
	if len(*engines) != 0 {
		t.Errorf("expected no searches, got %v", *engines)
	}
}

func TestPlanTripWeekendStay(t *testing.T) {
	planner, _ := newTestPlanner(t)

	got, err := planner.PlanTrip(context.Background(), TripRequest{
		Destination: "paris",
		CheckIn:     "this weekend",
	})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if !strings.Contains(got, "Accommodations in PARIS from 2026-09-05 to 2026-09-06:") {
		t.Errorf("missing weekend accommodations section in:\n%s", got)
	}
}
