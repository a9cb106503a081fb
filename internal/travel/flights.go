package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const serpAPIBaseURL = "https://serpapi.com/search"

// maxResults bounds the rendered text block handed back to the assistant.
const maxResults = 5

// SearchConfig carries the shared settings for the SerpAPI search clients.
type SearchConfig struct {
	APIKey        string
	BaseURL       string
	DefaultOrigin string
	Currency      string
	HTTPClient    *http.Client
}

func (c SearchConfig) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return serpAPIBaseURL
}

func (c SearchConfig) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// FlightSearch queries the SerpAPI Google Flights engine.
type FlightSearch struct {
	cfg    SearchConfig
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewFlightSearch(cfg SearchConfig, logger *zap.Logger) *FlightSearch {
	return &FlightSearch{
		cfg:    cfg,
		client: cfg.httpClient(),
		logger: logger,
		now:    time.Now,
	}
}

var flightOptionalParams = []string{
	"gl", "hl", "currency", "travel_class", "show_hidden", "adults", "children",
	"infants_in_seat", "infants_on_lap", "stops", "exclude_airlines", "include_airlines",
	"bags", "max_price", "outbound_times", "return_times", "emissions", "layover_duration",
	"exclude_conns", "max_duration",
}

// Search runs a flight search for the given tool-call parameters and renders
// the ranked results as text. API-reported problems come back as readable
// text; only transport failures surface as errors.
func (s *FlightSearch) Search(ctx context.Context, params map[string]string) (string, error) {
	if len(params) == 0 {
		return "No travel request provided for flight search", nil
	}

	normalized := s.normalize(params)
	values := s.buildParams(normalized)

	data, err := fetchSearch(ctx, s.client, s.cfg.baseURL(), values)
	if err != nil {
		s.logger.Error("Flight search request failed", zap.Error(err))
		return "", err
	}

	var resp flightResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode flight results: %w", err)
	}
	if resp.Error != "" {
		return "Failed to retrieve flight data: " + resp.Error, nil
	}
	if len(resp.BestFlights) == 0 {
		return "No best flights found", nil
	}
	return formatFlightResults(resp.BestFlights), nil
}

func (s *FlightSearch) normalize(params map[string]string) map[string]string {
	normalized := make(map[string]string, len(params))
	for k, v := range params {
		normalized[k] = v
	}

	// IATA codes are always uppercase.
	if origin := normalized["origin"]; origin != "" && !strings.EqualFold(origin, "NULL") {
		normalized["origin"] = strings.ToUpper(origin)
	}
	if dest := normalized["destination"]; dest != "" {
		normalized["destination"] = strings.ToUpper(dest)
	}

	now := s.now()
	var departure time.Time
	for _, key := range []string{"departure_date", "return_date"} {
		raw := normalized[key]
		if raw == "" {
			continue
		}
		if IsWeekdayName(raw) {
			from := now
			if key == "return_date" && !departure.IsZero() {
				from = departure
			}
			normalized[key] = NextWeekday(raw, from)
		} else {
			normalized[key] = ParseDate(raw, now)
		}
		if key == "departure_date" {
			departure, _ = time.Parse(dateLayout, normalized[key])
		}
	}

	// A round trip must return after it departs.
	if normalized["departure_date"] != "" && normalized["return_date"] != "" {
		dep, depErr := time.Parse(dateLayout, normalized["departure_date"])
		ret, retErr := time.Parse(dateLayout, normalized["return_date"])
		if depErr == nil && retErr == nil && !ret.After(dep) {
			normalized["return_date"] = dep.AddDate(0, 0, 1).Format(dateLayout)
		}
	}

	switch strings.ToLower(normalized["origin"]) {
	case "", "null", "none":
		normalized["origin"] = s.cfg.DefaultOrigin
	}
	return normalized
}

func (s *FlightSearch) buildParams(req map[string]string) url.Values {
	values := url.Values{}
	values.Set("engine", "google_flights")
	values.Set("api_key", s.cfg.APIKey)
	values.Set("departure_id", req["origin"])
	values.Set("arrival_id", req["destination"])
	values.Set("outbound_date", req["departure_date"])

	if req["return_date"] != "" {
		values.Set("return_date", req["return_date"])
		values.Set("type", "1") // round trip
	} else {
		values.Set("type", "2") // one way
	}

	currency := s.cfg.Currency
	if currency == "" {
		currency = "USD"
	}
	defaults := map[string]string{
		"currency":        currency,
		"hl":              "en",
		"gl":              "us",
		"travel_class":    "1",
		"adults":          "1",
		"children":        "0",
		"infants_in_seat": "0",
		"infants_on_lap":  "0",
		"stops":           "0",
		"show_hidden":     "false",
	}
	for k, v := range defaults {
		values.Set(k, v)
	}
	for _, k := range flightOptionalParams {
		if v := req[k]; v != "" {
			values.Set(k, v)
		}
	}
	return values
}

type flightResponse struct {
	Error       string        `json:"error"`
	BestFlights []flightGroup `json:"best_flights"`
}

type flightGroup struct {
	Price   json.Number `json:"price"`
	Flights []flightLeg `json:"flights"`
}

type flightLeg struct {
	Airline          string      `json:"airline"`
	Duration         int         `json:"duration"`
	DepartureAirport airportStop `json:"departure_airport"`
	ArrivalAirport   airportStop `json:"arrival_airport"`
}

type airportStop struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Time string `json:"time"`
}

const flightTimeLayout = "2006-01-02 15:04"

func formatFlightResults(groups []flightGroup) string {
	var formatted []string
	for idx, group := range groups {
		if idx == maxResults {
			break
		}
		if len(group.Flights) == 0 {
			continue
		}

		airline := group.Flights[0].Airline
		if airline == "" {
			airline = "Unknown Airline"
		}
		price := group.Price.String()
		if price == "" {
			price = "N/A"
		}
		stops := len(group.Flights) - 1

		var legs []string
		for _, leg := range group.Flights {
			hours, minutes := leg.Duration/60, leg.Duration%60
			legs = append(legs, fmt.Sprintf(
				"  - Departure: %s (%s) on %s\n  - Arrival: %s (%s) on %s\n  - Duration: %dh %dm",
				leg.DepartureAirport.Name, leg.DepartureAirport.ID, formatFlightTime(leg.DepartureAirport.Time),
				leg.ArrivalAirport.Name, leg.ArrivalAirport.ID, formatFlightTime(leg.ArrivalAirport.Time),
				hours, minutes))
		}

		formatted = append(formatted, fmt.Sprintf("%d. %s - $%s - %d stop(s):\n%s",
			idx+1, airline, price, stops, strings.Join(legs, "\n")))
	}

	if len(formatted) == 0 {
		return "No flight results could be formatted."
	}
	return strings.Join(formatted, "\n\n")
}

func formatFlightTime(raw string) string {
	parsed, err := time.Parse(flightTimeLayout, raw)
	if err != nil {
		return raw
	}
	return parsed.Format("January 2 at 15:04")
}

// fetchSearch issues the GET request shared by the search clients.
func fetchSearch(ctx context.Context, client *http.Client, baseURL string, values url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
