package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HotelSearch queries the SerpAPI Google Hotels engine.
type HotelSearch struct {
	cfg    SearchConfig
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewHotelSearch(cfg SearchConfig, logger *zap.Logger) *HotelSearch {
	return &HotelSearch{
		cfg:    cfg,
		client: cfg.httpClient(),
		logger: logger,
		now:    time.Now,
	}
}

var hotelOptionalParams = []string{
	"gl", "hl", "currency", "adults", "children", "children_ages",
	"sort_by", "min_price", "max_price", "property_types", "amenities",
	"rating", "brands", "hotel_class", "free_cancellation", "special_offers",
	"eco_certified", "vacation_rentals", "bedrooms", "bathrooms",
}

// Search runs a hotel search for the given tool-call parameters and renders
// the ranked results as text. API-reported problems come back as readable
// text; only transport failures surface as errors.
func (s *HotelSearch) Search(ctx context.Context, params map[string]string) (string, error) {
	normalized := s.normalize(params)
	values := s.buildParams(normalized)

	data, err := fetchSearch(ctx, s.client, s.cfg.baseURL(), values)
	if err != nil {
		s.logger.Error("Hotel search request failed", zap.Error(err))
		return "", err
	}

	var resp hotelResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode hotel results: %w", err)
	}
	if resp.Error != "" {
		return "Failed to retrieve hotel data: " + resp.Error, nil
	}
	if len(resp.Hotels) == 0 {
		return "No hotels found", nil
	}
	return formatHotelResults(resp.Hotels), nil
}

func (s *HotelSearch) normalize(params map[string]string) map[string]string {
	normalized := make(map[string]string, len(params))
	for k, v := range params {
		normalized[k] = v
	}

	now := s.now()
	if normalized["check_in_date"] == "this weekend" || normalized["check_out_date"] == "this weekend" {
		checkIn, checkOut := WeekendDates(now)
		normalized["check_in_date"] = checkIn
		normalized["check_out_date"] = checkOut
		return normalized
	}
	for _, key := range []string{"check_in_date", "check_out_date"} {
		if raw := normalized[key]; raw != "" {
			normalized[key] = ParseDate(raw, now)
		}
	}
	return normalized
}

func (s *HotelSearch) buildParams(req map[string]string) url.Values {
	values := url.Values{}
	values.Set("engine", "google_hotels")
	values.Set("api_key", s.cfg.APIKey)
	values.Set("q", req["location"])
	values.Set("check_in_date", req["check_in_date"])
	values.Set("check_out_date", req["check_out_date"])

	currency := s.cfg.Currency
	if currency == "" {
		currency = "USD"
	}
	defaults := map[string]string{
		"currency": currency,
		"hl":       "en",
		"gl":       "us",
		"adults":   "2",
		"children": "0",
		"rating":   "8",
		"output":   "json",
	}
	for k, v := range defaults {
		values.Set(k, v)
	}
	for _, k := range hotelOptionalParams {
		if v := req[k]; v != "" {
			values.Set(k, v)
		}
	}
	return values
}

type hotelResponse struct {
	Error  string        `json:"error"`
	Hotels []hotelResult `json:"hotels_results"`
}

type hotelResult struct {
	Name        string  `json:"name"`
	Price       string  `json:"price"`
	Rating      float64 `json:"rating"`
	Reviews     int     `json:"reviews"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
}

func formatHotelResults(hotels []hotelResult) string {
	var formatted []string
	for idx, hotel := range hotels {
		if idx == maxResults {
			break
		}
		name := hotel.Name
		if name == "" {
			name = "N/A"
		}
		price := hotel.Price
		if price == "" {
			price = "N/A"
		}
		formatted = append(formatted, fmt.Sprintf(
			"%d. %s\n  - Price: %s\n  - Rating: %.1f/5 (%d reviews)\n  - Address: %s\n  - Description: %s",
			idx+1, name, price, hotel.Rating, hotel.Reviews, hotel.Address, hotel.Description))
	}
	return strings.Join(formatted, "\n\n")
}
