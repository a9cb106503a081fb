package travel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TripRequest is the parsed travel request handed to the planner by the
// plan_trip tool call.
type TripRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
}

// Planner composes flight and hotel searches into one trip plan.
type Planner struct {
	flights *FlightSearch
	hotels  *HotelSearch
	logger  *zap.Logger
	now     func() time.Time
}

func NewPlanner(flights *FlightSearch, hotels *HotelSearch, logger *zap.Logger) *Planner {
	return &Planner{
		flights: flights,
		hotels:  hotels,
		logger:  logger,
		now:     time.Now,
	}
}

// PlanTrip searches accommodations and flights for whichever parts of the
// request carry enough information, and renders the combined plan as text.
func (p *Planner) PlanTrip(ctx context.Context, req TripRequest) (string, error) {
	req = p.normalize(req)
	p.logger.Info("Planning trip",
		zap.String("origin", req.Origin),
		zap.String("destination", req.Destination),
		zap.String("departure_date", req.DepartureDate))

	var sections []string

	if req.Destination != "" && req.CheckIn != "" && req.CheckOut != "" {
		hotels, err := p.hotels.Search(ctx, map[string]string{
			"location":       req.Destination,
			"check_in_date":  req.CheckIn,
			"check_out_date": req.CheckOut,
		})
		if err != nil {
			return "", fmt.Errorf("hotel search failed while planning trip: %w", err)
		}
		sections = append(sections, fmt.Sprintf("Accommodations in %s from %s to %s:\n%s",
			req.Destination, req.CheckIn, req.CheckOut, hotels))
	}

	if req.Origin != "" && req.Destination != "" && req.DepartureDate != "" {
		flights, err := p.flights.Search(ctx, map[string]string{
			"origin":         req.Origin,
			"destination":    req.Destination,
			"departure_date": req.DepartureDate,
			"return_date":    req.ReturnDate,
		})
		if err != nil {
			return "", fmt.Errorf("flight search failed while planning trip: %w", err)
		}
		sections = append(sections, fmt.Sprintf("Flights from %s to %s on %s:\n%s",
			req.Origin, req.Destination, req.DepartureDate, flights))
	}

	if len(sections) == 0 {
		p.logger.Warn("Insufficient information in travel request")
		return "I'm sorry, but I couldn't determine what specific travel information you need. Could you please provide more details about what you're looking for?", nil
	}
	return strings.Join(sections, "\n\n"), nil
}

func (p *Planner) normalize(req TripRequest) TripRequest {
	now := p.now()

	var departure time.Time
	if req.DepartureDate != "" {
		if IsWeekdayName(req.DepartureDate) {
			req.DepartureDate = NextWeekday(req.DepartureDate, now)
		} else {
			req.DepartureDate = ParseDate(req.DepartureDate, now)
		}
		departure, _ = time.Parse(dateLayout, req.DepartureDate)
	}
	if req.ReturnDate != "" {
		if IsWeekdayName(req.ReturnDate) && !departure.IsZero() {
			req.ReturnDate = NextWeekday(req.ReturnDate, departure)
		} else {
			req.ReturnDate = ParseDate(req.ReturnDate, now)
		}
	}
	if req.CheckIn == "this weekend" || req.CheckOut == "this weekend" {
		req.CheckIn, req.CheckOut = WeekendDates(now)
	} else {
		req.CheckIn = ParseDate(req.CheckIn, now)
		req.CheckOut = ParseDate(req.CheckOut, now)
	}

	// A round trip must return after it departs.
	if req.DepartureDate != "" && req.ReturnDate != "" {
		dep, depErr := time.Parse(dateLayout, req.DepartureDate)
		ret, retErr := time.Parse(dateLayout, req.ReturnDate)
		if depErr == nil && retErr == nil && !ret.After(dep) {
			req.ReturnDate = dep.AddDate(0, 0, 1).Format(dateLayout)
		}
	}

	switch strings.ToLower(req.Origin) {
	case "", "null", "none":
		req.Origin = p.flights.cfg.DefaultOrigin
	default:
		req.Origin = strings.ToUpper(req.Origin)
	}
	req.Destination = strings.ToUpper(req.Destination)
	return req
}
