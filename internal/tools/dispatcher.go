package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/halverson/concierge-bot/internal/assistant"
	"github.com/halverson/concierge-bot/internal/travel"
)

// ErrNoPendingCall is returned when a run in requires_action carries no tool
// calls to service.
var ErrNoPendingCall = errors.New("run has no pending tool call")

// ExtractPendingCall reads the first tool call from the run's required
// action. When the action carries several simultaneous calls only the first
// is serviced; the rest go unanswered. Known limitation.
func ExtractPendingCall(run *assistant.Run) (assistant.ToolCall, error) {
	if len(run.PendingCalls) == 0 {
		return assistant.ToolCall{}, ErrNoPendingCall
	}
	return run.PendingCalls[0], nil
}

// Dispatcher routes tool calls to their concrete handlers. Every dispatch
// produces textual output: argument problems and provider failures become
// human-readable strings so the run can always be resumed.
type Dispatcher struct {
	flights *travel.FlightSearch
	hotels  *travel.HotelSearch
	planner *travel.Planner
	logger  *zap.Logger
}

func NewDispatcher(flights *travel.FlightSearch, hotels *travel.HotelSearch, planner *travel.Planner, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		flights: flights,
		hotels:  hotels,
		planner: planner,
		logger:  logger,
	}
}

// Dispatch executes the named function and returns its output for
// submission back to the run.
func (d *Dispatcher) Dispatch(ctx context.Context, call assistant.ToolCall) assistant.ToolOutput {
	d.logger.Debug("Dispatching tool call",
		zap.String("call_id", call.ID),
		zap.String("function", call.Name))

	var output string
	switch call.Name {
	case "search_flights":
		output = d.searchFlights(ctx, call.Arguments)
	case "search_hotels":
		output = d.searchHotels(ctx, call.Arguments)
	case "plan_trip":
		output = d.planTrip(ctx, call.Arguments)
	default:
		d.logger.Warn("Unknown tool function", zap.String("function", call.Name))
		output = fmt.Sprintf("Unknown function: %s", call.Name)
	}
	return assistant.ToolOutput{CallID: call.ID, Output: output}
}

func (d *Dispatcher) searchFlights(ctx context.Context, arguments string) string {
	params, err := parseParams(arguments)
	if err != nil {
		return "Missing required parameters for flight search"
	}
	if !hasAll(params, "origin", "destination", "departure_date") {
		return "Missing required parameters for flight search"
	}

	result, err := d.flights.Search(ctx, params)
	if err != nil {
		d.logger.Error("Flight search failed", zap.Error(err))
		return fmt.Sprintf("An error occurred during flight search: %v", err)
	}
	return result
}

func (d *Dispatcher) searchHotels(ctx context.Context, arguments string) string {
	params, err := parseParams(arguments)
	if err != nil {
		return "Missing required parameters for hotel search"
	}
	if !hasAll(params, "location", "check_in_date", "check_out_date") {
		return "Missing required parameters for hotel search"
	}

	result, err := d.hotels.Search(ctx, params)
	if err != nil {
		d.logger.Error("Hotel search failed", zap.Error(err))
		return fmt.Sprintf("An error occurred during hotel search: %v", err)
	}
	return result
}

func (d *Dispatcher) planTrip(ctx context.Context, arguments string) string {
	var args struct {
		TravelRequest *travel.TripRequest `json:"travel_request"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil || args.TravelRequest == nil {
		return "Missing required parameters for trip planning"
	}
	req := *args.TravelRequest
	if req.Origin == "" || req.Destination == "" || req.DepartureDate == "" {
		return "Missing required parameters for trip planning"
	}

	result, err := d.planner.PlanTrip(ctx, req)
	if err != nil {
		d.logger.Error("Trip planning failed", zap.Error(err))
		return fmt.Sprintf("An error occurred while planning your trip: %v", err)
	}
	return result
}

// parseParams decodes tool-call arguments into string parameters, rendering
// numeric values with %v so schema-lax models don't break dispatch.
func parseParams(arguments string) (map[string]string, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(arguments), &raw); err != nil {
		return nil, err
	}
	params := make(map[string]string, len(raw))
	for k, v := range raw {
		switch value := v.(type) {
		case string:
			params[k] = value
		case nil:
			// skip
		default:
			params[k] = fmt.Sprintf("%v", value)
		}
	}
	return params, nil
}

func hasAll(params map[string]string, keys ...string) bool {
	for _, key := range keys {
		if params[key] == "" {
			return false
		}
	}
	return true
}
