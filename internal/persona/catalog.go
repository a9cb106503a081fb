package persona

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/halverson/concierge-bot/internal/models"
)

// Descriptor is the immutable definition of one assistant persona: the
// instruction text, the tool schemas it exposes to the conversation service,
// and the model it runs on.
type Descriptor struct {
	Name         string
	Instructions string
	Tools        []openai.AssistantTool
	Model        string
}

// Catalog holds every persona descriptor for the process lifetime.
type Catalog struct {
	model string
	names map[models.Category]string
}

func NewCatalog(model string) *Catalog {
	return &Catalog{
		model: model,
		names: map[models.Category]string{
			models.CategoryTravel:   "TravelAssistant",
			models.CategorySchedule: "CalendarAssistant",
			models.CategoryFamily:   "FamilyAssistant",
			models.CategoryTodo:     "TodoAssistant",
			models.CategoryDocument: "DocumentAssistant",
			models.CategoryGeneral:  "GeneralAssistant",
		},
	}
}

// NameForCategory maps a category to its persona name. Unknown categories get
// the general persona.
func (c *Catalog) NameForCategory(category models.Category) string {
	if name, ok := c.names[category]; ok {
		return name
	}
	return c.names[models.CategoryGeneral]
}

// Names returns every persona name in the catalog.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.names))
	for _, name := range c.names {
		names = append(names, name)
	}
	return names
}

// Describe builds the descriptor for a persona name. Personas without a
// dedicated instruction set fall back to a minimal role statement and an
// empty tool set.
func (c *Catalog) Describe(name string) Descriptor {
	d := Descriptor{
		Name:         name,
		Instructions: "You are a " + name + ".",
		Model:        c.model,
	}
	if name == "TravelAssistant" {
		d.Instructions = travelInstructions
		d.Tools = travelTools()
	}
	return d
}

const travelInstructions = `You are a friendly Travel Assistant chatbot. Your job is to help users plan trips, find flights and hotels, and give travel tips. Keep your responses short, fun, and easy to read.

When users ask about flights or hotels, use these functions:
- 'search_flights' for flight info
- 'search_hotels' for hotel info
- 'plan_trip' when the user wants a full trip put together

Be specific with names and brief descriptions. Keep it casual and chatty, like you're texting a friend, and keep your entire response in one message.`

func travelTools() []openai.AssistantTool {
	return []openai.AssistantTool{
		{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "search_flights",
				Description: "Search for flights using the SerpAPI Google Flights API with advanced options.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"origin":         map[string]any{"type": "string", "description": "The 3-letter airport code for the departure location"},
						"destination":    map[string]any{"type": "string", "description": "The 3-letter airport code for the arrival location"},
						"departure_date": map[string]any{"type": "string", "description": "The date of departure in YYYY-MM-DD format"},
						"return_date":    map[string]any{"type": "string", "description": "The date of return in YYYY-MM-DD format (optional for one-way trips)"},
						"currency":       map[string]any{"type": "string", "description": "Currency code (e.g., USD, EUR)"},
						"travel_class":   map[string]any{"type": "string", "description": "Travel class ('1' Economy, '2' Premium Economy, '3' Business, '4' First)"},
						"adults":         map[string]any{"type": "string", "description": "Number of adult passengers"},
						"children":       map[string]any{"type": "string", "description": "Number of child passengers"},
						"stops":          map[string]any{"type": "string", "description": "Number of stops ('0' for non-stop)"},
						"max_price":      map[string]any{"type": "string", "description": "Maximum price for flights"},
					},
					"required": []string{"origin", "destination", "departure_date"},
				},
			},
		},
		{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "search_hotels",
				Description: "Search for hotels using the SerpAPI Google Hotels API with advanced options.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"location":       map[string]any{"type": "string", "description": "The location to search for hotels"},
						"check_in_date":  map[string]any{"type": "string", "description": "The check-in date in YYYY-MM-DD format"},
						"check_out_date": map[string]any{"type": "string", "description": "The check-out date in YYYY-MM-DD format"},
						"currency":       map[string]any{"type": "string", "description": "Currency code (e.g., USD, EUR)"},
						"adults":         map[string]any{"type": "string", "description": "Number of adult guests"},
						"rating":         map[string]any{"type": "string", "description": "Minimum hotel rating (e.g., '8' for 4-star and above)"},
						"min_price":      map[string]any{"type": "string", "description": "Minimum price for hotels"},
						"max_price":      map[string]any{"type": "string", "description": "Maximum price for hotels"},
						"amenities":      map[string]any{"type": "string", "description": "Comma-separated list of desired amenities"},
					},
					"required": []string{"location", "check_in_date", "check_out_date"},
				},
			},
		},
		{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "plan_trip",
				Description: "Plan a trip based on the parsed travel request.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"travel_request": map[string]any{
							"type":        "object",
							"description": "The parsed travel request",
							"properties": map[string]any{
								"origin":         map[string]any{"type": "string"},
								"destination":    map[string]any{"type": "string"},
								"departure_date": map[string]any{"type": "string"},
								"return_date":    map[string]any{"type": "string"},
								"check_in":       map[string]any{"type": "string"},
								"check_out":      map[string]any{"type": "string"},
							},
							"required": []string{"origin", "destination", "departure_date"},
						},
					},
					"required": []string{"travel_request"},
				},
			},
		},
	}
}
