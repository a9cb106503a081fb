package models

import "time"

// Category is the routing tag assigned to an incoming message.
type Category string

const (
	CategoryTravel   Category = "travel"
	CategorySchedule Category = "schedule"
	CategoryFamily   Category = "family"
	CategoryTodo     Category = "todo"
	CategoryDocument Category = "document"
	CategoryGeneral  Category = "general"
)

// Categories lists every category the classifier may choose from.
// CategoryGeneral is the fallback and is deliberately not offered.
func Categories() []string {
	return []string{
		string(CategoryTravel),
		string(CategorySchedule),
		string(CategoryFamily),
		string(CategoryTodo),
		string(CategoryDocument),
	}
}

// DispatchResult is what one fully processed user turn produces.
type DispatchResult struct {
	Category          Category `json:"category"`
	ThreadID          string   `json:"thread_id"`
	RunID             string   `json:"run_id"`
	ToolOutputs       []string `json:"tool_outputs,omitempty"`
	AssistantResponse string   `json:"assistant_response,omitempty"`
}

// DispatchRecord is the persisted audit trail of a turn. Message content is
// never stored, only routing identifiers.
type DispatchRecord struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	Category     string    `json:"category"`
	ThreadID     string    `json:"thread_id"`
	RunID        string    `json:"run_id"`
	ToolFunction string    `json:"tool_function,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserMetadata tracks which categories a user's messages have landed in.
type UserMetadata struct {
	UserID     int64     `json:"user_id"`
	Categories []string  `json:"categories"`
	LastUsedAt time.Time `json:"last_used_at"`
}
