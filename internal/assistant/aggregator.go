package assistant

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// ResponseAggregator collects the assistant's reply text for a run.
type ResponseAggregator struct {
	logger *zap.Logger
}

func NewResponseAggregator(logger *zap.Logger) *ResponseAggregator {
	return &ResponseAggregator{logger: logger}
}

// Collect scans the session's messages in ascending order and joins the text
// of assistant messages belonging to the given run. An empty string means no
// reply was produced; callers surface that as "no response", not an error.
func (a *ResponseAggregator) Collect(ctx context.Context, session *Session, runID string) (string, error) {
	messages, err := session.ListMessages(ctx, ListOptions{Order: "asc"})
	if err != nil {
		return "", err
	}

	var parts []string
	for _, msg := range messages {
		if msg.Role == "assistant" && msg.RunID == runID && msg.Text != "" {
			parts = append(parts, msg.Text)
		}
	}
	if len(parts) == 0 {
		a.logger.Warn("No assistant response found",
			zap.String("thread_id", session.ThreadID()),
			zap.String("run_id", runID))
		return "", nil
	}
	return strings.Join(parts, "\n"), nil
}
