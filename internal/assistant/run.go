package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultMaxWait      = 2 * time.Minute
)

// ErrRunTimeout is returned when a run does not reach a completed or
// actionable state within the controller's maximum wait.
var ErrRunTimeout = errors.New("timed out waiting for run")

// RunFailedError reports a run that reached a terminal failure state.
// Terminal failures are never retried by the controller; retrying is a
// caller-level policy decision.
type RunFailedError struct {
	RunID  string
	Status RunStatus
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("run %s failed with status: %s", e.RunID, e.Status)
}

// RunController drives a run through its state machine: create, poll to a
// terminal or actionable state, submit tool outputs, resume polling.
type RunController struct {
	service      ConversationService
	pollInterval time.Duration
	maxWait      time.Duration
	logger       *zap.Logger
}

func NewRunController(service ConversationService, pollInterval, maxWait time.Duration, logger *zap.Logger) *RunController {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}
	return &RunController{
		service:      service,
		pollInterval: pollInterval,
		maxWait:      maxWait,
		logger:       logger,
	}
}

// Start creates a run for the session's thread, explicitly carrying the
// handle's cached tool schema so the run sees the persona's tools even if
// the service-side default differs. instructions optionally overrides the
// persona instructions for this run only.
func (c *RunController) Start(ctx context.Context, session *Session, handle *Handle, instructions string) (*Run, error) {
	run, err := c.service.CreateRun(ctx, session.ThreadID(), handle.ID, handle.Tools, instructions)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	c.logger.Debug("Started run",
		zap.String("run_id", run.ID),
		zap.String("thread_id", run.ThreadID),
		zap.String("assistant_id", handle.ID))
	return run, nil
}

// AwaitActionable polls the run at a fixed interval until its status is
// completed or requires_action. A terminal failure status yields a
// *RunFailedError; exceeding the maximum wait yields ErrRunTimeout; a
// transport error while polling is logged and returned immediately.
func (c *RunController) AwaitActionable(ctx context.Context, run *Run) (*Run, error) {
	deadline := time.Now().Add(c.maxWait)

	for {
		current, err := c.service.RetrieveRun(ctx, run.ThreadID, run.ID)
		if err != nil {
			c.logger.Error("Failed to retrieve run status",
				zap.Error(err),
				zap.String("run_id", run.ID))
			return nil, err
		}

		switch current.Status {
		case RunStatusCompleted, RunStatusRequiresAction:
			return current, nil
		case RunStatusFailed, RunStatusCancelled, RunStatusExpired:
			c.logger.Error("Run reached terminal failure state",
				zap.String("run_id", current.ID),
				zap.String("status", string(current.Status)))
			return nil, &RunFailedError{RunID: current.ID, Status: current.Status}
		}

		if time.Now().After(deadline) {
			c.logger.Error("Run polling exceeded maximum wait",
				zap.String("run_id", run.ID),
				zap.Duration("max_wait", c.maxWait))
			return nil, fmt.Errorf("%w %s after %s", ErrRunTimeout, run.ID, c.maxWait)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// ResumeAfterTool submits tool outputs for the run's pending required
// action. The caller must invoke AwaitActionable again to drive the run to
// its next terminal or actionable state.
func (c *RunController) ResumeAfterTool(ctx context.Context, run *Run, outputs []ToolOutput) (*Run, error) {
	resumed, err := c.service.SubmitToolOutputs(ctx, run.ThreadID, run.ID, outputs)
	if err != nil {
		return nil, fmt.Errorf("failed to resume run %s: %w", run.ID, err)
	}
	c.logger.Debug("Submitted tool outputs",
		zap.String("run_id", run.ID),
		zap.Int("outputs", len(outputs)))
	return resumed, nil
}
