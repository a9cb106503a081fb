package dispatcher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/halverson/concierge-bot/internal/assistant"
	"github.com/halverson/concierge-bot/internal/classifier"
	"github.com/halverson/concierge-bot/internal/models"
	"github.com/halverson/concierge-bot/internal/persona"
	"github.com/halverson/concierge-bot/internal/storage"
	"github.com/halverson/concierge-bot/internal/tools"
)

// Dispatcher coordinates one conversational turn: classify the message,
// resolve the persona, open a thread, drive the run, serve at most one tool
// call, and aggregate the reply.
type Dispatcher struct {
	classifier classifier.Classifier
	catalog    *persona.Catalog
	registry   *assistant.Registry
	sessions   *assistant.SessionManager
	runs       *assistant.RunController
	tools      *tools.Dispatcher
	aggregator *assistant.ResponseAggregator
	store      storage.Storage
	logger     *zap.Logger
}

func New(
	clf classifier.Classifier,
	catalog *persona.Catalog,
	registry *assistant.Registry,
	sessions *assistant.SessionManager,
	runs *assistant.RunController,
	toolDispatcher *tools.Dispatcher,
	aggregator *assistant.ResponseAggregator,
	store storage.Storage,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		classifier: clf,
		catalog:    catalog,
		registry:   registry,
		sessions:   sessions,
		runs:       runs,
		tools:      toolDispatcher,
		aggregator: aggregator,
		store:      store,
		logger:     logger,
	}
}

// Dispatch processes one incoming message and returns the structured
// outcome for the messaging adapter.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int64, text string) (*models.DispatchResult, error) {
	category := d.classify(ctx, text)
	personaName := d.catalog.NameForCategory(category)
	d.logger.Info("Dispatching message",
		zap.Int64("user_id", userID),
		zap.String("category", string(category)),
		zap.String("persona", personaName))

	handle, err := d.registry.ResolveOrCreate(ctx, personaName)
	if err != nil {
		return nil, err
	}

	session, err := d.sessions.Open(ctx)
	if err != nil {
		return nil, err
	}
	if err := session.AppendUserMessage(ctx, text); err != nil {
		return nil, err
	}

	run, err := d.runs.Start(ctx, session, handle, "")
	if err != nil {
		return nil, err
	}

	result := &models.DispatchResult{
		Category: category,
		ThreadID: session.ThreadID(),
		RunID:    run.ID,
	}

	run, err = d.runs.AwaitActionable(ctx, run)
	if err != nil {
		return nil, err
	}

	// A single tool round per turn: the run pauses at most once for the
	// engine before producing its reply.
	var toolFunction string
	if run.Status == assistant.RunStatusRequiresAction {
		call, err := tools.ExtractPendingCall(run)
		if err != nil {
			return nil, err
		}
		toolFunction = call.Name

		output := d.tools.Dispatch(ctx, call)
		result.ToolOutputs = append(result.ToolOutputs, output.Output)

		run, err = d.runs.ResumeAfterTool(ctx, run, []assistant.ToolOutput{output})
		if err != nil {
			return nil, err
		}
		run, err = d.runs.AwaitActionable(ctx, run)
		if err != nil {
			return nil, err
		}
	}

	response, err := d.aggregator.Collect(ctx, session, result.RunID)
	if err != nil {
		return nil, err
	}
	result.AssistantResponse = response

	d.record(ctx, userID, category, result, toolFunction)
	return result, nil
}

// classify maps the message to a category, falling back to general on any
// classification failure.
func (d *Dispatcher) classify(ctx context.Context, text string) models.Category {
	category, err := d.classifier.Classify(ctx, text, models.Categories())
	if err != nil {
		d.logger.Warn("Classification failed, using general persona", zap.Error(err))
		return models.CategoryGeneral
	}
	return models.Category(category)
}

// record persists the dispatch audit trail. Best effort; storage failures
// never fail the turn.
func (d *Dispatcher) record(ctx context.Context, userID int64, category models.Category, result *models.DispatchResult, toolFunction string) {
	record := &models.DispatchRecord{
		ID:           uuid.New().String(),
		UserID:       userID,
		Category:     string(category),
		ThreadID:     result.ThreadID,
		RunID:        result.RunID,
		ToolFunction: toolFunction,
		CreatedAt:    time.Now(),
	}
	if err := d.store.SaveDispatch(ctx, record); err != nil {
		d.logger.Error("Failed to save dispatch record",
			zap.Error(err),
			zap.Int64("user_id", userID))
	}
	if err := d.store.AddCategory(ctx, userID, string(category)); err != nil {
		d.logger.Error("Failed to save category",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("category", string(category)))
	}
}
