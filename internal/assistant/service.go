package assistant

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// RunStatus is the finite set of states a run moves through.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
)

// Terminal reports whether no further transition can occur from s.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	}
	return false
}

// Handle is the live, service-assigned identity of a persona.
type Handle struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Model    string                 `json:"model"`
	Tools    []openai.AssistantTool `json:"tools"`
	CachedAt time.Time              `json:"cached_at"`
}

// Run is one execution of an assistant against a thread.
type Run struct {
	ID           string
	ThreadID     string
	AssistantID  string
	Status       RunStatus
	PendingCalls []ToolCall
}

// ToolCall is a mid-run request for the engine to execute a named function.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolOutput is the textual result submitted back for a pending tool call.
type ToolOutput struct {
	CallID string
	Output string
}

// ThreadMessage is one entry of a conversation thread.
type ThreadMessage struct {
	ID    string
	Role  string
	Text  string
	RunID string
}

// ListOptions narrows a message listing.
type ListOptions struct {
	Order string
	After string
	Limit int
}

// Update is a partial assistant update; nil fields are left untouched.
type Update struct {
	Name         *string
	Description  *string
	Instructions *string
	Tools        []openai.AssistantTool
}

// ConversationService is the external conversation capability the engine
// drives: assistants, threads, messages and runs. Implementations must be
// safe for concurrent use.
type ConversationService interface {
	ListAssistants(ctx context.Context) (map[string]string, error)
	CreateAssistant(ctx context.Context, name, instructions string, tools []openai.AssistantTool, model string) (*Handle, error)
	RetrieveAssistant(ctx context.Context, assistantID string) (*Handle, error)
	UpdateAssistant(ctx context.Context, assistantID string, update Update) error

	CreateThread(ctx context.Context) (string, error)
	CreateMessage(ctx context.Context, threadID, role, content string) error
	ListMessages(ctx context.Context, threadID string, opts ListOptions) ([]ThreadMessage, error)

	CreateRun(ctx context.Context, threadID, assistantID string, tools []openai.AssistantTool, instructions string) (*Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error)
}

// OpenAIService implements ConversationService against the OpenAI
// Assistants API.
type OpenAIService struct {
	client *openai.Client
}

func NewOpenAIService(client *openai.Client) *OpenAIService {
	return &OpenAIService{client: client}
}

func (s *OpenAIService) ListAssistants(ctx context.Context) (map[string]string, error) {
	list, err := s.client.ListAssistants(ctx, nil, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list assistants: %w", err)
	}
	byName := make(map[string]string, len(list.Assistants))
	for _, a := range list.Assistants {
		if a.Name != nil {
			byName[*a.Name] = a.ID
		}
	}
	return byName, nil
}

func (s *OpenAIService) CreateAssistant(ctx context.Context, name, instructions string, tools []openai.AssistantTool, model string) (*Handle, error) {
	created, err := s.client.CreateAssistant(ctx, openai.AssistantRequest{
		Name:         &name,
		Instructions: &instructions,
		Tools:        tools,
		Model:        model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant %q: %w", name, err)
	}
	return handleFromAssistant(created), nil
}

func (s *OpenAIService) RetrieveAssistant(ctx context.Context, assistantID string) (*Handle, error) {
	a, err := s.client.RetrieveAssistant(ctx, assistantID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve assistant %s: %w", assistantID, err)
	}
	return handleFromAssistant(a), nil
}

func (s *OpenAIService) UpdateAssistant(ctx context.Context, assistantID string, update Update) error {
	req := openai.AssistantRequest{
		Name:         update.Name,
		Description:  update.Description,
		Instructions: update.Instructions,
		Tools:        update.Tools,
	}
	if _, err := s.client.ModifyAssistant(ctx, assistantID, req); err != nil {
		return fmt.Errorf("failed to update assistant %s: %w", assistantID, err)
	}
	return nil
}

func (s *OpenAIService) CreateThread(ctx context.Context) (string, error) {
	thread, err := s.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	return thread.ID, nil
}

func (s *OpenAIService) CreateMessage(ctx context.Context, threadID, role, content string) error {
	_, err := s.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    role,
		Content: content,
	})
	if err != nil {
		return fmt.Errorf("failed to create message on thread %s: %w", threadID, err)
	}
	return nil
}

func (s *OpenAIService) ListMessages(ctx context.Context, threadID string, opts ListOptions) ([]ThreadMessage, error) {
	var limit *int
	if opts.Limit > 0 {
		limit = &opts.Limit
	}
	var order *string
	if opts.Order != "" {
		order = &opts.Order
	}
	var after *string
	if opts.After != "" {
		after = &opts.After
	}
	list, err := s.client.ListMessage(ctx, threadID, limit, order, after, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages on thread %s: %w", threadID, err)
	}
	messages := make([]ThreadMessage, 0, len(list.Messages))
	for _, m := range list.Messages {
		msg := ThreadMessage{ID: m.ID, Role: m.Role}
		if m.RunID != nil {
			msg.RunID = *m.RunID
		}
		// Only the first text segment of each message is carried over.
		for _, c := range m.Content {
			if c.Text != nil {
				msg.Text = c.Text.Value
				break
			}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *OpenAIService) CreateRun(ctx context.Context, threadID, assistantID string, tools []openai.AssistantTool, instructions string) (*Run, error) {
	req := openai.RunRequest{
		AssistantID:  assistantID,
		Instructions: instructions,
		Tools:        runTools(tools),
	}
	run, err := s.client.CreateRun(ctx, threadID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create run on thread %s: %w", threadID, err)
	}
	return runFromOpenAI(run), nil
}

func (s *OpenAIService) RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error) {
	run, err := s.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve run %s: %w", runID, err)
	}
	return runFromOpenAI(run), nil
}

func (s *OpenAIService) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	req := openai.SubmitToolOutputsRequest{
		ToolOutputs: make([]openai.ToolOutput, 0, len(outputs)),
	}
	for _, out := range outputs {
		req.ToolOutputs = append(req.ToolOutputs, openai.ToolOutput{
			ToolCallID: out.CallID,
			Output:     out.Output,
		})
	}
	run, err := s.client.SubmitToolOutputs(ctx, threadID, runID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit tool outputs for run %s: %w", runID, err)
	}
	return runFromOpenAI(run), nil
}

func handleFromAssistant(a openai.Assistant) *Handle {
	h := &Handle{
		ID:       a.ID,
		Model:    a.Model,
		Tools:    a.Tools,
		CachedAt: time.Now(),
	}
	if a.Name != nil {
		h.Name = *a.Name
	}
	return h
}

// runTools converts assistant tool schemas into the run-scoped form so every
// run carries the persona's tools explicitly.
func runTools(tools []openai.AssistantTool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	converted := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		converted = append(converted, openai.Tool{
			Type:     openai.ToolTypeFunction,
			Function: t.Function,
		})
	}
	return converted
}

func runFromOpenAI(run openai.Run) *Run {
	r := &Run{
		ID:          run.ID,
		ThreadID:    run.ThreadID,
		AssistantID: run.AssistantID,
		Status:      RunStatus(run.Status),
	}
	if run.RequiredAction != nil && run.RequiredAction.SubmitToolOutputs != nil {
		for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
			r.PendingCalls = append(r.PendingCalls, ToolCall{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			})
		}
	}
	return r
}
