package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// fakeService is an in-memory ConversationService for tests. Run status
// progressions are scripted per run via scriptStatuses.
type fakeService struct {
	mu sync.Mutex

	nextID      int
	names       map[string]string  // persona name -> assistant id
	handles     map[string]*Handle // assistant id -> handle
	threads     map[string][]ThreadMessage
	runs        map[string]*Run
	statusQueue map[string][]RunStatus // successive RetrieveRun statuses
	pending     map[string][]ToolCall  // calls attached on requires_action
	submitted   map[string][]ToolOutput

	createCalls   int
	listCalls     int
	retrieveCalls int
	createDelay   time.Duration
	retrieveErr   error
	updateErr     error
}

func newFakeService() *fakeService {
	return &fakeService{
		names:       make(map[string]string),
		handles:     make(map[string]*Handle),
		threads:     make(map[string][]ThreadMessage),
		runs:        make(map[string]*Run),
		statusQueue: make(map[string][]RunStatus),
		pending:     make(map[string][]ToolCall),
		submitted:   make(map[string][]ToolOutput),
	}
}

func (f *fakeService) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s_%d", prefix, f.nextID)
}

func (f *fakeService) ListAssistants(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	out := make(map[string]string, len(f.names))
	for name, id := range f.names {
		out[name] = id
	}
	return out, nil
}

func (f *fakeService) CreateAssistant(ctx context.Context, name, instructions string, tools []openai.AssistantTool, model string) (*Handle, error) {
	if f.createDelay > 0 {
		time.Sleep(f.createDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	handle := &Handle{
		ID:       f.id("asst"),
		Name:     name,
		Model:    model,
		Tools:    tools,
		CachedAt: time.Now(),
	}
	f.names[name] = handle.ID
	f.handles[handle.ID] = handle
	return handle, nil
}

func (f *fakeService) RetrieveAssistant(ctx context.Context, assistantID string) (*Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	handle, exists := f.handles[assistantID]
	if !exists {
		return nil, fmt.Errorf("assistant %s not found", assistantID)
	}
	return handle, nil
}

func (f *fakeService) UpdateAssistant(ctx context.Context, assistantID string, update Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	handle, exists := f.handles[assistantID]
	if !exists {
		return fmt.Errorf("assistant %s not found", assistantID)
	}
	if update.Name != nil {
		handle.Name = *update.Name
	}
	if update.Tools != nil {
		handle.Tools = update.Tools
	}
	return nil
}

func (f *fakeService) CreateThread(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	threadID := f.id("thread")
	f.threads[threadID] = nil
	return threadID, nil
}

func (f *fakeService) CreateMessage(ctx context.Context, threadID, role, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.threads[threadID] = append(f.threads[threadID], ThreadMessage{
		ID:   f.id("msg"),
		Role: role,
		Text: content,
	})
	return nil
}

// addAssistantMessage seeds a reply as the conversation service would
// record it once a run completes.
func (f *fakeService) addAssistantMessage(threadID, runID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.threads[threadID] = append(f.threads[threadID], ThreadMessage{
		ID:    f.id("msg"),
		Role:  "assistant",
		Text:  text,
		RunID: runID,
	})
}

func (f *fakeService) ListMessages(ctx context.Context, threadID string, opts ListOptions) ([]ThreadMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	messages := f.threads[threadID]
	out := make([]ThreadMessage, len(messages))
	copy(out, messages)
	return out, nil
}

func (f *fakeService) CreateRun(ctx context.Context, threadID, assistantID string, tools []openai.AssistantTool, instructions string) (*Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	run := &Run{
		ID:          f.id("run"),
		ThreadID:    threadID,
		AssistantID: assistantID,
		Status:      RunStatusQueued,
	}
	f.runs[run.ID] = run
	return run, nil
}

// scriptStatuses queues the statuses successive RetrieveRun calls observe;
// the last status repeats once the queue drains.
func (f *fakeService) scriptStatuses(runID string, statuses ...RunStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusQueue[runID] = statuses
}

func (f *fakeService) scriptPendingCalls(runID string, calls ...ToolCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[runID] = calls
}

func (f *fakeService) RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.retrieveCalls++
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	run, exists := f.runs[runID]
	if !exists {
		return nil, fmt.Errorf("run %s not found", runID)
	}

	queue := f.statusQueue[runID]
	if len(queue) > 0 {
		run.Status = queue[0]
		if len(queue) > 1 {
			f.statusQueue[runID] = queue[1:]
		}
	}
	current := *run
	if current.Status == RunStatusRequiresAction {
		current.PendingCalls = f.pending[runID]
	}
	return &current, nil
}

func (f *fakeService) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	run, exists := f.runs[runID]
	if !exists {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	f.submitted[runID] = append(f.submitted[runID], outputs...)
	run.Status = RunStatusQueued
	current := *run
	return &current, nil
}
