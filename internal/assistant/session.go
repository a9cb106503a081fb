package assistant

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Session owns one conversation thread. A fresh thread is opened per
// dispatched message; cross-turn continuity lives in the external service
// only.
type Session struct {
	service  ConversationService
	threadID string
}

// SessionManager opens sessions against the conversation service.
type SessionManager struct {
	service ConversationService
	logger  *zap.Logger
}

func NewSessionManager(service ConversationService, logger *zap.Logger) *SessionManager {
	return &SessionManager{service: service, logger: logger}
}

// Open creates a new conversation thread and wraps it in a session.
func (m *SessionManager) Open(ctx context.Context) (*Session, error) {
	threadID, err := m.service.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	m.logger.Debug("Opened conversation thread", zap.String("thread_id", threadID))
	return &Session{service: m.service, threadID: threadID}, nil
}

// ThreadID returns the external identifier of the session's thread.
func (s *Session) ThreadID() string {
	return s.threadID
}

// AppendUserMessage appends a user-role message to the thread.
func (s *Session) AppendUserMessage(ctx context.Context, text string) error {
	return s.service.CreateMessage(ctx, s.threadID, "user", text)
}

// ListMessages returns the thread's messages in API-assigned order.
func (s *Session) ListMessages(ctx context.Context, opts ListOptions) ([]ThreadMessage, error) {
	return s.service.ListMessages(ctx, s.threadID, opts)
}
