package classifier

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Acknowledger produces the short holding reply sent while a message is
// being dispatched. Failure here is never fatal; callers just skip the ack.
type Acknowledger struct {
	client CompletionClient
	model  string
	logger *zap.Logger
}

func NewAcknowledger(client CompletionClient, model string, logger *zap.Logger) *Acknowledger {
	return &Acknowledger{client: client, model: model, logger: logger}
}

// Acknowledge generates a one-sentence acknowledgement of the user's
// request.
func (a *Acknowledger) Acknowledge(ctx context.Context, text string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a helpful assistant. Reply with one short, friendly sentence acknowledging the user's request and saying you are on it. Do not answer the request itself.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		MaxTokens:   60,
		Temperature: 0.7,
	})
	if err != nil {
		a.logger.Warn("Failed to generate acknowledgement", zap.Error(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
