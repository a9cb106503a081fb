package classifier

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// CompletionClient is the slice of the OpenAI client the classifier needs.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// GPTClassifier classifies text with a single-label chat completion
// constrained to the given category set.
type GPTClassifier struct {
	client      CompletionClient
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

func NewGPTClassifier(client CompletionClient, model string, maxTokens int, temperature float32, logger *zap.Logger) *GPTClassifier {
	return &GPTClassifier{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

func (c *GPTClassifier) Classify(ctx context.Context, text string, categories []string) (string, error) {
	prompt := fmt.Sprintf(
		"Please classify the following text into one of these categories. Your output will be a single word: %s\n\nText: %s",
		strings.Join(categories, ", "), text)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a helpful assistant that classifies text.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		c.logger.Error("Failed to get classification response", zap.Error(err))
		return "", fmt.Errorf("classification failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("classification returned no choices")
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	for _, category := range categories {
		if answer == category {
			return category, nil
		}
	}
	c.logger.Debug("Classification outside category set, using fallback",
		zap.String("answer", answer))
	return Fallback, nil
}
