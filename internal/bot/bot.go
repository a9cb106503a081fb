package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/halverson/concierge-bot/internal/classifier"
	"github.com/halverson/concierge-bot/internal/dispatcher"
	"github.com/halverson/concierge-bot/internal/storage"
)

const apologyMessage = "I'm sorry, but I encountered an error while processing your request. Please try again later."

type Bot struct {
	api          *tgbotapi.BotAPI
	dispatcher   *dispatcher.Dispatcher
	acknowledger *classifier.Acknowledger
	storage      storage.Storage
	logger       *zap.Logger
}

func New(token string, dispatcher *dispatcher.Dispatcher, acknowledger *classifier.Acknowledger, storage storage.Storage, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:          api,
		dispatcher:   dispatcher,
		acknowledger: acknowledger,
		storage:      storage,
		logger:       logger,
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(update.Message)
	}

	return nil
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	ctx := context.Background()

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	text := message.Text
	if text == "" {
		return
	}

	// Short acknowledgement first so the user isn't staring at silence
	// while the run is polled. Best effort.
	if b.acknowledger != nil {
		if ack, err := b.acknowledger.Acknowledge(ctx, text); err == nil && ack != "" {
			b.sendMessage(message.Chat.ID, ack)
		}
	}

	result, err := b.dispatcher.Dispatch(ctx, message.From.ID, text)
	if err != nil {
		b.logger.Error("Failed to dispatch message",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendMessage(message.Chat.ID, apologyMessage)
		return
	}

	for _, output := range result.ToolOutputs {
		b.sendLongMessage(message.Chat.ID, output)
	}

	if result.AssistantResponse != "" {
		b.sendLongMessage(message.Chat.ID, result.AssistantResponse)
	} else {
		b.logger.Warn("No assistant response received",
			zap.String("thread_id", result.ThreadID),
			zap.String("run_id", result.RunID))
		b.sendMessage(message.Chat.ID, "I'm sorry, but I couldn't generate a response. Please try again.")
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "history":
		b.handleHistory(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome! I'm your personal concierge bot.

Tell me what you need in plain language - trips, schedules, tasks, documents - and I'll route your request to the right assistant. Travel requests can search live flights and hotels.

Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/history - Show your recent requests

Just send me a message like:
- "book me a flight from SFO to JFK next Friday"
- "find a hotel in Paris this weekend"
- "remind me to call mom"`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleHistory(ctx context.Context, message *tgbotapi.Message) {
	records, err := b.storage.GetUserDispatches(ctx, message.From.ID, 5, 0)
	if err != nil {
		b.logger.Error("Failed to get user dispatches",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't retrieve your request history.")
		return
	}

	if len(records) == 0 {
		b.sendMessage(message.Chat.ID, "You don't have any requests yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your recent requests:\n\n")
	for _, record := range records {
		sb.WriteString(fmt.Sprintf("- %s (%s)", record.Category, record.CreatedAt.Format("Jan 2 15:04")))
		if record.ToolFunction != "" {
			sb.WriteString(" via " + record.ToolFunction)
		}
		sb.WriteString("\n")
	}
	b.sendMessage(message.Chat.ID, sb.String())
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

// sendLongMessage splits text that exceeds the transport's message length
// limit and sends the chunks in order.
func (b *Bot) sendLongMessage(chatID int64, text string) {
	for _, chunk := range SplitMessage(text, maxMessageLength) {
		b.sendMessage(chatID, chunk)
	}
}
