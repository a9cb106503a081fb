package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/halverson/concierge-bot/internal/assistant"
	"github.com/halverson/concierge-bot/internal/bot"
	"github.com/halverson/concierge-bot/internal/classifier"
	"github.com/halverson/concierge-bot/internal/dispatcher"
	gauth "github.com/halverson/concierge-bot/internal/google"
	"github.com/halverson/concierge-bot/internal/persona"
	"github.com/halverson/concierge-bot/internal/storage"
	"github.com/halverson/concierge-bot/internal/tools"
	"github.com/halverson/concierge-bot/internal/travel"
	"github.com/halverson/concierge-bot/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	ctx := context.Background()

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize the assistant handle cache
	var cacheOpts []assistant.CacheOption
	cacheOpts = append(cacheOpts, assistant.WithTTL(cfg.Cache.TTL))
	if cfg.Cache.Driver == string(assistant.CacheDriverRedis) {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		cacheOpts = append(cacheOpts, assistant.WithRedisClient(redisClient))
	}
	cache, err := assistant.NewHandleCache(assistant.CacheDriver(cfg.Cache.Driver), cacheOpts...)
	if err != nil {
		logger.Fatal("Failed to initialize handle cache", zap.Error(err))
	}
	defer cache.Close()

	// Conversation service and engine components
	client := openai.NewClient(cfg.OpenAI.APIKey)
	service := assistant.NewOpenAIService(client)
	catalog := persona.NewCatalog(cfg.OpenAI.AssistantModel)
	registry := assistant.NewRegistry(service, catalog, cache, logger)
	sessions := assistant.NewSessionManager(service, logger)
	runs := assistant.NewRunController(service, cfg.Run.PollInterval, cfg.Run.MaxWait, logger)
	aggregator := assistant.NewResponseAggregator(logger)

	// Push current instructions and tool schemas for every persona
	if err := registry.SyncPersonas(ctx); err != nil {
		logger.Fatal("Failed to sync personas", zap.Error(err))
	}

	// Travel search providers and tool dispatcher
	searchCfg := travel.SearchConfig{
		APIKey:        cfg.Travel.SerpAPIKey,
		DefaultOrigin: cfg.Travel.DefaultOrigin,
		Currency:      cfg.Travel.Currency,
	}
	flights := travel.NewFlightSearch(searchCfg, logger)
	hotels := travel.NewHotelSearch(searchCfg, logger)
	planner := travel.NewPlanner(flights, hotels, logger)
	toolDispatcher := tools.NewDispatcher(flights, hotels, planner, logger)

	// Classifier
	var clf classifier.Classifier
	if cfg.Classifier.Provider == "keyword" {
		logger.Info("Using keyword classifier")
		clf = classifier.NewKeywordClassifier()
	} else {
		clf = classifier.NewGPTClassifier(client, cfg.OpenAI.Model, cfg.OpenAI.MaxTokens, float32(cfg.OpenAI.Temperature), logger)
	}
	acknowledger := classifier.NewAcknowledger(client, cfg.OpenAI.Model, logger)

	// Optional Google calendar/mail adapter
	if cfg.Google.Enabled {
		auth, err := gauth.NewAuthManager(cfg.Google.CredentialsFile, cfg.Google.TokenFile, cfg.Google.Scopes, logger)
		if err != nil {
			logger.Fatal("Failed to initialize google auth", zap.Error(err))
		}
		defer auth.Close()
		if err := auth.Authenticate(ctx); err != nil {
			fmt.Println("Visit the following URL to grant calendar/mail access, then restart:")
			fmt.Println(auth.ConsentURL())
			logger.Fatal("Google authentication required", zap.Error(err))
		}
		logger.Info("Google authentication initialized")
	}

	d := dispatcher.New(clf, catalog, registry, sessions, runs, toolDispatcher, aggregator, store, logger)

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, d, acknowledger, store, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Start the bot
	if err := b.Start(); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
