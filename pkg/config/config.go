package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Database   DatabaseConfig   `mapstructure:"database"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Travel     TravelConfig     `mapstructure:"travel"`
	Run        RunConfig        `mapstructure:"run"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Google     GoogleConfig     `mapstructure:"google"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	AssistantModel string  `mapstructure:"assistant_model"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
}

type ClassifierConfig struct {
	Provider string `mapstructure:"provider"`
}

type TravelConfig struct {
	SerpAPIKey    string `mapstructure:"serpapi_key"`
	DefaultOrigin string `mapstructure:"default_origin"`
	Currency      string `mapstructure:"currency"`
}

type RunConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
}

type CacheConfig struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
	Redis  RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type GoogleConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	CredentialsFile string   `mapstructure:"credentials_file"`
	TokenFile       string   `mapstructure:"token_file"`
	Scopes          []string `mapstructure:"scopes"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.assistant_model", "gpt-4o")
	v.SetDefault("openai.max_tokens", 150)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("classifier.provider", "gpt")
	v.SetDefault("travel.currency", "USD")
	v.SetDefault("run.poll_interval", 500*time.Millisecond)
	v.SetDefault("run.max_wait", 2*time.Minute)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("google.enabled", false)
	v.SetDefault("google.credentials_file", "credentials.json")
	v.SetDefault("google.token_file", "token.json")
	v.SetDefault("google.scopes", []string{
		"https://www.googleapis.com/auth/calendar.events",
		"https://www.googleapis.com/auth/gmail.send",
	})

	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if serpKey := v.GetString("SERPAPI_API_KEY"); serpKey != "" {
		config.Travel.SerpAPIKey = serpKey
	}
	if redisAddr := v.GetString("REDIS_ADDR"); redisAddr != "" {
		config.Cache.Redis.Addr = redisAddr
	}

	return &config, nil
}
