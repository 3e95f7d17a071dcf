package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Ai         AIConfig
	Federation FederationConfig
	Topics     TopicConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider    string // "ollama" or "huggingface"
	LLMModel       string // e.g. "llama3", "qwen2.5"
	OllamaBaseURL  string
	HuggingFaceKey string
}

// FederationConfig sizes fan-out, ranking and the context cache
type FederationConfig struct {
	FanOutTimeout      time.Duration
	AdapterResultLimit int
	SearchResultLimit  int
	ChatContextLimit   int
	SnippetWindow      int
	SnippetMaxLength   int
	UpcomingWindowDays int
	HistoryTurns       int

	ContextCacheBackend    string // "memory" or "redis"
	ContextCacheTTL        time.Duration
	ContextCacheMaxEntries int
	SessionStore           string // "postgres" or "memory"
}

type TopicConfig struct {
	SessionTitle string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/assistant.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceKey: getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Federation: FederationConfig{
			FanOutTimeout:      getEnvAsDuration("FANOUT_TIMEOUT_MS", time.Millisecond, 3*time.Second),
			AdapterResultLimit: getEnvAsInt("ADAPTER_RESULT_LIMIT", 25),
			SearchResultLimit:  getEnvAsInt("SEARCH_RESULT_LIMIT", 20),
			ChatContextLimit:   getEnvAsInt("CHAT_CONTEXT_LIMIT", 10),
			SnippetWindow:      getEnvAsInt("SNIPPET_WINDOW", 150),
			SnippetMaxLength:   getEnvAsInt("SNIPPET_MAX_LENGTH", 200),
			UpcomingWindowDays: getEnvAsInt("UPCOMING_WINDOW_DAYS", 7),
			HistoryTurns:       getEnvAsInt("HISTORY_TURNS", 6),

			ContextCacheBackend:    getEnv("CONTEXT_CACHE_BACKEND", "memory"),
			ContextCacheTTL:        getEnvAsDuration("CONTEXT_CACHE_TTL_SECONDS", time.Second, 2*time.Minute),
			ContextCacheMaxEntries: getEnvAsInt("CONTEXT_CACHE_MAX_ENTRIES", 500),
			SessionStore:           getEnv("SESSION_STORE", "postgres"),
		},
		Topics: TopicConfig{
			SessionTitle: getEnv("SESSION_TITLE_TOPIC_NAME", "SESSION_TITLE"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration reads an integer count of unit
func getEnvAsDuration(key string, unit time.Duration, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil && value > 0 {
		return time.Duration(value) * unit
	}
	return fallback
}
