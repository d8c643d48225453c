// Package config loads orchestrator settings from the environment. Every
// setting is optional: missing LLM credentials degrade provider selection to
// the mock adapter and a missing search credential degrades web search to
// fallback results, so a bare process still runs pipelines end to end.
package config

import (
	"log/slog"
	"os"
	"strconv"
)

// Config holds all orchestrator settings.
type Config struct {
	// HTTP facade.
	Port     string
	LogLevel slog.Level

	// LLM providers.
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIMaxTokens    int
	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicMaxTokens int

	// Tool back-ends.
	TavilyAPIKey string

	// State sync.
	RedisURL string
	// APIURL is the control-plane base URL, e.g. http://localhost:3000.
	APIURL string
}

// LoadFromEnv reads the configuration from environment variables, applying
// defaults for anything unset.
func LoadFromEnv() Config {
	return Config{
		Port:     getEnvOrDefault("PORT", "8000"),
		LogLevel: parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),

		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIMaxTokens:    getEnvIntOrDefault("OPENAI_MAX_TOKENS", 2000),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:     getEnvOrDefault("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
		AnthropicMaxTokens: getEnvIntOrDefault("ANTHROPIC_MAX_TOKENS", 2000),

		TavilyAPIKey: os.Getenv("TAVILY_API_KEY"),

		RedisURL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		APIURL:   getEnvOrDefault("API_URL", "http://localhost:3000"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("Ignoring non-numeric environment value", "key", key, "value", val)
		return defaultVal
	}
	return n
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
