package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Gemini AI
	GeminiAPIKey       string
	GeminiModel        string
	GeminiMaxRetries   int
	GeminiBackoffSecs  int
	HealthProbeTimeout int

	// Logging
	LogFile   string
	LogLevel  string
	LogFormat string

	// HTTP
	CORSAllowedOrigins []string
	MetricsEnabled     bool
}

// Logging holds the log settings, which are readable before the rest of the
// configuration is validated.
type Logging struct {
	File   string
	Level  string
	Format string
}

// LoadLogging reads the log settings from the environment (and .env). It never
// fails, so the file logger exists before required variables are checked.
func LoadLogging() Logging {
	// Load .env file if it exists
	godotenv.Load()

	defaultLevel := "info"
	if loadEnv() == "development" {
		defaultLevel = "debug"
	}

	return Logging{
		File:   getEnvOrDefault("LOG_FILE", "api.log"),
		Level:  getEnvOrDefault("LOG_LEVEL", defaultLevel),
		Format: getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

// Load reads configuration from the environment, falling back to a .env file
// when one exists. A missing GEMINI_API_KEY is returned as an error.
func Load() (*Config, error) {
	logs := LoadLogging()

	apiKey, err := requireEnv("GEMINI_API_KEY")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "5000"),
		Env:                loadEnv(),
		GeminiAPIKey:       apiKey,
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-pro"),
		GeminiMaxRetries:   getEnvAsIntOrDefault("GEMINI_MAX_RETRIES", 3),
		GeminiBackoffSecs:  getEnvAsIntOrDefault("GEMINI_RETRY_BACKOFF_SECONDS", 2),
		HealthProbeTimeout: getEnvAsIntOrDefault("HEALTH_PROBE_TIMEOUT_SECONDS", 15),
		LogFile:            logs.File,
		LogLevel:           logs.Level,
		LogFormat:          logs.Format,
		CORSAllowedOrigins: getEnvAsListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MetricsEnabled:     getEnvAsBoolOrDefault("METRICS_ENABLED", true),
	}

	if cfg.GeminiMaxRetries < 1 {
		return nil, fmt.Errorf("GEMINI_MAX_RETRIES must be at least 1, got %d", cfg.GeminiMaxRetries)
	}
	if cfg.GeminiBackoffSecs < 0 {
		return nil, fmt.Errorf("GEMINI_RETRY_BACKOFF_SECONDS cannot be negative, got %d", cfg.GeminiBackoffSecs)
	}

	return cfg, nil
}

func loadEnv() string {
	return getEnvOrDefault("ENV", getEnvOrDefault("FLASK_ENV", "production"))
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// APIKeyConfigured reports whether the provider key looks plausible without exposing it.
func (c *Config) APIKeyConfigured() bool {
	return len(c.GeminiAPIKey) > 10
}

// RetryBackoff is the linear backoff step; attempt n waits n times this value.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.GeminiBackoffSecs) * time.Second
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.HealthProbeTimeout) * time.Second
}

func requireEnv(key string) (string, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return val, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
