package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"

	"github.com/MimeLyc/sentence-sub-translator/pkg/log"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// LLM Configuration:
// - LLM_API_KEY: API key for the LLM provider (optional for local servers)
// - LLM_API_URL: API endpoint URL (default: http://localhost:1234/v1)
// - LLM_MODEL: Default model id (optional, picked per job otherwise)
// - LLM_MAX_TOKENS: Maximum tokens per group (default: 100)
// - LLM_TEMPERATURE: Sampling temperature, 0 to 1 (default: 0.3)
// - LLM_TIMEOUT: Request timeout in seconds (default: 120)
// - LLM_RATE_LIMIT: Requests per second, 0 for unlimited (default: 0)
// - LLM_SITE_URL: Site URL for HTTP referer header (optional)
// - LLM_APP_NAME: Application name for X-Title header (optional)
//
// HTTP Configuration:
// - HTTP_ADDR: Listen address (default: :8080)
// - CORS_ORIGINS: Comma separated allowed origins (default: *)
// - UI_ENABLED: Serve the browser UI (default: false)
// - UI_STATIC_DIR: Directory of the built UI (default: /app/web)
//
// Translate Configuration:
// - TARGET_LANGUAGE: Default target language code (optional)
// - HEALTH_CHECK_CRON: Backend health check schedule (default: @every 30s)
// - ETA_INTERVAL_MS: Remaining time sampling interval (default: 1000)
// - APPEND_TRAILING_COMMA: Append "," to unterminated lines at load (default: true)
// - SUBTITLE_FILE: Subtitle track loaded into the session at startup (optional)
// - GLOSSARY_FILE: JSON term map injected into prompts (optional)
// - SETTINGS_FILE: Runtime settings file (default: /app/config/settings.json)
//
// System Configuration:
// - LOG_LEVEL: debug, info, warn or error (default: info)
type Config struct {
	// LLM Configuration
	LLM LLMConfig `json:"llm"`

	// HTTP Configuration
	HTTP HTTPConfig `json:"http"`

	// Translate Configuration
	Translate TranslateConfig `json:"translate"`

	// System Configuration
	System SystemConfig `json:"system"`
}

// LLMConfig holds the configuration for LLM client
// Supports any OpenAI-compatible server (LM Studio, OpenRouter, OpenAI, ...)
type LLMConfig struct {
	APIKey      string  `json:"-"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
	RateLimit   float64 `json:"rate_limit"`
	SiteURL     string  `json:"site_url"`
	AppName     string  `json:"app_name"`
}

type HTTPConfig struct {
	Addr        string   `json:"addr"`
	CORSOrigins []string `json:"cors_origins"`
	UIEnabled   bool     `json:"ui_enabled"`
	UIStaticDir string   `json:"ui_static_dir"`
}

type TranslateConfig struct {
	TargetLanguage      string        `json:"target_language"`
	HealthCheckCron     string        `json:"health_check_cron"`
	ETAInterval         time.Duration `json:"eta_interval"`
	AppendTrailingComma bool          `json:"append_trailing_comma"`
	GlossaryFile        string        `json:"glossary_file"`
	SubtitleFile        string        `json:"subtitle_file"`
	SettingsFile        string        `json:"settings_file"`
}

// SystemConfig holds the system configuration
type SystemConfig struct {
	LogLevel string `json:"log_level"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// LoadDotEnv loads the given .env files into the environment. Missing files
// are skipped and variables already set win.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Warn("Failed to load %s: %v", f, err)
		}
	}
}

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "http://localhost:1234/v1"),
			Model:       getEnvString("LLM_MODEL", ""),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 100),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
			Timeout:     getEnvInt("LLM_TIMEOUT", 120),
			RateLimit:   getEnvFloat("LLM_RATE_LIMIT", 0),
			SiteURL:     getEnvString("LLM_SITE_URL", ""),
			AppName:     getEnvString("LLM_APP_NAME", ""),
		},
		HTTP: HTTPConfig{
			Addr:        getEnvString("HTTP_ADDR", ":8080"),
			CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
			UIEnabled:   getEnvBool("UI_ENABLED", false),
			UIStaticDir: getEnvString("UI_STATIC_DIR", "/app/web"),
		},
		Translate: TranslateConfig{
			TargetLanguage:      getEnvString("TARGET_LANGUAGE", ""),
			HealthCheckCron:     getEnvString("HEALTH_CHECK_CRON", "@every 30s"),
			ETAInterval:         time.Duration(getEnvInt("ETA_INTERVAL_MS", 1000)) * time.Millisecond,
			AppendTrailingComma: getEnvBool("APPEND_TRAILING_COMMA", true),
			GlossaryFile:        getEnvString("GLOSSARY_FILE", ""),
			SubtitleFile:        getEnvString("SUBTITLE_FILE", ""),
			SettingsFile:        RuntimeSettingsFilePath(),
		},
		System: SystemConfig{
			LogLevel: getEnvString("LOG_LEVEL", "info"),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: %+v", *config)
	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if strings.TrimSpace(c.LLM.APIURL) == "" {
		return fmt.Errorf("LLM_API_URL is required")
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("LLM_MAX_TOKENS must be greater than 0")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 1")
	}
	if c.LLM.Timeout < 1 {
		return fmt.Errorf("LLM_TIMEOUT must be greater than 0")
	}
	if c.LLM.RateLimit < 0 {
		return fmt.Errorf("LLM_RATE_LIMIT must not be negative")
	}
	if _, err := cron.ParseStandard(c.Translate.HealthCheckCron); err != nil {
		return fmt.Errorf("invalid HEALTH_CHECK_CRON: %w", err)
	}
	if c.Translate.ETAInterval <= 0 {
		return fmt.Errorf("ETA_INTERVAL_MS must be greater than 0")
	}
	if c.Translate.TargetLanguage != "" {
		if _, err := language.Parse(c.Translate.TargetLanguage); err != nil {
			return fmt.Errorf("invalid TARGET_LANGUAGE: %w", err)
		}
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var ret []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			ret = append(ret, item)
		}
	}
	if len(ret) == 0 {
		return defaultValue
	}
	return ret
}
