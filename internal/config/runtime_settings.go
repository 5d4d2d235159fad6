package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
)

const DefaultRuntimeSettingsFile = "/app/config/settings.json"

// RuntimeSettings are the user preferences that survive a restart. They
// override the environment defaults when the settings file exists.
type RuntimeSettings struct {
	LLMAPIURL           string  `json:"llm_api_url"`
	Model               string  `json:"model"`
	TargetLanguage      string  `json:"target_language"`
	Temperature         float64 `json:"temperature"`
	MaxTokens           int     `json:"max_tokens"`
	HealthCheckCron     string  `json:"health_check_cron"`
	AppendTrailingComma bool    `json:"append_trailing_comma"`
}

func RuntimeSettingsFilePath() string {
	return getEnvString("SETTINGS_FILE", DefaultRuntimeSettingsFile)
}

func (s RuntimeSettings) Validate() error {
	if strings.TrimSpace(s.LLMAPIURL) == "" {
		return fmt.Errorf("llm_api_url is required")
	}
	if s.Temperature < 0 || s.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1")
	}
	if s.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be greater than 0")
	}
	if strings.TrimSpace(s.HealthCheckCron) == "" {
		return fmt.Errorf("health_check_cron is required")
	}
	if _, err := cron.ParseStandard(s.HealthCheckCron); err != nil {
		return fmt.Errorf("invalid health_check_cron: %w", err)
	}
	if strings.TrimSpace(s.TargetLanguage) != "" {
		if _, err := language.Parse(s.TargetLanguage); err != nil {
			return fmt.Errorf("invalid target_language: %w", err)
		}
	}
	return nil
}

func (c *Config) RuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		LLMAPIURL:           c.LLM.APIURL,
		Model:               c.LLM.Model,
		TargetLanguage:      c.Translate.TargetLanguage,
		Temperature:         c.LLM.Temperature,
		MaxTokens:           c.LLM.MaxTokens,
		HealthCheckCron:     c.Translate.HealthCheckCron,
		AppendTrailingComma: c.Translate.AppendTrailingComma,
	}
}

func WithRuntimeSettings(settings RuntimeSettings) Option {
	return func(c *Config) {
		if strings.TrimSpace(settings.LLMAPIURL) != "" {
			c.LLM.APIURL = settings.LLMAPIURL
		}
		if strings.TrimSpace(settings.Model) != "" {
			c.LLM.Model = settings.Model
		}
		if tag, err := language.Parse(settings.TargetLanguage); err == nil {
			c.Translate.TargetLanguage = tag.String()
		}
		c.LLM.Temperature = settings.Temperature
		if settings.MaxTokens > 0 {
			c.LLM.MaxTokens = settings.MaxTokens
		}
		if strings.TrimSpace(settings.HealthCheckCron) != "" {
			c.Translate.HealthCheckCron = settings.HealthCheckCron
		}
		c.Translate.AppendTrailingComma = settings.AppendTrailingComma
	}
}

func LoadRuntimeSettingsFile(path string) (RuntimeSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeSettings{}, err
	}
	var settings RuntimeSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return RuntimeSettings{}, fmt.Errorf("invalid settings file: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return RuntimeSettings{}, fmt.Errorf("invalid settings file: %w", err)
	}
	return settings, nil
}

func WriteRuntimeSettingsFile(path string, settings RuntimeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	content, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	content = append(content, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

type RuntimeSettingsStore struct {
	path string

	mu      sync.RWMutex
	current RuntimeSettings
}

func NewRuntimeSettingsStore(path string, initial RuntimeSettings) (*RuntimeSettingsStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings file path is required")
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &RuntimeSettingsStore{
		path:    path,
		current: initial,
	}, nil
}

func (s *RuntimeSettingsStore) GetRuntimeSettings() (RuntimeSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *RuntimeSettingsStore) UpdateRuntimeSettings(next RuntimeSettings) (RuntimeSettings, error) {
	if err := next.Validate(); err != nil {
		return RuntimeSettings{}, err
	}
	if err := WriteRuntimeSettingsFile(s.path, next); err != nil {
		return RuntimeSettings{}, err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return next, nil
}
