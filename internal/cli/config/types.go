// Package config provides configuration management for the finsight
// CLI. Settings layer as defaults, then finsight.yaml, then a .env
// file, then FINSIGHT_ environment variables, then command-line flags.
package config

import (
	"time"

	"github.com/finstack-labs/finsight/internal/insights"
	"github.com/finstack-labs/finsight/internal/metrics"
	"github.com/finstack-labs/finsight/pkg/core"
)

// SourceConfig describes the business database to extract from.
type SourceConfig struct {
	Type     string            `koanf:"type"`
	Path     string            `koanf:"path"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`
}

// AdapterConfig converts the source settings into the adapter layer's
// config type.
func (s *SourceConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     s.Type,
		Path:     s.Path,
		Host:     s.Host,
		Port:     s.Port,
		Database: s.Database,
		Username: s.User,
		Password: s.Password,
		Schema:   s.Schema,
		Options:  s.Options,
	}
}

// LLMConfig holds the chat completion backend settings.
type LLMConfig struct {
	APIKey      string  `koanf:"api_key"`
	BaseURL     string  `koanf:"base_url"`
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`
}

// UIConfig holds configuration for the dashboard server.
type UIConfig struct {
	Port            int  `koanf:"port"`
	AutoOpen        bool `koanf:"auto_open"`
	Watch           bool `koanf:"watch"`
	RefreshSeconds  int  `koanf:"refresh_seconds"`
	SessionInsecure bool `koanf:"session_insecure"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:           8765,
		AutoOpen:       true,
		Watch:          true,
		RefreshSeconds: 300,
	}
}

// GetUIConfig returns the UI config with defaults applied for any
// unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = 8765
	}
	if ui.RefreshSeconds == 0 {
		ui.RefreshSeconds = 300
	}
	return ui
}

// Config holds all CLI configuration options.
type Config struct {
	ProjectRoot  string                   `koanf:"-"`
	StatePath    string                   `koanf:"state_path"`
	SeedsDir     string                   `koanf:"seeds_dir"`
	FormulaDir   string                   `koanf:"formula_dir"`
	Environment  string                   `koanf:"environment"`
	Verbose      bool                     `koanf:"verbose"`
	OutputFormat string                   `koanf:"output"`
	CacheTTL     time.Duration            `koanf:"cache_ttl"`
	Source       *SourceConfig            `koanf:"source"`
	Balance      metrics.Balance          `koanf:"balance"`
	Business     insights.BusinessProfile `koanf:"business"`
	LLM          LLMConfig                `koanf:"llm"`
	UI           *UIConfig                `koanf:"ui"`
	Environments map[string]EnvConfig     `koanf:"environments"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	StatePath string        `koanf:"state_path"`
	SeedsDir  string        `koanf:"seeds_dir"`
	Source    *SourceConfig `koanf:"source"`
}

// Default configuration values.
const (
	DefaultSeedsDir   = "seeds"
	DefaultFormulaDir = "formulas"
	DefaultStateFile  = ".finsight/state.db"
	DefaultEnv        = "dev"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
