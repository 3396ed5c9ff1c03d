package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in command contexts.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search
// for config files.
const maxUpwardSearchLevels = 10

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

var configNames = []string{"finsight.yaml", "finsight.yml"}

func configExistsIn(dir string) bool {
	for _, name := range configNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a finsight
// config file. Returns empty string if not found.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func inferProjectRoot() string {
	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}
	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the loader state. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, .env, environment
// variables, and flags.
// Precedence (highest to lowest): flags > env vars > .env > config
// file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithEnv(cfgFile, "", flags)
}

// LoadConfigWithEnv loads configuration with an optional environment
// override selecting which entry of the environments map applies.
func LoadConfigWithEnv(cfgFile string, envOverride string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	projectRoot := inferProjectRoot()
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"state_path":  DefaultStateFile,
		"seeds_dir":   DefaultSeedsDir,
		"formula_dir": DefaultFormulaDir,
		"environment": DefaultEnv,
		"verbose":     false,
		"output":      DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		for _, name := range configNames {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. .env file in project root (ignored when absent). Values go
	// into the process environment so both ${VAR} expansion and the
	// FINSIGHT_ provider below see them.
	dotenv := filepath.Join(projectRoot, ".env")
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return nil, fmt.Errorf("error reading %s: %w", dotenv, err)
		}
	}

	// 4. Environment variables: FINSIGHT_LLM__API_KEY -> llm.api_key
	if err := k.Load(env.Provider("FINSIGHT_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "FINSIGHT_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// --state maps to the state_path config key
			if key == "state" {
				return "state_path", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	cfg.SeedsDir = resolvePathRelativeTo(cfg.SeedsDir, projectRoot)
	cfg.FormulaDir = resolvePathRelativeTo(cfg.FormulaDir, projectRoot)

	if envOverride != "" {
		cfg.Environment = envOverride
	}

	// Apply environment-specific overrides.
	if cfg.Environment != "" && cfg.Environments != nil {
		if envCfg, ok := cfg.Environments[cfg.Environment]; ok {
			if envCfg.StatePath != "" {
				cfg.StatePath = resolvePathRelativeTo(envCfg.StatePath, projectRoot)
			}
			if envCfg.SeedsDir != "" {
				cfg.SeedsDir = resolvePathRelativeTo(envCfg.SeedsDir, projectRoot)
			}
			if envCfg.Source != nil {
				cfg.Source = MergeSourceConfig(cfg.Source, envCfg.Source)
			}
		}
	}

	// A missing source section defaults to an in-memory DuckDB, which
	// keeps doctor and seed usable before any database is configured.
	if cfg.Source == nil {
		cfg.Source = &SourceConfig{Type: "duckdb"}
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = "duckdb"
	}

	expandSourceEnvVars(cfg.Source)
	cfg.LLM.APIKey = expandEnvVars(cfg.LLM.APIKey)
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("QWEN_API_KEY")
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used,
// if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns with environment variable
// values, leaving unknown variables untouched.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// expandSourceEnvVars expands environment variables in sensitive
// source fields.
func expandSourceEnvVars(s *SourceConfig) {
	if s == nil {
		return
	}
	s.Host = expandEnvVars(s.Host)
	s.Database = expandEnvVars(s.Database)
	s.User = expandEnvVars(s.User)
	s.Password = expandEnvVars(s.Password)
}

// MergeSourceConfig merges two source configs, with override taking
// precedence.
func MergeSourceConfig(base, override *SourceConfig) *SourceConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Options = make(map[string]string)
	for key, v := range base.Options {
		merged.Options[key] = v
	}

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Path != "" {
		merged.Path = override.Path
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	for key, v := range override.Options {
		merged.Options[key] = v
	}

	return &merged
}
