package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/finstack-labs/finsight/internal/cli/config"
	"github.com/finstack-labs/finsight/internal/cli/output"
	"github.com/finstack-labs/finsight/internal/insights"
	"github.com/finstack-labs/finsight/internal/llm"
	"github.com/finstack-labs/finsight/internal/pipeline"
	"github.com/finstack-labs/finsight/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    *state.SQLiteStore
	Engine   *pipeline.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an opened state
// store and pipeline engine. Returns the context and a cleanup
// function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}

	cmdCtx.Store = store
	cmdCtx.Engine = pipeline.New(pipeline.Config{
		Environment: cmdCtx.Cfg.Environment,
		Adapter:     cmdCtx.Cfg.Source.AdapterConfig(),
		Balance:     cmdCtx.Cfg.Balance,
		FormulaDir:  cmdCtx.Cfg.FormulaDir,
		CacheTTL:    cmdCtx.Cfg.CacheTTL,
	}, store, cmdCtx.Logger)

	cleanup := func() {
		_ = store.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without the
// state store or engine. Useful for commands that don't need them.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// NewLLMClient builds the chat completion client from configuration.
func (c *CommandContext) NewLLMClient() *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:      c.Cfg.LLM.APIKey,
		BaseURL:     c.Cfg.LLM.BaseURL,
		Model:       c.Cfg.LLM.Model,
		Temperature: c.Cfg.LLM.Temperature,
		MaxTokens:   c.Cfg.LLM.MaxTokens,
	}, c.Logger)
}

// NewInsightGenerator builds the insight generator over the command's
// store and LLM client.
func (c *CommandContext) NewInsightGenerator() *insights.Generator {
	return insights.NewGenerator(c.NewLLMClient(), c.Store, c.Cfg.Business, c.Logger)
}

// getConfig returns the current configuration, falling back to
// defaults when nothing was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		StatePath:    config.DefaultStateFile,
		SeedsDir:     config.DefaultSeedsDir,
		FormulaDir:   config.DefaultFormulaDir,
		Environment:  config.DefaultEnv,
		OutputFormat: config.DefaultOutput,
		Source:       &config.SourceConfig{Type: "duckdb"},
	}
}

func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
