package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finstack-labs/finsight/internal/cli/output"
	"github.com/finstack-labs/finsight/pkg/adapter"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load seed data from CSV files",
		Long: `Load seed data from CSV files in the seeds directory into the source
database. Each file becomes a table named after the file, so
seeds/daily_sales.csv loads into the daily_sales table.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Load all seeds
  finsight seed

  # Load seeds from a specific directory
  finsight seed --seeds-dir ./data/seeds`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd)
		},
	}
	return cmd
}

// SeedInfo describes one loaded seed file.
type SeedInfo struct {
	Table string `json:"table"`
	File  string `json:"file"`
}

// SeedOutput is the JSON output for the seed command.
type SeedOutput struct {
	SeedsDir string     `json:"seeds_dir"`
	Seeds    []SeedInfo `json:"seeds"`
}

func runSeed(cmd *cobra.Command) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	files, err := seedFiles(cfg.SeedsDir)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(SeedOutput{SeedsDir: cfg.SeedsDir, Seeds: []SeedInfo{}})
		}
		r.Header(1, "Seeds")
		r.Muted("No seed files found in " + cfg.SeedsDir)
		return nil
	}

	db, err := adapter.New(cfg.Source.AdapterConfig(), cmdCtx.Logger)
	if err != nil {
		return err
	}
	if err := db.Connect(ctx, cfg.Source.AdapterConfig()); err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer func() { _ = db.Close() }()

	loaded := make([]SeedInfo, 0, len(files))
	for _, file := range files {
		table := strings.TrimSuffix(filepath.Base(file), ".csv")
		if err := db.LoadCSV(ctx, table, file); err != nil {
			return fmt.Errorf("failed to load seed %s: %w", file, err)
		}
		loaded = append(loaded, SeedInfo{Table: table, File: file})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(SeedOutput{SeedsDir: cfg.SeedsDir, Seeds: loaded})
	}

	r.Header(1, "Seeds")
	rows := make([][]string, 0, len(loaded))
	for _, s := range loaded {
		rows = append(rows, []string{s.Table, s.File})
	}
	r.Table([]string{"table", "file"}, rows)
	r.Println("")
	r.Success(fmt.Sprintf("Loaded %d seed file(s) from %s", len(loaded), cfg.SeedsDir))
	return nil
}

func seedFiles(seedsDir string) ([]string, error) {
	if seedsDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(seedsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seeds directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		files = append(files, filepath.Join(seedsDir, entry.Name()))
	}
	return files, nil
}
