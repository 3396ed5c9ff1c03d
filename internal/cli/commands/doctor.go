package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/finstack-labs/finsight/internal/cli/config"
	"github.com/finstack-labs/finsight/internal/cli/output"
	"github.com/finstack-labs/finsight/internal/formula"
	"github.com/finstack-labs/finsight/internal/state"
	"github.com/finstack-labs/finsight/pkg/adapter"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the health of the finsight setup",
		Long: `Verify that every part of the finsight setup is ready to run:
configuration file, state store, source database, LLM credentials,
formula files, and seed data.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run all checks
  finsight doctor

  # Output as JSON
  finsight doctor --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}
	return cmd
}

// HealthCheck is the result of one doctor check.
type HealthCheck struct {
	Name   string `json:"name"`
	Group  string `json:"group"`
	Status string `json:"status"` // "ok", "warn", "error"
	Detail string `json:"detail,omitempty"`
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks  []HealthCheck `json:"checks"`
	Healthy bool          `json:"healthy"`
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	var checks []HealthCheck

	// Configuration
	if path := config.GetConfigFileUsed(); path != "" {
		checks = append(checks, HealthCheck{
			Name: "config file", Group: "configuration", Status: "ok", Detail: path,
		})
	} else {
		checks = append(checks, HealthCheck{
			Name: "config file", Group: "configuration", Status: "warn",
			Detail: "no finsight.yaml found, using defaults",
		})
	}
	checks = append(checks, HealthCheck{
		Name: "environment", Group: "configuration", Status: "ok", Detail: cfg.Environment,
	})

	// State store
	checks = append(checks, checkStateStore(cfg, cmdCtx))

	// Source database
	checks = append(checks, checkSource(cmd, cmdCtx))

	// LLM credentials
	if cfg.LLM.APIKey != "" {
		checks = append(checks, HealthCheck{
			Name: "llm api key", Group: "integrations", Status: "ok",
			Detail: fmt.Sprintf("model %s", llmModel(cfg)),
		})
	} else {
		checks = append(checks, HealthCheck{
			Name: "llm api key", Group: "integrations", Status: "warn",
			Detail: "not set; insights and chat will fail",
		})
	}

	// Formula files
	checks = append(checks, checkFormulas(cfg, cmdCtx))

	// Seeds
	if files, err := seedFiles(cfg.SeedsDir); err != nil {
		checks = append(checks, HealthCheck{
			Name: "seeds", Group: "data", Status: "error", Detail: err.Error(),
		})
	} else if len(files) == 0 {
		checks = append(checks, HealthCheck{
			Name: "seeds", Group: "data", Status: "warn",
			Detail: "no CSV files in " + cfg.SeedsDir,
		})
	} else {
		checks = append(checks, HealthCheck{
			Name: "seeds", Group: "data", Status: "ok",
			Detail: fmt.Sprintf("%d file(s) in %s", len(files), cfg.SeedsDir),
		})
	}

	healthy := true
	for _, c := range checks {
		if c.Status == "error" {
			healthy = false
		}
	}

	out := DoctorOutput{Checks: checks, Healthy: healthy}
	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(out); err != nil {
			return err
		}
	} else {
		renderDoctor(r, out)
	}

	if !healthy {
		cmd.SilenceUsage = true
		return fmt.Errorf("health check found problems")
	}
	return nil
}

func checkStateStore(cfg *config.Config, cmdCtx *CommandContext) HealthCheck {
	store := state.NewSQLiteStore(cmdCtx.Logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return HealthCheck{Name: "state store", Group: "storage", Status: "error", Detail: err.Error()}
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(); err != nil {
		return HealthCheck{Name: "state store", Group: "storage", Status: "error", Detail: err.Error()}
	}
	version, err := store.MigrationVersion()
	if err != nil {
		return HealthCheck{Name: "state store", Group: "storage", Status: "error", Detail: err.Error()}
	}
	return HealthCheck{
		Name: "state store", Group: "storage", Status: "ok",
		Detail: fmt.Sprintf("%s (schema v%d)", cfg.StatePath, version),
	}
}

func checkSource(cmd *cobra.Command, cmdCtx *CommandContext) HealthCheck {
	cfg := cmdCtx.Cfg
	db, err := adapter.New(cfg.Source.AdapterConfig(), cmdCtx.Logger)
	if err != nil {
		return HealthCheck{Name: "source database", Group: "data", Status: "error", Detail: err.Error()}
	}
	if err := db.Connect(cmd.Context(), cfg.Source.AdapterConfig()); err != nil {
		return HealthCheck{Name: "source database", Group: "data", Status: "error", Detail: err.Error()}
	}
	defer func() { _ = db.Close() }()

	return HealthCheck{
		Name: "source database", Group: "data", Status: "ok",
		Detail: cfg.Source.Type,
	}
}

func checkFormulas(cfg *config.Config, cmdCtx *CommandContext) HealthCheck {
	if _, err := os.Stat(cfg.FormulaDir); os.IsNotExist(err) {
		return HealthCheck{
			Name: "formulas", Group: "configuration", Status: "warn",
			Detail: "no formula directory at " + cfg.FormulaDir,
		}
	}

	eng := formula.NewEngine(cmdCtx.Logger)
	if err := eng.LoadDir(cfg.FormulaDir); err != nil {
		return HealthCheck{Name: "formulas", Group: "configuration", Status: "error", Detail: err.Error()}
	}
	return HealthCheck{
		Name: "formulas", Group: "configuration", Status: "ok",
		Detail: fmt.Sprintf("%d ratio function(s)", len(eng.Names())),
	}
}

func renderDoctor(r *output.Renderer, out DoctorOutput) {
	r.Header(1, "Doctor")

	titleCaser := cases.Title(language.English)
	currentGroup := ""
	for _, c := range out.Checks {
		if c.Group != currentGroup {
			currentGroup = c.Group
			r.Println("")
			r.Header(2, titleCaser.String(currentGroup))
		}
		r.StatusLine(c.Name, c.Status, c.Detail)
	}

	r.Println("")
	if out.Healthy {
		r.Success("All checks passed")
	} else {
		r.Error("Some checks failed")
	}
}

func llmModel(cfg *config.Config) string {
	if cfg.LLM.Model != "" {
		return cfg.LLM.Model
	}
	return "default"
}
