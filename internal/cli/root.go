// Package cli provides the command-line interface for finsight.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/finstack-labs/finsight/internal/cli/commands"
	"github.com/finstack-labs/finsight/internal/cli/config"

	// Register database adapters.
	_ "github.com/finstack-labs/finsight/pkg/adapters/duckdb"
	_ "github.com/finstack-labs/finsight/pkg/adapters/postgres"
)

var (
	cfgFile string
	envFlag string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "finsight",
		Short: "finsight - MSME Financial Insight Pipeline",
		Long: `finsight turns a small business's operational database into
financial insight: it extracts sales, expenses, payroll, and product
data, computes KPIs and cash flow, and serves them through a dashboard,
AI-generated advisories, and a finance copilot chat.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.LoadConfigWithEnv(cfgFile, envFlag, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cfg.Verbose)
			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
MSME Financial Insight Pipeline
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./finsight.yaml)")
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", "", "Environment to use (e.g., dev, staging, prod)")
	rootCmd.PersistentFlags().String("state", "", "Path to state database")
	rootCmd.PersistentFlags().String("seeds-dir", "", "Path to seeds directory")
	rootCmd.PersistentFlags().String("formula-dir", "", "Path to ratio formula directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("env", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"dev", "staging", "prod"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewInsightsCommand())
	rootCmd.AddCommand(commands.NewChatCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewManifestCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for finsight.

To load completions:

Bash:
  $ source <(finsight completion bash)

Zsh:
  $ finsight completion zsh > "${fpath[1]}/_finsight"

Fish:
  $ finsight completion fish | source

PowerShell:
  PS> finsight completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
