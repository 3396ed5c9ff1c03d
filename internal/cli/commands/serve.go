package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/finstack-labs/finsight/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the financial dashboard",
		Long: `Start a local web server providing the live financial dashboard.

The dashboard provides:
- KPI overview with a cash-flow chart
- Run history
- LLM advisory insights
- Finance copilot chat

The pipeline re-runs on a timer (ui.refresh_seconds) and, for
file-backed sources, when seed CSVs change.`,
		Example: `  # Start dashboard on default port
  finsight serve

  # Start on custom port
  finsight serve --port 3000

  # Start without auto-opening browser
  finsight serve --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Watch seed files for changes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	uiCfg := cfg.GetUIConfig()

	// CLI flags override config file
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	autoOpen := uiCfg.AutoOpen
	if opts.NoBrowser {
		autoOpen = false
	}

	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	// Warm the snapshot so the first page load has data.
	if _, err := cmdCtx.Engine.Current(cmd.Context()); err != nil {
		cmdCtx.Logger.Warn("initial refresh failed; dashboard starts empty", "error", err)
	}

	watchDir := ""
	if watch && cfg.Source != nil && cfg.Source.Type == "duckdb" {
		watchDir = cfg.SeedsDir
	}

	server := ui.NewServer(ui.Config{
		Engine:          cmdCtx.Engine,
		Store:           cmdCtx.Store,
		Generator:       cmdCtx.NewInsightGenerator(),
		Chatter:         cmdCtx.NewLLMClient(),
		Port:            port,
		WatchDir:        watchDir,
		RefreshInterval: time.Duration(uiCfg.RefreshSeconds) * time.Second,
		SessionSecret:   sessionSecret(),
		Logger:          cmdCtx.Logger,
	})

	if autoOpen {
		url := fmt.Sprintf("http://localhost:%d", port)
		go openBrowser(url)
	}

	fmt.Printf("Starting dashboard on http://localhost:%d\n", port)
	fmt.Println("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// sessionSecret returns the cookie session secret. The fixed fallback
// is for local development only.
func sessionSecret() string {
	secret := os.Getenv("FINSIGHT_SESSION_SECRET")
	if secret == "" {
		secret = "finsight-dev-secret-change-in-production" //nolint:gosec
	}
	return secret
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
