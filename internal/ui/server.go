// Package ui serves the live financial dashboard.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/finstack-labs/finsight/internal/agent"
	"github.com/finstack-labs/finsight/internal/insights"
	"github.com/finstack-labs/finsight/internal/pipeline"
	"github.com/finstack-labs/finsight/internal/ui/notifier"
	"github.com/finstack-labs/finsight/internal/ui/router"
	"github.com/finstack-labs/finsight/pkg/core"
)

const watchDebounce = 100 * time.Millisecond

// Server is the dashboard server.
type Server struct {
	engine          *pipeline.Engine
	store           core.Store
	generator       *insights.Generator
	chatter         agent.Chatter
	sessionStore    *sessions.CookieStore
	port            int
	watchDir        string
	refreshInterval time.Duration
	logger          *slog.Logger
	notifier        *notifier.Notifier
}

// Config holds configuration for the dashboard server.
type Config struct {
	Engine    *pipeline.Engine
	Store     core.Store
	Generator *insights.Generator
	Chatter   agent.Chatter

	Port int

	// WatchDir, when set, is watched for CSV changes that trigger a
	// pipeline refresh. Typically the seeds directory of a file-backed
	// source.
	WatchDir string

	// RefreshInterval re-runs the pipeline on a timer. Zero disables
	// the ticker.
	RefreshInterval time.Duration

	SessionSecret string
	Logger        *slog.Logger
}

// NewServer creates a dashboard server.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30)
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		engine:          cfg.Engine,
		store:           cfg.Store,
		generator:       cfg.Generator,
		chatter:         cfg.Chatter,
		sessionStore:    sessionStore,
		port:            cfg.Port,
		watchDir:        cfg.WatchDir,
		refreshInterval: cfg.RefreshInterval,
		logger:          logger,
		notifier:        notifier.New(),
	}
}

// Serve starts the dashboard and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting dashboard", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.engine, s.store, s.generator, s.chatter,
		s.sessionStore, s.notifier, s.IsDev()); err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watchDir != "" {
		eg.Go(func() error {
			return s.watchSeeds(egctx)
		})
	}

	if s.refreshInterval > 0 {
		eg.Go(func() error {
			return s.refreshLoop(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down dashboard...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// IsDev reports whether the server runs in development mode.
func (s *Server) IsDev() bool {
	return true
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// refreshLoop re-runs the pipeline at the configured cadence so
// connected dashboards stay current without manual runs.
func (s *Server) refreshLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// watchSeeds triggers a refresh when CSV files under the watch
// directory change.
func (s *Server) watchSeeds(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.watchDir); err != nil {
		s.logger.Error("failed to watch seeds directory", "dir", s.watchDir, "error", err)
		return nil
	}

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".csv" {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				s.logger.Debug("seed file changed, refreshing", "file", event.Name)
				s.refresh(ctx)
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}

func (s *Server) refresh(ctx context.Context) {
	if _, _, err := s.engine.Refresh(ctx); err != nil {
		s.logger.Error("refresh failed", "error", err)
		return
	}
	s.notifier.Broadcast()
}
