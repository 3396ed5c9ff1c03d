// Package pipeline orchestrates a refresh: connect to the business
// database, extract the operational tables, compute the metrics
// snapshot, evaluate custom ratio formulas, and persist the result as
// a run with an attached snapshot record.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/finstack-labs/finsight/internal/extract"
	"github.com/finstack-labs/finsight/internal/formula"
	"github.com/finstack-labs/finsight/internal/metrics"
	"github.com/finstack-labs/finsight/pkg/adapter"
	"github.com/finstack-labs/finsight/pkg/core"
)

// DefaultCacheTTL is how long a computed snapshot is served before the
// next Current call recomputes it.
const DefaultCacheTTL = 60 * time.Second

const cacheKey = "snapshot"

// Config holds everything a refresh needs.
type Config struct {
	Environment string
	Adapter     core.AdapterConfig
	Balance     metrics.Balance
	FormulaDir  string
	CacheTTL    time.Duration
}

// Engine runs refreshes and caches the latest snapshot.
type Engine struct {
	cfg    Config
	store  core.Store
	logger *slog.Logger
	cache  *ttlcache.Cache[string, *metrics.Snapshot]

	mu sync.Mutex
}

// New creates an Engine. If logger is nil, a discard logger is used.
func New(cfg Config, store core.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Environment == "" {
		cfg.Environment = "dev"
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Engine{
		cfg:    cfg,
		store:  store,
		logger: logger,
		cache:  ttlcache.New(ttlcache.WithTTL[string, *metrics.Snapshot](ttl)),
	}
}

// Balance returns the configured balance sheet.
func (e *Engine) Balance() metrics.Balance {
	return e.cfg.Balance
}

// Environment returns the environment runs are recorded under.
func (e *Engine) Environment() string {
	return e.cfg.Environment
}

// Refresh performs a full pipeline run and returns the fresh snapshot.
// The run is recorded in the state store even when extraction fails.
func (e *Engine) Refresh(ctx context.Context) (*metrics.Snapshot, *core.Run, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	run, err := e.store.CreateRun(e.cfg.Environment)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record run: %w", err)
	}

	snap, err := e.execute(ctx)
	if err != nil {
		if cerr := e.store.CompleteRun(run.ID, core.RunStatusFailed, err.Error()); cerr != nil {
			e.logger.Error("failed to mark run failed", slog.String("error", cerr.Error()))
		}
		return nil, run, err
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		_ = e.store.CompleteRun(run.ID, core.RunStatusFailed, err.Error())
		return nil, run, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := e.store.SaveSnapshot(run.ID, snap.TakenAt, payload); err != nil {
		_ = e.store.CompleteRun(run.ID, core.RunStatusFailed, err.Error())
		return nil, run, err
	}
	if err := e.store.CompleteRun(run.ID, core.RunStatusCompleted, ""); err != nil {
		return nil, run, err
	}

	e.cache.Set(cacheKey, snap, ttlcache.DefaultTTL)
	e.logger.Info("pipeline refresh completed",
		slog.String("run_id", run.ID),
		slog.Float64("total_sales", snap.Sales.TotalSales))
	return snap, run, nil
}

func (e *Engine) execute(ctx context.Context) (*metrics.Snapshot, error) {
	db, err := adapter.New(e.cfg.Adapter, e.logger)
	if err != nil {
		return nil, err
	}
	if err := db.Connect(ctx, e.cfg.Adapter); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", e.cfg.Adapter.Type, err)
	}
	defer func() { _ = db.Close() }()

	ex := extract.New(db, e.logger)

	expenses, err := ex.Expenses(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := ex.DailySales(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := ex.Employees(ctx)
	if err != nil {
		return nil, err
	}
	products, err := ex.Products(ctx)
	if err != nil {
		return nil, err
	}

	snap := metrics.Build(time.Now().UTC(), expenses, sales, employees, products, e.cfg.Balance)

	if e.cfg.FormulaDir != "" {
		fe := formula.NewEngine(e.logger)
		if err := fe.LoadDir(e.cfg.FormulaDir); err != nil {
			return nil, err
		}
		for name, v := range fe.Evaluate(snap.Flat()) {
			snap.Ratios[name] = v
		}
	}

	return snap, nil
}

// Current returns the freshest available snapshot: the cached one if
// it has not expired, otherwise the latest persisted snapshot,
// otherwise the result of a full refresh.
func (e *Engine) Current(ctx context.Context) (*metrics.Snapshot, error) {
	if item := e.cache.Get(cacheKey); item != nil {
		return item.Value(), nil
	}

	rec, err := e.store.GetLatestSnapshot(e.cfg.Environment)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		snap := &metrics.Snapshot{}
		if err := json.Unmarshal(rec.Payload, snap); err != nil {
			return nil, fmt.Errorf("failed to decode stored snapshot: %w", err)
		}
		e.cache.Set(cacheKey, snap, ttlcache.DefaultTTL)
		return snap, nil
	}

	snap, _, err := e.Refresh(ctx)
	return snap, err
}

// Invalidate drops the cached snapshot so the next Current call reads
// from the store or refreshes.
func (e *Engine) Invalidate() {
	e.cache.Delete(cacheKey)
}
