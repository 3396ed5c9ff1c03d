// Package formula evaluates user-defined financial ratios written in
// Starlark. A formula file defines functions named ratio_<name>; each
// is called with a dict of the snapshot's scalar metrics and must
// return a number. The results merge into the snapshot's ratio map
// under <name>.
package formula

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const ratioPrefix = "ratio_"

// Engine loads and evaluates ratio formula files.
type Engine struct {
	logger *slog.Logger

	// name -> compiled function, keyed by the ratio name with the
	// prefix stripped.
	funcs map[string]*starlark.Function
}

// NewEngine creates an empty engine. If logger is nil, a discard
// logger is used.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		logger: logger,
		funcs:  map[string]*starlark.Function{},
	}
}

// LoadDir loads every .star file in dir. A missing directory is not an
// error; it just means no custom ratios are defined.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read formula directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".star" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read formula file %s: %w", path, err)
		}
		if err := e.Load(path, string(src)); err != nil {
			return err
		}
	}
	return nil
}

// Load compiles one formula source and registers its ratio functions.
// Later loads override earlier definitions of the same ratio.
func (e *Engine) Load(filename, src string) error {
	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			e.logger.Debug("formula print", slog.String("file", filename), slog.String("msg", msg))
		},
	}

	opts := &syntax.FileOptions{}
	globals, err := starlark.ExecFileOptions(opts, thread, filename, src, nil)
	if err != nil {
		return fmt.Errorf("failed to load formula file %s: %w", filename, err)
	}

	for name, value := range globals {
		if !strings.HasPrefix(name, ratioPrefix) {
			continue
		}
		fn, ok := value.(*starlark.Function)
		if !ok {
			continue
		}
		ratio := strings.TrimPrefix(name, ratioPrefix)
		if ratio == "" {
			continue
		}
		e.funcs[ratio] = fn
		e.logger.Debug("registered ratio formula",
			slog.String("ratio", ratio), slog.String("file", filename))
	}
	return nil
}

// Names returns the sorted ratio names currently registered.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.funcs))
	for name := range e.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate calls every registered ratio function with the metric map.
// A formula that fails or returns a non-number is skipped with a
// warning so one bad formula cannot sink the refresh.
func (e *Engine) Evaluate(metrics map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(e.funcs))
	if len(e.funcs) == 0 {
		return out
	}

	dict := starlark.NewDict(len(metrics))
	for name, v := range metrics {
		// SetKey on a fresh dict with string keys cannot fail.
		_ = dict.SetKey(starlark.String(name), starlark.Float(v))
	}

	for _, name := range e.Names() {
		fn := e.funcs[name]
		thread := &starlark.Thread{Name: ratioPrefix + name}
		result, err := starlark.Call(thread, fn, starlark.Tuple{dict}, nil)
		if err != nil {
			e.logger.Warn("ratio formula failed",
				slog.String("ratio", name), slog.String("error", err.Error()))
			continue
		}
		f, ok := starlark.AsFloat(result)
		if !ok {
			e.logger.Warn("ratio formula returned a non-number",
				slog.String("ratio", name), slog.String("type", result.Type()))
			continue
		}
		out[name] = f
	}
	return out
}
