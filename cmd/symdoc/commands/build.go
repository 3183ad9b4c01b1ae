package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/symdoc/internal/config"
	"git.home.luguber.info/inful/symdoc/internal/eventstore"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/metrics"
	"git.home.luguber.info/inful/symdoc/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Override output.directory"`
	Clean       bool   `help:"Empty the output directory before writing"`
	MetricsFile string `name:"metrics-file" help:"Override output.metrics_file"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	b.apply(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r, err := newRunner(g, cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	result, err := r.build(ctx)
	if err != nil {
		return err
	}
	printResult(g, result)
	return nil
}

func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.Clean {
		cfg.Output.Clean = true
	}
	if b.MetricsFile != "" {
		cfg.Output.MetricsFile = b.MetricsFile
	}
}

// runner builds repeatedly with one metrics registry and run history.
type runner struct {
	cfg      *config.Config
	global   *Global
	registry *prometheus.Registry
	recorder *metrics.PrometheusRecorder
	history  *eventstore.SQLiteStore
}

func newRunner(g *Global, cfg *config.Config) (*runner, error) {
	r := &runner{cfg: cfg, global: g, registry: prometheus.NewRegistry()}
	r.recorder = metrics.NewPrometheusRecorder(r.registry)
	if path := cfg.HistoryPath(); path != "" {
		store, err := openHistory(path)
		if err != nil {
			return nil, err
		}
		r.history = store
	}
	return r, nil
}

func openHistory(path string) (*eventstore.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create history directory").
			WithContext(logfields.KeyPath, path).
			Build()
	}
	return eventstore.NewSQLiteStore(path)
}

func (r *runner) build(ctx context.Context) (*pipeline.Result, error) {
	svc := pipeline.NewService(r.cfg, r.global.Logger).WithRecorder(r.recorder)
	if r.history != nil {
		svc.WithEventStore(r.history)
	}
	result, err := svc.Run(ctx)
	if path := r.cfg.OutputPath(r.cfg.Output.MetricsFile); path != "" {
		if werr := metrics.WriteTextfile(path, r.registry); werr != nil {
			r.global.Logger.Warn("Failed to write metrics", logfields.Path(path), logfields.Error(werr))
		}
	}
	return result, err
}

func (r *runner) Close() {
	if r.history == nil {
		return
	}
	if err := r.history.Close(); err != nil {
		r.global.Logger.Warn("Failed to close run history", logfields.Error(err))
	}
}

func printResult(g *Global, result *pipeline.Result) {
	_, _ = fmt.Fprintf(g.Out, "%s: %d%% documented, %d undocumented, %d autolinks in %s\n",
		result.Outcome,
		result.Stats.Coverage(),
		result.Stats.Undocumented(),
		result.Autolinks,
		result.Duration.Round(time.Millisecond))
	names := make([]string, 0, len(result.Artifacts))
	for name := range result.Artifacts {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(g.Out, "  %-12s %s\n", name, result.Artifacts[name])
	}
}
