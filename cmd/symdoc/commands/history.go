package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/eventstore"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Since  time.Duration `help:"Only show runs started this long ago or later" default:"168h"`
	Limit  int           `help:"Maximum number of runs to show" default:"20"`
	Stages bool          `help:"Show per-stage results"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	path := cfg.HistoryPath()
	if path == "" {
		return errors.ConfigError("output.history_db is not configured").Build()
	}
	if _, err := os.Stat(path); err != nil {
		return errors.NewError(errors.CategoryNotFound, "no run history recorded yet").
			WithContext(logfields.KeyPath, path).
			Build()
	}
	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := eventstore.History(context.Background(), store, time.Now().Add(-h.Since), h.Limit)
	if err != nil {
		return err
	}
	PrintHistory(g, runs, h.Stages)
	return nil
}

// PrintHistory writes one line per run, newest first.
func PrintHistory(g *Global, runs []*eventstore.RunSummary, stages bool) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(g.Out, "no runs recorded")
		return
	}
	for _, run := range runs {
		outcome := run.Outcome
		if outcome == "" {
			outcome = "running"
		}
		_, _ = fmt.Fprintf(g.Out, "%s  %s  %-8s %3d%% documented  %d declarations  %s  [%s]\n",
			run.StartedAt.Local().Format(time.DateTime),
			run.RunID[:min(8, len(run.RunID))],
			outcome,
			run.Coverage,
			run.Declarations,
			run.Duration.Round(time.Millisecond),
			strings.Join(run.Modules, ","))
		if run.Error != "" {
			_, _ = fmt.Fprintf(g.Out, "    error: %s\n", run.Error)
		}
		if !stages {
			continue
		}
		for _, s := range run.Stages {
			_, _ = fmt.Fprintf(g.Out, "    %-13s %-8s %.1fms\n", s.Stage, s.Result, s.DurationMS)
		}
	}
}
