// Package pipeline runs a documentation build: it loads symbol graphs and
// SourceKitten output, builds and merges declarations, groups, indexes and
// links them, and writes the results.
package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/symdoc/internal/config"
	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/docindex"
	"git.home.luguber.info/inful/symdoc/internal/eventstore"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/metrics"
	"git.home.luguber.info/inful/symdoc/internal/search"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
	"git.home.luguber.info/inful/symdoc/internal/stats"
	"git.home.luguber.info/inful/symdoc/internal/symbolgraph"
)

// Service runs builds for one configuration.
type Service struct {
	cfg       *config.Config
	logger    *slog.Logger
	recorder  metrics.Recorder
	events    eventstore.Store
	demangler symbolgraph.Demangler
}

// NewService creates a Service with a NoopRecorder and no event store. The
// demangler follows the configuration.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	var demangler symbolgraph.Demangler = symbolgraph.NoopDemangler{}
	if cfg != nil && cfg.Demangler.Command != "" {
		demangler = symbolgraph.ExecDemangler{Command: cfg.Demangler.Command, Args: cfg.Demangler.Args}
	}
	return &Service{
		cfg:       cfg,
		logger:    logger,
		recorder:  metrics.NoopRecorder{},
		demangler: demangler,
	}
}

// WithRecorder sets the metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithEventStore records every run in store.
func (s *Service) WithEventStore(store eventstore.Store) *Service {
	s.events = store
	return s
}

// WithDemangler replaces the configured demangler.
func (s *Service) WithDemangler(d symbolgraph.Demangler) *Service {
	if d != nil {
		s.demangler = d
	}
	return s
}

// Result is everything a run produced.
type Result struct {
	RunID   string
	Outcome metrics.BuildOutcomeLabel
	// Files are the SourceKit files of every module, symbol graphs converted.
	Files []sourcekit.File
	// Declarations are the top-level navigation groups.
	Declarations []*declaration.Declaration
	Index        *docindex.Index
	Search       search.Index
	Stats        *stats.Stats
	Autolinks    int
	Warnings     int
	// Artifacts maps output kinds to the files written.
	Artifacts      map[string]string
	StageDurations map[StageName]time.Duration
	Duration       time.Duration
}

// Run executes every stage and writes the configured outputs.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	return s.run(ctx, s.stages(true))
}

// Analyze executes every stage except writing outputs.
func (s *Service) Analyze(ctx context.Context) (*Result, error) {
	return s.run(ctx, s.stages(false))
}

func (s *Service) stages(write bool) []StageDef {
	stages := []StageDef{
		{StageLoad, stageLoad},
		{StageFilter, stageFilter},
		{StageBuild, stageBuild},
		{StageMerge, stageMerge},
		{StageGuides, stageGuides},
		{StageIndex, stageIndex},
		{StageGroup, stageGroup},
		{StageURLs, stageURLs},
		{StageSourceLinks, stageSourceLinks},
		{StageAutolink, stageAutolink},
		{StageSearch, stageSearch},
	}
	if write {
		stages = append(stages, StageDef{StageWrite, stageWrite})
	}
	return stages
}

func (s *Service) run(ctx context.Context, stages []StageDef) (*Result, error) {
	start := time.Now()
	if s.cfg == nil {
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		return nil, errors.ConfigError("config required").Build()
	}

	runID := uuid.NewString()
	logger := s.logger.With(logfields.RunID(runID))
	bs := newBuildState(s, logger, eventstore.NewRunLog(s.events, runID))

	if err := bs.runLog.Started(ctx, eventstore.RunStarted{
		Modules: s.cfg.ModuleNames(),
		Inputs:  len(s.cfg.InputPaths()),
	}); err != nil {
		logger.Warn("Failed to record run start", logfields.Error(err))
	}
	logger.Info("Starting documentation build", "modules", s.cfg.ModuleNames())

	err := s.runStages(ctx, bs, stages)

	result := bs.result(runID)
	result.Duration = time.Since(start)
	result.Outcome = outcomeFor(err, bs.warnings)

	s.recorder.IncBuildOutcome(result.Outcome)
	s.recorder.ObserveBuildDuration(result.Duration)
	if err == nil {
		s.recorder.SetCoverage(bs.stats.Coverage())
		s.recorder.SetUndocumented(bs.stats.Undocumented())
		bs.stats.Report(logger, s.cfg.ACL(), s.cfg.ObjC())
	}

	completed := eventstore.RunCompleted{
		Outcome:      string(result.Outcome),
		Declarations: bs.declarationCount,
		Coverage:     bs.stats.Coverage(),
		Undocumented: bs.stats.Undocumented(),
		DurationMS:   float64(result.Duration.Microseconds()) / 1000,
		Artifacts:    result.Artifacts,
	}
	if err != nil {
		completed.Error = err.Error()
	}
	if rerr := bs.runLog.Completed(context.WithoutCancel(ctx), completed); rerr != nil {
		logger.Warn("Failed to record run completion", logfields.Error(rerr))
	}

	if err != nil {
		return result, err
	}
	logger.Info("Documentation build complete",
		logfields.DurationMS(completed.DurationMS),
		logfields.Count(bs.declarationCount),
		"outcome", string(result.Outcome))
	return result, nil
}

func outcomeFor(err error, warnings int) metrics.BuildOutcomeLabel {
	switch {
	case err == nil && warnings > 0:
		return metrics.BuildOutcomeWarning
	case err == nil:
		return metrics.BuildOutcomeSuccess
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}
