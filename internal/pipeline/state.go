package pipeline

import (
	"log/slog"
	"maps"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/config"
	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/docindex"
	"git.home.luguber.info/inful/symdoc/internal/eventstore"
	"git.home.luguber.info/inful/symdoc/internal/search"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
	"git.home.luguber.info/inful/symdoc/internal/stats"
	"git.home.luguber.info/inful/symdoc/internal/symbolgraph"
)

// moduleInput is the loaded input of one documented module.
type moduleInput struct {
	name  string
	files []sourcekit.File
}

// buildState carries data between the stages of one run.
type buildState struct {
	cfg       *config.Config
	logger    *slog.Logger
	runLog    *eventstore.RunLog
	demangler symbolgraph.Demangler
	recorder  recorder

	modules []moduleInput
	builder *declaration.Builder
	stats   *stats.Stats

	decls  []*declaration.Declaration
	groups []*declaration.Declaration
	index  *docindex.Index
	search search.Index

	autolinks        int
	warnings         int
	declarationCount int
	artifacts        map[string]string
	stageDurations   map[StageName]time.Duration
}

// recorder is the part of metrics.Recorder the stages report to.
type recorder interface {
	SetDeclarations(module string, n int)
	AddAutolinks(n int)
}

func newBuildState(s *Service, logger *slog.Logger, runLog *eventstore.RunLog) *buildState {
	return &buildState{
		cfg:            s.cfg,
		logger:         logger,
		runLog:         runLog,
		demangler:      symbolgraph.NewCachingDemangler(s.demangler),
		recorder:       s.recorder,
		stats:          stats.New(),
		artifacts:      make(map[string]string),
		stageDurations: make(map[StageName]time.Duration),
	}
}

// warn logs a problem that does not stop the run and marks the run as
// finished with warnings.
func (bs *buildState) warn(msg string, args ...any) {
	bs.warnings++
	bs.logger.Warn(msg, args...)
}

func (bs *buildState) files() []sourcekit.File {
	var out []sourcekit.File
	for _, m := range bs.modules {
		out = append(out, m.files...)
	}
	return out
}

func (bs *buildState) result(runID string) *Result {
	return &Result{
		RunID:          runID,
		Files:          bs.files(),
		Declarations:   bs.groups,
		Index:          bs.index,
		Search:         bs.search,
		Stats:          bs.stats,
		Autolinks:      bs.autolinks,
		Warnings:       bs.warnings,
		Artifacts:      maps.Clone(bs.artifacts),
		StageDurations: maps.Clone(bs.stageDurations),
	}
}
