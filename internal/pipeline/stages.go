package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/eventstore"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/metrics"
)

// StageName identifies a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageLoad        StageName = "load"
	StageFilter      StageName = "filter"
	StageBuild       StageName = "build"
	StageMerge       StageName = "merge"
	StageGuides      StageName = "guides"
	StageIndex       StageName = "index"
	StageGroup       StageName = "group"
	StageURLs        StageName = "urls"
	StageSourceLinks StageName = "source_links"
	StageAutolink    StageName = "autolink"
	StageSearch      StageName = "search"
	StageWrite       StageName = "write"
)

// Stage is one step of a run.
type Stage func(ctx context.Context, bs *buildState) error

// StageDef pairs a stage name with its function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// stageOutcome is the classified result of running one stage.
type stageOutcome struct {
	result metrics.ResultLabel
	err    error
}

// runStages executes stages in order, recording timing and stopping at the
// first error. Cancellation is checked between stages.
func (s *Service) runStages(ctx context.Context, bs *buildState, stages []StageDef) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			s.completeStage(ctx, bs, st.Name, 0, stageOutcome{result: metrics.ResultCanceled, err: err})
			return errors.WrapError(err, errors.CategoryRuntime, "build canceled").
				WithContext(logfields.KeyStage, string(st.Name)).
				Build()
		}

		warningsBefore := bs.warnings
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.stageDurations[st.Name] = dur

		out := classifyStage(err, bs.warnings > warningsBefore)
		s.completeStage(ctx, bs, st.Name, dur, out)
		if out.err != nil {
			if _, ok := errors.AsClassified(out.err); ok {
				return out.err
			}
			return errors.WrapError(out.err, errors.CategoryRuntime, "stage failed").
				WithContext(logfields.KeyStage, string(st.Name)).
				Build()
		}
	}
	return nil
}

func classifyStage(err error, warned bool) stageOutcome {
	switch {
	case err == nil && warned:
		return stageOutcome{result: metrics.ResultWarning}
	case err == nil:
		return stageOutcome{result: metrics.ResultSuccess}
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return stageOutcome{result: metrics.ResultCanceled, err: err}
	default:
		return stageOutcome{result: metrics.ResultFatal, err: err}
	}
}

func (s *Service) completeStage(ctx context.Context, bs *buildState, name StageName, dur time.Duration, out stageOutcome) {
	ms := float64(dur.Microseconds()) / 1000
	s.recorder.ObserveStageDuration(string(name), dur)
	s.recorder.IncStageResult(string(name), out.result)

	event := eventstore.StageCompleted{Stage: string(name), Result: string(out.result), DurationMS: ms}
	if out.err != nil {
		event.Error = out.err.Error()
		bs.logger.Error("Stage failed", logfields.Stage(string(name)), logfields.DurationMS(ms), logfields.Error(out.err))
	} else {
		bs.logger.Debug("Stage complete", logfields.Stage(string(name)), logfields.DurationMS(ms))
	}
	if err := bs.runLog.StageCompleted(context.WithoutCancel(ctx), event); err != nil {
		bs.logger.Warn("Failed to record stage event", logfields.Stage(string(name)), logfields.Error(err))
	}
}
