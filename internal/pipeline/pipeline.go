// Package pipeline turns a deck into a severity-ranked inconsistency
// report: structure the extracted slides, submit them for analysis, and
// salvage findings from the reply.
package pipeline

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/deckcheck/internal/extract"
	"github.com/sells-group/deckcheck/internal/model"
	"github.com/sells-group/deckcheck/internal/store"
)

// Pipeline runs the full deck analysis end to end.
type Pipeline struct {
	extractor *extract.Extractor
	analyzer  *Analyzer
	store     store.Store // nil disables run history
	dumpPath  string      // non-empty writes the raw model reply here
}

// New assembles a Pipeline. st may be nil when run history is disabled.
func New(extractor *extract.Extractor, analyzer *Analyzer, st store.Store, dumpPath string) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		analyzer:  analyzer,
		store:     st,
		dumpPath:  dumpPath,
	}
}

// Run analyzes the deck at deckPath and returns its report. The run is
// recorded in the store when one is configured; store write failures are
// logged, never fatal.
func (p *Pipeline) Run(ctx context.Context, deckPath string) (*model.Report, error) {
	runID := p.recordStart(ctx, deckPath)

	report, err := p.run(ctx, deckPath)
	if err != nil {
		p.recordFailure(ctx, runID, err)
		return nil, err
	}

	p.recordSuccess(ctx, runID, report)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, deckPath string) (*model.Report, error) {
	records, err := p.extractor.Extract(ctx, deckPath)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		zap.L().Info("deck has no slides, skipping analysis", zap.String("path", deckPath))
		return Aggregate(nil, 0, time.Now()), nil
	}

	raw, err := p.analyzer.Analyze(ctx, BuildContext(records))
	if err != nil {
		return nil, err
	}
	p.dumpRaw(raw)

	findings, err := ParseFindings(raw, len(records))
	if err != nil {
		return nil, err
	}

	report := Aggregate(findings, len(records), time.Now())
	zap.L().Info("analysis complete",
		zap.String("path", deckPath),
		zap.Int("slides", report.Statistics.TotalSlides),
		zap.Int("issues", report.Statistics.IssuesFound),
	)
	return report, nil
}

// dumpRaw writes the unparsed model reply for offline debugging.
func (p *Pipeline) dumpRaw(raw string) {
	if p.dumpPath == "" {
		return
	}
	if err := os.WriteFile(p.dumpPath, []byte(raw), 0o644); err != nil {
		zap.L().Warn("failed to dump raw response",
			zap.String("path", p.dumpPath),
			zap.Error(err),
		)
	}
}

func (p *Pipeline) recordStart(ctx context.Context, deckPath string) string {
	if p.store == nil {
		return ""
	}
	run, err := p.store.CreateRun(ctx, deckPath)
	if err != nil {
		zap.L().Warn("failed to record run", zap.Error(err))
		return ""
	}
	if err := p.store.MarkRunRunning(ctx, run.ID); err != nil {
		zap.L().Warn("failed to mark run running", zap.String("run_id", run.ID), zap.Error(err))
	}
	return run.ID
}

func (p *Pipeline) recordSuccess(ctx context.Context, runID string, report *model.Report) {
	if p.store == nil || runID == "" {
		return
	}
	if err := p.store.CompleteRun(ctx, runID, report); err != nil {
		zap.L().Warn("failed to record run completion", zap.String("run_id", runID), zap.Error(err))
	}
}

func (p *Pipeline) recordFailure(ctx context.Context, runID string, cause error) {
	if p.store == nil || runID == "" {
		return
	}
	if err := p.store.FailRun(ctx, runID, cause.Error()); err != nil {
		zap.L().Warn("failed to record run failure", zap.String("run_id", runID), zap.Error(err))
	}
}
