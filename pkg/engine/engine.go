// Package engine runs a reconciliation: index both roots, fingerprint,
// generate candidate pairs and compare them on a worker pool.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/filerecon/pkg/fingerprint"
	"github.com/sdejongh/filerecon/pkg/index"
	"github.com/sdejongh/filerecon/pkg/logging"
	"github.com/sdejongh/filerecon/pkg/match"
	"github.com/sdejongh/filerecon/pkg/models"
	"github.com/sdejongh/filerecon/pkg/output"
	"github.com/sdejongh/filerecon/pkg/ratelimit"
	"github.com/sdejongh/filerecon/pkg/storage"
)

// Unmatched reasons
const (
	ReasonNoCandidate       = "no candidate"
	ReasonFingerprintFailed = "unreadable"
)

// Config describes one run
type Config struct {
	Left  string
	Right string

	Storage  storage.ObjectStoreConfig
	Index    index.Options
	Match    match.Options
	Selector SelectorConfig
	Pipeline PipelineConfig

	// BufferSize is the read buffer used for fingerprinting
	BufferSize int

	// Bandwidth caps the combined read rate of both roots in bytes per second (0 = unlimited)
	Bandwidth int64
}

// Engine orchestrates a reconciliation run
type Engine struct {
	config    Config
	sink      output.Sink
	formatter output.Formatter
	logger    logging.Logger

	// open resolves a root to a backend; replaced in tests
	open func(uri string, cfg storage.ObjectStoreConfig) (storage.Backend, error)
}

// NewEngine creates a new engine. A nil sink discards records and a nil
// logger disables logging; the formatter is optional.
func NewEngine(config Config, sink output.Sink, formatter output.Formatter, logger logging.Logger) *Engine {
	if sink == nil {
		sink = output.Discard{}
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Engine{
		config:    config,
		sink:      sink,
		formatter: formatter,
		logger:    logger,
		open:      storage.Open,
	}
}

// run carries the mutable state of one Run call; only the consuming
// goroutine touches it
type run struct {
	report   *models.RunReport
	scoreSum float64
	sinkErr  error
}

// Run executes the reconciliation. It returns an error only for failures
// that prevent the run as a whole: invalid configuration or an unusable root.
func (e *Engine) Run(ctx context.Context) (*models.RunReport, error) {
	r := &run{report: &models.RunReport{
		RunID:     uuid.New().String(),
		LeftRoot:  e.config.Left,
		RightRoot: e.config.Right,
		Mode:      string(e.config.Selector.Mode),
		Pairing:   string(e.config.Match.Strategy),
		StartTime: time.Now(),
		Status:    models.StatusSuccess,
	}}
	logger := e.logger.WithFields(logging.Fields{"run_id": r.report.RunID})

	logger.Info(ctx, "Starting reconciliation", logging.Fields{
		"left":        e.config.Left,
		"right":       e.config.Right,
		"mode":        r.report.Mode,
		"pairing":     r.report.Pairing,
		"max_workers": e.config.Pipeline.MaxWorkers,
	})
	e.notifyStart(r.report)

	report, err := e.execute(ctx, r, logger)

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	if err != nil {
		report.Status = models.StatusFailed
		logger.Error(ctx, "Reconciliation failed", err, nil)
		if e.formatter != nil {
			e.formatter.Error(err)
		}
	}
	if e.formatter != nil {
		e.formatter.Complete(report)
	}

	logger.Info(ctx, "Reconciliation completed", logging.Fields{
		"duration":        report.Duration.String(),
		"status":          report.Status,
		"pairs_compared":  report.Stats.PairsCompared,
		"pairs_identical": report.Stats.PairsIdentical,
		"pairs_failed":    report.Stats.PairsFailed,
		"pairs_aborted":   report.Stats.PairsAborted,
		"warnings":        report.Stats.Warnings,
	})

	return report, err
}

func (e *Engine) execute(ctx context.Context, r *run, logger logging.Logger) (*models.RunReport, error) {
	report := r.report

	fp := fingerprint.NewEngine(fingerprint.Options{BufferSize: e.config.BufferSize})
	selector, err := NewModeSelector(e.config.Selector, fp)
	if err != nil {
		return report, err
	}

	// Phase 1: open and index both roots
	e.phase("index")
	left, err := e.open(e.config.Left, e.config.Storage)
	if err != nil {
		return report, &models.IoError{Path: e.config.Left, Op: "open", Err: err}
	}
	defer left.Close()
	right, err := e.open(e.config.Right, e.config.Storage)
	if err != nil {
		return report, &models.IoError{Path: e.config.Right, Op: "open", Err: err}
	}
	defer right.Close()

	limiter := ratelimit.NewLimiter(e.config.Bandwidth)
	left = storage.Throttle(left, limiter)
	right = storage.Throttle(right, limiter)

	var leftIdx, rightIdx *index.Index
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leftIdx, err = index.Build(gctx, left, e.config.Index)
		return err
	})
	g.Go(func() error {
		var err error
		rightIdx, err = index.Build(gctx, right, e.config.Index)
		return err
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return e.cancelled(ctx, r, logger)
		}
		return report, err
	}

	report.Stats.LeftFiles = leftIdx.Len()
	report.Stats.RightFiles = rightIdx.Len()
	for _, w := range append(leftIdx.Warnings, rightIdx.Warnings...) {
		e.warn(r, w)
	}
	logger.Info(ctx, "Index complete", logging.Fields{
		"left_files":  report.Stats.LeftFiles,
		"right_files": report.Stats.RightFiles,
	})

	// Phase 2: fingerprint every file before fan-out
	e.phase("fingerprint")
	all := make([]models.FileEntry, 0, leftIdx.Len()+rightIdx.Len())
	all = append(all, leftIdx.Entries...)
	all = append(all, rightIdx.Entries...)
	failures, err := fp.Prefetch(ctx, all, e.config.Pipeline.MaxWorkers)
	if err != nil {
		return e.cancelled(ctx, r, logger)
	}

	failed := make(map[string]bool, len(failures))
	for _, f := range failures {
		failed[f.Entry.Path] = true
		e.warn(r, models.WarningFromError(f.Entry.Path, f.Err))
	}
	leftEntries := e.readable(r, leftIdx.Entries, failed, models.SideLeft)
	rightEntries := e.readable(r, rightIdx.Entries, failed, models.SideRight)

	report.Stats.Fingerprinted = int(fp.Computed())
	report.Stats.BytesHashed = fp.BytesHashed()
	logger.Info(ctx, "Fingerprinting complete", logging.Fields{
		"files":        report.Stats.Fingerprinted,
		"failed":       len(failures),
		"bytes_hashed": report.Stats.BytesHashed,
	})

	// Phase 3: candidate pairs
	e.phase("match")
	var matched *match.Result
	if storage.IsSingleFile(left) && storage.IsSingleFile(right) {
		matched = &match.Result{}
		if len(leftEntries) == 1 && len(rightEntries) == 1 {
			matched = match.Single(leftEntries[0], rightEntries[0])
		}
	} else {
		matched = match.Match(leftEntries, rightEntries, fp.Snapshot(), e.config.Match)
	}

	for _, w := range matched.Warnings {
		e.warn(r, w)
	}
	for _, u := range matched.UnmatchedLeft {
		e.unmatched(r, models.Unmatched{Side: models.SideLeft, Path: u.Path, Reason: ReasonNoCandidate})
	}
	for _, u := range matched.UnmatchedRight {
		e.unmatched(r, models.Unmatched{Side: models.SideRight, Path: u.Path, Reason: ReasonNoCandidate})
	}
	report.Stats.CandidatePairs = len(matched.Pairs)
	logger.Info(ctx, "Candidate generation complete", logging.Fields{
		"pairs":           len(matched.Pairs),
		"unmatched_left":  len(matched.UnmatchedLeft),
		"unmatched_right": len(matched.UnmatchedRight),
	})

	// Phase 4: compare
	e.phase("compare")
	if e.formatter != nil {
		e.formatter.Progress(output.ProgressUpdate{Type: output.UpdatePairsTotal, Total: len(matched.Pairs)})
	}

	pipeline := NewPipeline(e.config.Pipeline, logger)
	done := 0
	for outcome := range pipeline.Run(ctx, matched.Pairs, selector) {
		done++
		e.consume(r, outcome, done, len(matched.Pairs))
	}

	if report.Stats.PairsCompared > 0 {
		report.Stats.AverageScore = r.scoreSum / float64(report.Stats.PairsCompared)
	}

	if r.sinkErr != nil {
		return report, fmt.Errorf("failed to write results: %w", r.sinkErr)
	}

	switch {
	case pipeline.Aborted():
		report.Status = models.StatusCancelled
	case report.Stats.PairsCompared == 0 && report.Stats.PairsFailed > 0:
		report.Status = models.StatusFailed
	case report.Stats.Warnings > 0 || report.Stats.PairsFailed > 0:
		report.Status = models.StatusPartial
	}
	return report, nil
}

// consume records one pipeline outcome
func (e *Engine) consume(r *run, outcome Outcome, done, total int) {
	stats := &r.report.Stats
	pair := outcome.Pair

	switch {
	case outcome.Aborted:
		stats.PairsAborted++
		e.warn(r, models.Warning{
			Kind:    models.WarnAborted,
			Path:    pair.Left.Path,
			Path2:   pair.Right.Path,
			Message: "run stopped before this pair was compared",
		})

	case outcome.Err != nil:
		stats.PairsFailed++
		w := models.WarningFromError(pair.Left.Path, outcome.Err)
		w.Path2 = pair.Right.Path
		e.warn(r, w)
		if e.formatter != nil {
			e.formatter.Progress(output.ProgressUpdate{Type: output.UpdatePairFailed, Done: done, Total: total})
		}

	default:
		stats.PairsCompared++
		if outcome.Result.IsIdentical() {
			stats.PairsIdentical++
		}
		r.scoreSum += outcome.Result.Score()
		if err := e.sink.WriteResult(outcome.Result); err != nil && r.sinkErr == nil {
			r.sinkErr = err
		}
		for _, w := range outcome.Warnings {
			e.warn(r, w)
		}
		if e.formatter != nil {
			e.formatter.Progress(output.ProgressUpdate{Type: output.UpdatePairComplete, Done: done, Total: total, Result: outcome.Result})
		}
	}
}

// readable drops entries whose fingerprint failed and reports them as unmatched
func (e *Engine) readable(r *run, entries []models.FileEntry, failed map[string]bool, side models.Side) []models.FileEntry {
	if len(failed) == 0 {
		return entries
	}
	out := make([]models.FileEntry, 0, len(entries))
	for _, entry := range entries {
		if failed[entry.Path] {
			e.unmatched(r, models.Unmatched{Side: side, Path: entry.Path, Reason: ReasonFingerprintFailed})
			continue
		}
		out = append(out, entry)
	}
	return out
}

func (e *Engine) warn(r *run, w models.Warning) {
	r.report.Stats.Warnings++
	if err := e.sink.WriteWarning(w); err != nil && r.sinkErr == nil {
		r.sinkErr = err
	}
	if e.formatter != nil {
		e.formatter.Progress(output.ProgressUpdate{Type: output.UpdateWarning, Warning: &w})
	}
}

func (e *Engine) unmatched(r *run, u models.Unmatched) {
	if u.Side == models.SideLeft {
		r.report.Stats.UnmatchedLeft++
	} else {
		r.report.Stats.UnmatchedRight++
	}
	if err := e.sink.WriteUnmatched(u); err != nil && r.sinkErr == nil {
		r.sinkErr = err
	}
}

func (e *Engine) phase(name string) {
	if e.formatter != nil {
		e.formatter.Progress(output.ProgressUpdate{Type: output.UpdatePhase, Phase: name})
	}
}

func (e *Engine) notifyStart(report *models.RunReport) {
	if e.formatter != nil {
		e.formatter.Start(report)
	}
}

// cancelled ends a run interrupted before the compare phase
func (e *Engine) cancelled(ctx context.Context, r *run, logger logging.Logger) (*models.RunReport, error) {
	r.report.Status = models.StatusCancelled
	reason := "cancelled"
	if cause := context.Cause(ctx); cause != nil {
		reason = cause.Error()
	}
	logger.Warn(ctx, "Run cancelled", logging.Fields{"reason": reason})
	return r.report, nil
}
