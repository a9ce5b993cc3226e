package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sdejongh/filerecon/pkg/logging"
	"github.com/sdejongh/filerecon/pkg/models"
)

// PairComparer compares one candidate pair
type PairComparer interface {
	ComparePair(ctx context.Context, pair models.CandidatePair) (models.ComparisonResult, []models.Warning, error)
}

// Outcome is the result of one dispatched or aborted pair
type Outcome struct {
	// Index is the position of the pair in the candidate list
	Index    int
	Pair     models.CandidatePair
	Result   models.ComparisonResult
	Warnings []models.Warning
	Err      error

	// Aborted marks a pair that was never dispatched
	Aborted bool
}

// PipelineConfig holds configuration for the pipeline
type PipelineConfig struct {
	MaxWorkers int
	BatchSize  int

	// TimeBudget stops dispatching new batches once elapsed (0 = unlimited)
	TimeBudget time.Duration
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxWorkers: runtime.NumCPU(),
		BatchSize:  64,
	}
}

// Pipeline runs pair comparisons on a fixed pool of workers
type Pipeline struct {
	config PipelineConfig
	logger logging.Logger

	dispatched atomic.Int32
	completed  atomic.Int32
	aborted    atomic.Bool
}

// NewPipeline creates a new comparison pipeline
func NewPipeline(config PipelineConfig, logger logging.Logger) *Pipeline {
	if config.MaxWorkers < 1 {
		config.MaxWorkers = 1
	}
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Pipeline{config: config, logger: logger}
}

type task struct {
	index int
	pair  models.CandidatePair
}

// Run dispatches pairs in batches and streams one Outcome per pair on the
// returned channel, which is closed when every pair is accounted for.
// Cancellation of ctx and the time budget are checked between batches only;
// pairs already dispatched run to completion.
func (p *Pipeline) Run(ctx context.Context, pairs []models.CandidatePair, comparer PairComparer) <-chan Outcome {
	results := make(chan Outcome, p.config.MaxWorkers)
	tasks := make(chan task)

	// In-flight comparisons must not observe cancellation
	workCtx := context.WithoutCancel(ctx)

	var deadline time.Time
	if p.config.TimeBudget > 0 {
		deadline = time.Now().Add(p.config.TimeBudget)
	}

	var workersWg sync.WaitGroup
	for i := 0; i < p.config.MaxWorkers; i++ {
		workersWg.Add(1)
		go p.runWorker(workCtx, comparer, tasks, results, &workersWg)
	}

	go func() {
		next := p.dispatch(ctx, pairs, deadline, tasks)
		close(tasks)
		workersWg.Wait()

		for i := next; i < len(pairs); i++ {
			results <- Outcome{Index: i, Pair: pairs[i], Aborted: true}
		}
		close(results)
	}()

	return results
}

// dispatch feeds tasks batch by batch and returns the index of the first
// pair that was not dispatched
func (p *Pipeline) dispatch(ctx context.Context, pairs []models.CandidatePair, deadline time.Time, tasks chan<- task) int {
	for start := 0; start < len(pairs); start += p.config.BatchSize {
		if reason := p.stopReason(ctx, deadline); reason != "" {
			p.aborted.Store(true)
			p.logger.Warn(ctx, "Stopping dispatch", logging.Fields{
				"reason":     reason,
				"dispatched": start,
				"remaining":  len(pairs) - start,
			})
			return start
		}

		end := start + p.config.BatchSize
		if end > len(pairs) {
			end = len(pairs)
		}
		for i := start; i < end; i++ {
			tasks <- task{index: i, pair: pairs[i]}
			p.dispatched.Add(1)
		}
	}
	return len(pairs)
}

func (p *Pipeline) stopReason(ctx context.Context, deadline time.Time) string {
	if err := ctx.Err(); err != nil {
		return err.Error()
	}
	if !deadline.IsZero() && !time.Now().Before(deadline) {
		return "time budget exhausted"
	}
	return ""
}

// runWorker is the worker goroutine that compares pairs
func (p *Pipeline) runWorker(ctx context.Context, comparer PairComparer, tasks <-chan task, results chan<- Outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	for t := range tasks {
		result, warnings, err := comparer.ComparePair(ctx, t.pair)
		p.completed.Add(1)
		results <- Outcome{
			Index:    t.index,
			Pair:     t.pair,
			Result:   result,
			Warnings: warnings,
			Err:      err,
		}
	}
}

// Dispatched returns the number of pairs handed to workers
func (p *Pipeline) Dispatched() int {
	return int(p.dispatched.Load())
}

// Completed returns the number of pairs whose comparison finished
func (p *Pipeline) Completed() int {
	return int(p.completed.Load())
}

// Aborted reports whether dispatch stopped before the last batch
func (p *Pipeline) Aborted() bool {
	return p.aborted.Load()
}
