// Package batch generates every job of a catalog on a pool of workers.
//
// Each job gets its own kernel session from the generator, so jobs never
// share geometry state. Results are reported in catalog order regardless
// of completion order.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chazu/spool/pkg/catalog"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/generate"
	"github.com/chazu/spool/pkg/observability"
	"go.uber.org/zap"
)

// ErrInvalidCatalog is returned when structural validation fails; no job
// is run.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Generator builds one fitting. *generate.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, kind fitting.Kind, req generate.Request) generate.Result
}

// Item pairs a job with its result.
type Item struct {
	Job    *catalog.Job
	Result generate.Result
}

// Report is the outcome of one run.
type Report struct {
	RunID    string
	Catalog  string
	Items    []Item
	Duration time.Duration
}

// Succeeded counts successful jobs.
func (r *Report) Succeeded() int {
	n := 0
	for _, it := range r.Items {
		if it.Result.Success {
			n++
		}
	}
	return n
}

// Failed counts failed jobs.
func (r *Report) Failed() int { return len(r.Items) - r.Succeeded() }

// Warnings counts warning diagnostics over all jobs.
func (r *Report) Warnings() int {
	n := 0
	for _, it := range r.Items {
		n += len(it.Result.Warnings())
	}
	return n
}

// Runner runs catalogs.
type Runner struct {
	gen         Generator
	workers     int
	runID       string
	log         *zap.Logger
	metrics     *observability.Metrics
	metricsFile string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithRunID labels the report. It should match the run ID the generator
// records results under.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// WithMetricsFile dumps m in the Prometheus text format to path after
// every run.
func WithMetricsFile(m *observability.Metrics, path string) Option {
	return func(r *Runner) {
		r.metrics = m
		r.metricsFile = path
	}
}

// New creates a runner with the given number of workers (at least one).
func New(gen Generator, workers int, opts ...Option) *Runner {
	if workers < 1 {
		workers = 1
	}
	r := &Runner{gen: gen, workers: workers, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run generates every job of c. The catalog must pass structural
// validation. Per-job failures are reported in the items and do not stop
// the run; cancelling ctx marks every job not yet started as failed.
func (r *Runner) Run(ctx context.Context, c *catalog.Catalog) (*Report, error) {
	start := time.Now()
	var problems []error
	for _, e := range catalog.Validate(c) {
		if e.Severity == catalog.SeverityError {
			problems = append(problems, e)
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(problems...))
	}

	if dir := c.Defaults.OutputDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	log := r.log.With(zap.String("catalog", c.Name), zap.String("run_id", r.runID))
	log.Info("batch started", zap.Int("jobs", c.Len()), zap.Int("workers", r.workers))

	rep := &Report{RunID: r.runID, Catalog: c.Name, Items: make([]Item, c.Len())}
	for i, j := range c.Jobs {
		rep.Items[i].Job = j
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(r.workers, c.Len()); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if err := ctx.Err(); err != nil {
					rep.Items[i].Result = notStarted(err)
					continue
				}
				rep.Items[i].Result = r.runJob(ctx, c, c.Jobs[i])
			}
		}()
	}

	next := 0
feed:
	for ; next < c.Len() && ctx.Err() == nil; next++ {
		select {
		case indices <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(indices)
	wg.Wait()

	for i := next; i < c.Len(); i++ {
		rep.Items[i].Result = notStarted(ctx.Err())
	}

	rep.Duration = time.Since(start)
	log.Info("batch complete",
		zap.Int("succeeded", rep.Succeeded()),
		zap.Int("failed", rep.Failed()),
		zap.Int("warnings", rep.Warnings()),
		zap.Duration("duration", rep.Duration))

	if r.metricsFile != "" && r.metrics != nil {
		if err := r.metrics.WriteTextfile(r.metricsFile); err != nil {
			log.Warn("metrics textfile write failed", zap.String("path", r.metricsFile), zap.Error(err))
		}
	}
	return rep, ctx.Err()
}

// runJob generates one job, placing its file under the catalog output
// directory when the job names no output of its own.
func (r *Runner) runJob(ctx context.Context, c *catalog.Catalog, j *catalog.Job) generate.Result {
	req := j.Request
	if req.Output == "" && c.Defaults.OutputDir != "" {
		req.Output = filepath.Join(c.Defaults.OutputDir, generate.FileStem(j.Name)+".3mf")
	}
	return r.gen.Generate(ctx, j.Kind, req)
}

func notStarted(err error) generate.Result {
	return generate.Result{Message: "not started: " + err.Error(), Err: err}
}
