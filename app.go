package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/spool/pkg/batch"
	"github.com/chazu/spool/pkg/catalog"
	"github.com/chazu/spool/pkg/config"
	"github.com/chazu/spool/pkg/engine"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/generate"
	"github.com/chazu/spool/pkg/kernel"
	"github.com/chazu/spool/pkg/observability"
	"github.com/chazu/spool/pkg/store"
	"github.com/chazu/spool/pkg/tessellate"
	"go.uber.org/zap"
)

// colorPalette assigns distinct colors to previewed fittings.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App wires configuration, logging, metrics, the manifest and the
// generators together. The CLI commands are thin shells around it.
type App struct {
	cfg      *config.Config
	log      *zap.Logger
	engine   *engine.Engine
	factory  kernel.Factory
	metrics  *observability.Metrics
	store    *store.SQLiteStore
	shutdown []func(context.Context) error
}

// MeshData is the JSON preview format for external viewers.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable evaluation or validation finding.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Job     string `json:"job,omitempty"`
	Message string `json:"message"`
}

// EvalResult is the outcome of evaluating and validating a catalog script.
type EvalResult struct {
	Catalog  *catalog.Catalog `json:"-"`
	Errors   []EvalErrorData  `json:"errors"`
	Warnings []EvalErrorData  `json:"warnings"`
}

// OK reports whether the script produced a catalog with no blocking errors.
func (r EvalResult) OK() bool { return r.Catalog != nil && len(r.Errors) == 0 }

// NewApp builds an App from cfg. A nil factory means sdfx kernels at the
// configured mesh resolution.
func NewApp(ctx context.Context, cfg *config.Config, factory kernel.Factory) (*App, error) {
	log, err := observability.NewLogger(cfg.LogLevel, cfg.Development)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, log: log, engine: engine.NewEngine(engine.WithTimeout(cfg.EvalTimeout)), factory: factory}

	if cfg.Telemetry {
		for _, start := range []func(context.Context) (func(context.Context) error, error){
			observability.InitTracing,
			observability.InitMetrics,
		} {
			stop, err := start(ctx)
			if err != nil {
				a.Close(ctx)
				return nil, fmt.Errorf("telemetry: %w", err)
			}
			a.shutdown = append(a.shutdown, stop)
		}
	}

	if a.metrics, err = observability.NewMetrics(); err != nil {
		a.Close(ctx)
		return nil, err
	}

	if cfg.ManifestPath != "" {
		if a.store, err = store.NewSQLiteStore(cfg.ManifestPath); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("opening manifest: %w", err)
		}
	}
	return a, nil
}

// Close flushes telemetry and closes the manifest.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, stop := range a.shutdown {
		errs = append(errs, stop(ctx))
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	observability.Sync(a.log)
	return errors.Join(errs...)
}

// Store returns the manifest, or nil when none is configured.
func (a *App) Store() *store.SQLiteStore { return a.store }

// generator returns a generator recording under runID. An empty runID
// records nothing.
func (a *App) generator(runID string) *generate.Generator {
	opts := []generate.Option{generate.WithLogger(a.log), generate.WithMetrics(a.metrics)}
	if a.store != nil && runID != "" {
		opts = append(opts, generate.WithRecorder(a.store, runID))
	}
	return generate.New(a.cfg, a.factory, opts...)
}

func (a *App) newRunID() string {
	if a.store != nil {
		return a.store.NewRunID()
	}
	return ""
}

// Generate builds a single fitting.
func (a *App) Generate(ctx context.Context, kind fitting.Kind, req generate.Request) generate.Result {
	return a.generator(a.newRunID()).Generate(ctx, kind, req)
}

// Evaluate runs a catalog script and validates the catalog it produces.
// Script errors stop at evaluation; validation findings are reported with
// the catalog.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	c, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error("evaluate fatal error", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	result.Catalog = c
	v := catalog.ValidateAll(c, a.cfg.Units)
	for _, e := range v.Errors {
		result.Errors = append(result.Errors, EvalErrorData{Job: e.Job, Message: e.Message})
	}
	for _, w := range v.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Job: w.Job, Message: w.Message})
	}
	return result
}

// RunCatalog evaluates a script and generates every job. Configuration
// errors found by validation do not stop the run: those jobs fail
// individually with no file written. dryRun skips every export.
func (a *App) RunCatalog(ctx context.Context, source string, dryRun bool) (*batch.Report, EvalResult, error) {
	ev := a.Evaluate(source)
	if ev.Catalog == nil {
		return nil, ev, fmt.Errorf("script failed: %s", ev.Errors[0].Message)
	}
	if dryRun {
		for _, j := range ev.Catalog.Jobs {
			j.Request.DryRun = true
		}
	}

	runID := a.newRunID()
	opts := []batch.Option{batch.WithLogger(a.log), batch.WithRunID(runID)}
	if a.cfg.MetricsFile != "" {
		opts = append(opts, batch.WithMetricsFile(a.metrics, a.cfg.MetricsFile))
	}
	rep, err := batch.New(a.generator(runID), a.cfg.Workers, opts...).Run(ctx, ev.Catalog)
	return rep, ev, err
}

// Preview evaluates a script and tessellates every job, laid out side by
// side. Nothing is written and nothing is recorded.
func (a *App) Preview(ctx context.Context, source string) ([]*kernel.Mesh, EvalResult, error) {
	ev := a.Evaluate(source)
	if !ev.OK() {
		return nil, ev, fmt.Errorf("catalog has %d errors", len(ev.Errors))
	}

	gap := tessellate.DefaultGap * a.cfg.Units.PerInch()
	meshes, err := tessellate.Tessellate(ctx, a.generator(""), ev.Catalog, gap)
	if err != nil {
		a.log.Error("tessellate error", zap.Error(err))
		return nil, ev, err
	}
	return meshes, ev, nil
}

// previewData converts meshes to the JSON preview format.
func previewData(meshes []*kernel.Mesh) []MeshData {
	out := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.Name,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out
}
