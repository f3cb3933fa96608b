// Package generate is the entry point for producing fitting solids. Each
// generator resolves dimensions, builds the body, binds and applies weld
// bevels, and exports the result.
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/spool/pkg/assemble"
	"github.com/chazu/spool/pkg/bevel"
	"github.com/chazu/spool/pkg/chamfer"
	"github.com/chazu/spool/pkg/classify"
	"github.com/chazu/spool/pkg/config"
	"github.com/chazu/spool/pkg/export"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/kernel"
	"github.com/chazu/spool/pkg/kernel/sdfx"
	"github.com/chazu/spool/pkg/observability"
	"github.com/chazu/spool/pkg/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrConfig wraps every configuration error: unknown sizes, bad bevels,
// profiles that cannot be drawn. No file is written when it is returned.
var ErrConfig = errors.New("configuration error")

// ErrExport wraps tessellation and file write failures.
var ErrExport = errors.New("export failed")

// Request describes one fitting. Lengths and lands are in inches and are
// converted when another unit is selected.
type Request struct {
	// Name labels the job in logs and the manifest. It is also the default
	// file stem.
	Name     string
	NPS      string
	Schedule string
	// Branch is the tee or cross outlet size; empty means equal.
	Branch string
	// Class is the flange pressure class.
	Class int
	// Radius selects long or short radius elbows.
	Radius string
	// Angle is the elbow sweep in degrees; zero means 90.
	Angle float64
	// Length is the straight pipe length.
	Length float64
	// Ends binds bevel specs to end names. Unbound ends are square cut.
	Ends bevel.Ends
	// Output is the file path. Empty means <OutputDir>/<stem>.3mf.
	Output string
	// Units overrides the configured units when non-empty.
	Units string
	// DryRun builds and bevels the body without writing a file.
	DryRun bool
	// Preview attaches the tessellated body to the result.
	Preview bool
}

// Result is the structured outcome of one generation.
type Result struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Filename string            `json:"filename,omitempty"`
	Fields   map[string]string `json:"fields"`

	Assignments []classify.Assignment `json:"assignments,omitempty"`
	Diagnostics []fitting.Diagnostic  `json:"diagnostics,omitempty"`

	// Edges and Faces count the final body's boundary features.
	Edges int `json:"edges"`
	Faces int `json:"faces"`

	// Mesh is set when the request asked for a preview.
	Mesh *kernel.Mesh `json:"-"`

	RequestID string        `json:"request_id"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// Warnings returns the diagnostics of warning severity.
func (r Result) Warnings() []fitting.Diagnostic { return fitting.Warnings(r.Diagnostics) }

// Recorder receives every result. *store.SQLiteStore satisfies it.
type Recorder interface {
	Put(ctx context.Context, r store.Record) (*store.Record, error)
}

// Generator produces fittings. It holds no per-call state and is safe for
// concurrent use; each call gets its own kernel from the factory.
type Generator struct {
	cfg      *config.Config
	factory  kernel.Factory
	log      *zap.Logger
	metrics  *observability.Metrics
	recorder Recorder
	runID    string
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithRecorder writes every result to r under the given run ID.
func WithRecorder(r Recorder, runID string) Option {
	return func(g *Generator) {
		g.recorder = r
		g.runID = runID
	}
}

// DefaultFactory returns sdfx kernels meshing at the configured resolution.
func DefaultFactory(cfg *config.Config) kernel.Factory {
	return sdfx.Factory(sdfx.WithMeshCells(cfg.MeshCells))
}

// New returns a Generator. A nil cfg means config.Default and a nil factory
// means DefaultFactory.
func New(cfg *config.Config, factory kernel.Factory, opts ...Option) *Generator {
	if cfg == nil {
		cfg = config.Default()
	}
	if factory == nil {
		factory = DefaultFactory(cfg)
	}
	g := &Generator{cfg: cfg, factory: factory, log: zap.NewNop()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// plan is a fully resolved fitting, ready to build.
type plan struct {
	kind     fitting.Kind
	topology fitting.Topology
	build    func(k kernel.Kernel) (kernel.Solid, error)
	fields   map[string]string
	stem     string
}

// resolver turns a request into a plan, in model units scaled by s.
type resolver func(req Request, s float64) (*plan, error)

// Generate dispatches on kind.
func (g *Generator) Generate(ctx context.Context, kind fitting.Kind, req Request) Result {
	switch kind {
	case fitting.Pipe:
		return g.Pipe(ctx, req)
	case fitting.Elbow:
		return g.Elbow(ctx, req)
	case fitting.Tee:
		return g.Tee(ctx, req)
	case fitting.Cross:
		return g.Cross(ctx, req)
	case fitting.Flange:
		return g.Flange(ctx, req)
	}
	return Result{Message: "unknown fitting kind " + kind.String(), Err: ErrConfig}
}

// Pipe generates straight pipe along +Z.
func (g *Generator) Pipe(ctx context.Context, req Request) Result {
	return g.run(ctx, fitting.Pipe, req, resolvePipe)
}

// Elbow generates an elbow swept about +Z.
func (g *Generator) Elbow(ctx context.Context, req Request) Result {
	return g.run(ctx, fitting.Elbow, req, resolveElbow)
}

// Tee generates an equal or reducing tee.
func (g *Generator) Tee(ctx context.Context, req Request) Result {
	return g.run(ctx, fitting.Tee, req, resolveTee)
}

// Cross generates an equal or reducing cross.
func (g *Generator) Cross(ctx context.Context, req Request) Result {
	return g.run(ctx, fitting.Cross, req, resolveCross)
}

// Flange generates a ring-joint weld neck flange.
func (g *Generator) Flange(ctx context.Context, req Request) Result {
	return g.run(ctx, fitting.Flange, req, resolveFlange)
}

func (g *Generator) run(ctx context.Context, kind fitting.Kind, req Request, resolve resolver) (res Result) {
	start := time.Now()
	res.RequestID = uuid.NewString()

	ctx, span := observability.Tracer().Start(ctx, "generate."+kind.String(),
		trace.WithAttributes(
			attribute.String("fitting", kind.String()),
			attribute.String("nps", req.NPS),
			attribute.String("request_id", res.RequestID),
		))
	defer span.End()

	log := observability.WithTrace(ctx, g.log).With(
		zap.String("fitting", kind.String()),
		zap.String("request_id", res.RequestID),
	)
	if req.Name != "" {
		log = log.With(zap.String("job", req.Name))
	}

	defer func() {
		res.Duration = time.Since(start)
		g.finish(ctx, kind, req, &res, span, log)
	}()

	units := g.cfg.Units
	if req.Units != "" {
		u, err := export.ParseUnits(req.Units)
		if err != nil {
			return failed(res, fmt.Errorf("%w: %w", ErrConfig, err))
		}
		units = u
	}
	s := units.PerInch()

	p, err := resolve(req, s)
	if err != nil {
		return failed(res, fmt.Errorf("%w: %w", ErrConfig, err))
	}
	res.Fields = p.fields
	res.Fields["units"] = units.String()
	log = log.With(zap.String("nps", p.fields["nps"]), zap.String("schedule", p.fields["schedule"]))

	targets, diags, err := classify.Targets(p.topology, scaleEnds(req.Ends, s))
	if err != nil {
		return failed(res, fmt.Errorf("%w: %w", ErrConfig, err))
	}
	res.Diagnostics = append(res.Diagnostics, diags...)

	path := ""
	if !req.DryRun {
		path = req.Output
		if path == "" {
			stem := req.Name
			if stem == "" {
				stem = p.stem
			}
			if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
				return failed(res, fmt.Errorf("%w: %w", ErrExport, err))
			}
			path = filepath.Join(g.cfg.OutputDir, FileStem(stem)+".3mf")
		}
	}

	k := g.factory()
	body, err := p.build(k)
	if err != nil {
		return failed(res, err)
	}

	cls := classify.New(g.cfg.Tolerance(units), log)
	cls.Adjacency = g.cfg.Tolerances.Adjacency * s
	classified := cls.Classify(k, body, targets)
	res.Diagnostics = append(res.Diagnostics, classified.Diagnostics...)

	out := chamfer.Apply(k, body, classified.Assignments, log)
	res.Diagnostics = append(res.Diagnostics, out.Diagnostics...)
	res.Assignments = out.Applied
	g.metrics.CountChamfers("applied", len(out.Applied))
	g.metrics.CountChamfers("failed", len(classified.Assignments)-len(out.Applied))

	body = out.Body
	res.Edges = len(k.Edges(body))
	res.Faces = len(k.Faces(body))

	if path != "" || req.Preview {
		mesh, err := k.ToMesh(body)
		if err != nil {
			return failed(res, fmt.Errorf("%w: tessellate: %w", ErrExport, err))
		}
		mesh.Name = FileStem(p.stem)
		if path != "" {
			if err := export.Write(path, mesh, units); err != nil {
				return failed(res, fmt.Errorf("%w: %w", ErrExport, err))
			}
			res.Filename = path
		}
		if req.Preview {
			res.Mesh = mesh
		}
	}

	res.Success = true
	res.Message = summary(kind, p, res)
	return res
}

func failed(res Result, err error) Result {
	res.Success = false
	res.Filename = ""
	res.Mesh = nil
	res.Message = err.Error()
	res.Err = err
	return res
}

// finish logs, traces, counts and records a result.
func (g *Generator) finish(ctx context.Context, kind fitting.Kind, req Request, res *Result, span trace.Span, log *zap.Logger) {
	outcome := outcomeOf(*res)
	for _, d := range res.Diagnostics {
		g.metrics.CountDiagnostic(ctx, d.Code)
		if d.Severity >= fitting.Warning {
			log.Warn(d.Message, zap.String("end", d.End), zap.String("code", d.Code))
		}
	}
	g.metrics.ObserveGeneration(ctx, kind.String(), outcome, res.Duration)

	span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("assignments", len(res.Assignments)),
		attribute.Int("warnings", len(res.Warnings())),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Message)
		log.Error("generation failed", zap.String("outcome", outcome), zap.Error(res.Err))
	} else {
		span.SetStatus(codes.Ok, "")
		log.Info("generation complete",
			zap.String("file", res.Filename),
			zap.Int("bevels", len(res.Assignments)),
			zap.Int("warnings", len(res.Warnings())),
			zap.Duration("duration", res.Duration))
	}

	if g.recorder == nil {
		return
	}
	if _, err := g.recorder.Put(ctx, store.Record{
		RunID:    g.runID,
		Kind:     kind.String(),
		Job:      req.Name,
		Success:  res.Success,
		Message:  res.Message,
		Filename: res.Filename,
		Units:    res.Fields["units"],
		Fields:   res.Fields,
		Warnings: len(res.Warnings()),
		Duration: res.Duration,
	}); err != nil {
		log.Warn("manifest write failed", zap.Error(err))
	}
}

// outcomeOf labels a result for metrics.
func outcomeOf(r Result) string {
	var te *assemble.TopologyError
	switch {
	case r.Err == nil && len(r.Warnings()) > 0:
		return "degraded"
	case r.Err == nil:
		return "success"
	case errors.Is(r.Err, ErrConfig):
		return "config_error"
	case errors.As(r.Err, &te):
		return "topology_error"
	case errors.Is(r.Err, ErrExport):
		return "export_error"
	}
	return "error"
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool { return errors.Is(err, ErrConfig) }

func summary(kind fitting.Kind, p *plan, res Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", kind, p.stem)
	switch {
	case len(res.Assignments) == 1:
		b.WriteString(", 1 bevel")
	case len(res.Assignments) > 1:
		fmt.Fprintf(&b, ", %d bevels", len(res.Assignments))
	default:
		b.WriteString(", square cut")
	}
	if w := len(res.Warnings()); w > 0 {
		fmt.Fprintf(&b, ", %d warnings", w)
	}
	if res.Filename != "" {
		fmt.Fprintf(&b, " written to %s", res.Filename)
	}
	return b.String()
}

func scaleEnds(ends bevel.Ends, s float64) bevel.Ends {
	out := make(bevel.Ends, len(ends))
	for name, spec := range ends {
		spec.Land *= s
		out[name] = spec
	}
	return out
}

var stemReplacer = strings.NewReplacer("/", "_", `\`, "_", " ", "-")

// FileStem turns a job name into a safe file name stem.
func FileStem(s string) string {
	return stemReplacer.Replace(strings.TrimSpace(s))
}
