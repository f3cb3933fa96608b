package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/spool/pkg/bevel"
	"github.com/chazu/spool/pkg/catalog"
	"github.com/chazu/spool/pkg/dims"
	"github.com/chazu/spool/pkg/export"
	"github.com/chazu/spool/pkg/fitting"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpBevel wraps a bevel.Spec so it can be passed between builtins.
type sexpBevel struct {
	spec bevel.Spec
}

func (b *sexpBevel) SexpString(ps *zygo.PrintState) string {
	if b.spec.SquareCut() {
		return "(square)"
	}
	return fmt.Sprintf("(bevel %g %g)", b.spec.Angle, b.spec.Land)
}
func (b *sexpBevel) Type() *zygo.RegisteredType { return nil }

// sexpEnd binds a bevel to one named end, for the :ends option.
type sexpEnd struct {
	name string
	spec bevel.Spec
}

func (e *sexpEnd) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(end %q %s)", e.name, (&sexpBevel{spec: e.spec}).SexpString(ps))
}
func (e *sexpEnd) Type() *zygo.RegisteredType { return nil }

// sexpJob is returned by the fitting builtins so the REPL has something
// to print.
type sexpJob struct {
	job *catalog.Job
}

func (j *sexpJob) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", j.job.Kind, j.job.Name)
}
func (j *sexpJob) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toInt extracts an integral number.
func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expected integer, got %g", f)
	}
	return int(f), nil
}

// toDesignation accepts a number, a string or a keyword. Numbers are
// formatted the way sizes and schedules are written: 1.5 is "1-1/2".
func toDesignation(s zygo.Sexp, size bool) (string, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		if size {
			return dims.NPS(v.Val).String(), nil
		}
		return strconv.FormatInt(v.Val, 10), nil
	case *zygo.SexpFloat:
		if size {
			return dims.NPS(v.Val).String(), nil
		}
		return strconv.FormatFloat(v.Val, 'f', -1, 64), nil
	}
	return toKeywordString(s)
}

// toBevel accepts a (bevel ...) or (square) value, or the keywords
// :standard and :square.
func toBevel(s zygo.Sexp) (bevel.Spec, error) {
	if b, ok := s.(*sexpBevel); ok {
		return b.spec, nil
	}
	name, err := toKeywordString(s)
	if err != nil {
		return bevel.Spec{}, fmt.Errorf("expected bevel, got %T (%s)", s, s.SexpString(nil))
	}
	switch name {
	case "standard":
		return bevel.Standard, nil
	case "square":
		return bevel.Square, nil
	}
	return bevel.Spec{}, fmt.Errorf("unknown bevel %q, expected standard or square", name)
}

// toUnits validates a units keyword or string.
func toUnits(s zygo.Sexp) (string, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", err
	}
	u, err := export.ParseUnits(name)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// commonOptions are accepted by every fitting builtin.
var commonOptions = []string{"name", "nps", "schedule", "units", "out", "bevel", "ends"}

// kindOptions are the options specific to each fitting kind.
var kindOptions = map[fitting.Kind][]string{
	fitting.Pipe:   {"length"},
	fitting.Elbow:  {"radius", "angle"},
	fitting.Tee:    {"branch"},
	fitting.Cross:  {"branch"},
	fitting.Flange: {"class"},
}

// registerBuiltins installs the catalog DSL builtins into a zygomys
// environment. Fitting builtins append jobs to c during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, c *catalog.Catalog) {

	// -----------------------------------------------------------------------
	// (bevel)            the standard 37.5 degree bevel with a 1/16 land
	// (bevel 30)         30 degrees with the standard land
	// (bevel 37.5 0.0625)
	// -----------------------------------------------------------------------
	env.AddFunction("bevel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		spec := bevel.Standard
		if len(args) > 2 {
			return zygo.SexpNull, fmt.Errorf("bevel takes at most an angle and a land, got %d arguments", len(args))
		}
		if len(args) > 0 {
			a, err := toFloat64(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bevel: angle: %w", err)
			}
			spec.Angle = a
		}
		if len(args) > 1 {
			l, err := toFloat64(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bevel: land: %w", err)
			}
			spec.Land = l
		}
		return &sexpBevel{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (square)
	// -----------------------------------------------------------------------
	env.AddFunction("square", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("square takes no arguments")
		}
		return &sexpBevel{spec: bevel.Square}, nil
	})

	// -----------------------------------------------------------------------
	// (end "run inlet" (bevel 30))
	// -----------------------------------------------------------------------
	env.AddFunction("end", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("end requires an end name and a bevel")
		}
		endName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("end: name: %w", err)
		}
		spec, err := toBevel(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("end %q: %w", endName, err)
		}
		return &sexpEnd{name: endName, spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (catalog "plant-a" :units :mm :schedule 80 :out "build")
	// -----------------------------------------------------------------------
	declared := false
	env.AddFunction("catalog", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if declared {
			return zygo.SexpNull, fmt.Errorf("catalog: already declared as %q", c.Name)
		}
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("catalog requires a name argument")
		}
		catName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("catalog: name: %w", err)
		}

		var d catalog.Defaults
		for key, v := range pa.kw {
			switch key {
			case "units":
				d.Units, err = toUnits(v)
			case "schedule":
				d.Schedule, err = toDesignation(v, false)
			case "out":
				d.OutputDir, err = toString(v)
			default:
				err = fmt.Errorf("unknown option :%s", key)
			}
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("catalog: %s: %w", key, err)
			}
		}

		c.Name = catName
		c.Defaults = d
		declared = true
		return &zygo.SexpStr{S: catName}, nil
	})

	// -----------------------------------------------------------------------
	// (pipe "spool-1" :nps 4 :schedule 40 :length 120 :bevel (bevel))
	// (elbow :nps 6 :radius :short :angle 45)
	// (tee :nps 6 :branch 4 :ends (list (end "branch" (square))))
	// (cross :nps 8 :bevel (bevel))
	// (flange :nps 4 :class 1500 :bevel (bevel))
	// -----------------------------------------------------------------------
	for _, kind := range []fitting.Kind{fitting.Pipe, fitting.Elbow, fitting.Tee, fitting.Cross, fitting.Flange} {
		env.AddFunction(kind.String(), fittingBuiltin(c, kind))
	}
}

// fittingBuiltin returns the builtin that adds one job of the given kind.
func fittingBuiltin(c *catalog.Catalog, kind fitting.Kind) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
	allowed := make(map[string]bool)
	for _, k := range append(append([]string{}, commonOptions...), kindOptions[kind]...) {
		allowed[k] = true
	}

	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		job := &catalog.Job{Kind: kind}
		req := &job.Request

		if len(pa.positional) > 1 {
			return zygo.SexpNull, fmt.Errorf("%s: expected at most a name before the options", kind)
		}
		if len(pa.positional) == 1 {
			s, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: name: %w", kind, err)
			}
			job.Name = s
		}

		for key := range pa.kw {
			if !allowed[key] {
				return zygo.SexpNull, fmt.Errorf("%s: unknown option :%s", kind, key)
			}
		}

		var err error
		get := func(key string, f func(zygo.Sexp) error) {
			v, ok := pa.kw[key]
			if !ok || err != nil {
				return
			}
			if e := f(v); e != nil {
				err = fmt.Errorf("%s: %s: %w", kind, key, e)
			}
		}

		get("name", func(v zygo.Sexp) (e error) { job.Name, e = toString(v); return })
		get("nps", func(v zygo.Sexp) (e error) { req.NPS, e = toDesignation(v, true); return })
		get("schedule", func(v zygo.Sexp) (e error) { req.Schedule, e = toDesignation(v, false); return })
		get("branch", func(v zygo.Sexp) (e error) { req.Branch, e = toDesignation(v, true); return })
		get("units", func(v zygo.Sexp) (e error) { req.Units, e = toUnits(v); return })
		get("out", func(v zygo.Sexp) (e error) { req.Output, e = toString(v); return })
		get("radius", func(v zygo.Sexp) (e error) { req.Radius, e = toKeywordString(v); return })
		get("angle", func(v zygo.Sexp) (e error) { req.Angle, e = toFloat64(v); return })
		get("length", func(v zygo.Sexp) (e error) { req.Length, e = toFloat64(v); return })
		get("class", func(v zygo.Sexp) (e error) { req.Class, e = toInt(v); return })
		get("bevel", func(v zygo.Sexp) error {
			spec, e := toBevel(v)
			if e != nil {
				return e
			}
			req.Ends = bevel.Uniform(spec, fitting.EndNames(kind)...)
			return nil
		})
		get("ends", func(v zygo.Sexp) error {
			items, e := sexpListToSlice(v)
			if e != nil {
				return e
			}
			if req.Ends == nil {
				req.Ends = make(bevel.Ends)
			}
			for _, item := range items {
				end, ok := item.(*sexpEnd)
				if !ok {
					return fmt.Errorf("expected (end ...), got %T (%s)", item, item.SexpString(nil))
				}
				req.Ends[end.name] = end.spec
			}
			return nil
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		if req.NPS == "" {
			return zygo.SexpNull, fmt.Errorf("%s: :nps is required", kind)
		}

		return &sexpJob{job: c.Add(job)}, nil
	}
}
