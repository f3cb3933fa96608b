// Package classify finds the outer end edges of an assembled fitting and
// binds each one to the bevel requested for that end.
//
// One classifier serves every fitting kind: the kind only contributes its
// End descriptors. Classification never modifies the body.
package classify

import (
	"fmt"

	"github.com/chazu/spool/pkg/bevel"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/kernel"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DefaultAdjacency is the distance within which a face is considered to
// bound an edge.
const DefaultAdjacency = 1e-4

// Target is one end to bevel: its descriptor and the resolved chamfer depth
// and angle.
type Target struct {
	End   fitting.End
	Depth float64
	Angle float64 // degrees
}

// Assignment is a fully resolved chamfer on one end.
type Assignment struct {
	Edge  kernel.Edge `json:"-"`
	Face  kernel.Face `json:"-"`
	Depth float64     `json:"depth"`
	Angle float64     `json:"angle"` // degrees
	End   string      `json:"end"`
}

// EdgeID and FaceID identify the bound features, for reports.
func (a Assignment) EdgeID() int { return a.Edge.ID() }
func (a Assignment) FaceID() int { return a.Face.ID() }

func (a Assignment) String() string {
	return fmt.Sprintf("%s: edge %d face %d depth %.4f angle %g", a.End, a.EdgeID(), a.FaceID(), a.Depth, a.Angle)
}

// Result is the output of one classification pass.
type Result struct {
	Assignments []Assignment
	Diagnostics []fitting.Diagnostic
}

// Targets resolves the bevel bound to each end of t. Square-cut ends produce
// no target, only an informational diagnostic. A bevel bound to a name the
// topology lacks, or one whose land exceeds the end's wall, is a
// configuration error.
func Targets(t fitting.Topology, ends bevel.Ends) ([]Target, []fitting.Diagnostic, error) {
	names := t.Names()
	for name := range ends {
		if !lo.Contains(names, name) {
			return nil, nil, &bevel.ConfigError{End: name, Reason: fmt.Sprintf("%s has no such end (ends: %v)", t.Kind, names)}
		}
	}
	var (
		targets []Target
		diags   []fitting.Diagnostic
	)
	for _, e := range t.Ends {
		s := ends.For(e.Name)
		depth, err := bevel.SpecDepth(e.Name, s, e.Wall)
		if err != nil {
			return nil, nil, err
		}
		if s.SquareCut() {
			diags = append(diags, fitting.Diagnostic{
				Severity: fitting.Info,
				End:      e.Name,
				Code:     fitting.CodeSquareCut,
				Message:  "square cut, no bevel",
			})
			continue
		}
		targets = append(targets, Target{End: e, Depth: depth, Angle: s.Angle})
	}
	return targets, diags, nil
}

// Classifier matches targets against a body's boundary.
type Classifier struct {
	Tol fitting.Tolerance
	// Adjacency is the distance bound passed to the kernel's face adjacency
	// query.
	Adjacency float64
	Log       *zap.Logger
}

// New returns a Classifier with the given tolerance.
func New(tol fitting.Tolerance, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{Tol: tol, Adjacency: DefaultAdjacency, Log: log}
}

// candidate is a circular boundary edge under consideration.
type candidate struct {
	edge kernel.Edge
	kernel.Curve
}

// Classify finds the end edge and reference face for every target. Ends with
// no matching edge are skipped with a warning; when several edges match the
// first is taken with a warning.
func (c *Classifier) Classify(k kernel.Kernel, body kernel.Solid, targets []Target) Result {
	candidates := lo.FilterMap(k.Edges(body), func(e kernel.Edge, _ int) (candidate, bool) {
		cv := e.Curve()
		return candidate{edge: e, Curve: cv}, cv.Kind == kernel.CurveCircle
	})

	var res Result
	for _, t := range targets {
		name := t.End.Name
		matches := lo.Filter(candidates, func(cd candidate, _ int) bool {
			return c.Tol.EdgeMatches(t.End, cd.Curve)
		})
		switch {
		case len(matches) == 0:
			res.Diagnostics = append(res.Diagnostics, fitting.Diagnostic{
				Severity: fitting.Warning,
				End:      name,
				Code:     fitting.CodeNoMatch,
				Message:  fmt.Sprintf("no circular edge of radius %.4f at the expected position; bevel skipped", t.End.OuterRadius),
			})
			c.Log.Warn("end edge not found", zap.String("end", name), zap.Int("candidates", len(candidates)))
			continue
		case len(matches) > 1:
			ids := lo.Map(matches, func(cd candidate, _ int) int { return cd.edge.ID() })
			res.Diagnostics = append(res.Diagnostics, fitting.Diagnostic{
				Severity: fitting.Warning,
				End:      name,
				Code:     fitting.CodeAmbiguous,
				Message:  fmt.Sprintf("%d edges match (%v); using edge %d", len(matches), ids, ids[0]),
			})
			c.Log.Warn("ambiguous end edge", zap.String("end", name), zap.Ints("edges", ids))
		}
		edge := matches[0].edge

		face, diag, ok := c.resolveFace(k, body, t.End, edge)
		if diag != nil {
			res.Diagnostics = append(res.Diagnostics, *diag)
		}
		if !ok {
			continue
		}
		res.Assignments = append(res.Assignments, Assignment{
			Edge:  edge,
			Face:  face,
			Depth: t.Depth,
			Angle: t.Angle,
			End:   name,
		})
		c.Log.Debug("end classified",
			zap.String("end", name),
			zap.Int("edge", edge.ID()),
			zap.Int("face", face.ID()),
			zap.Float64("depth", t.Depth))
	}
	return res
}

// resolveFace picks the face the bevel is measured against: the outer
// curved face of matching radius, or failing that the first adjacent face.
func (c *Classifier) resolveFace(k kernel.Kernel, body kernel.Solid, end fitting.End, e kernel.Edge) (kernel.Face, *fitting.Diagnostic, bool) {
	faces := k.AdjacentFaces(body, e, c.Adjacency)
	if len(faces) == 0 {
		c.Log.Warn("end edge has no adjacent face", zap.String("end", end.Name), zap.Int("edge", e.ID()))
		return nil, &fitting.Diagnostic{
			Severity: fitting.Warning,
			End:      end.Name,
			Code:     fitting.CodeNoFace,
			Message:  fmt.Sprintf("edge %d has no adjacent face; bevel skipped", e.ID()),
		}, false
	}
	if f, ok := lo.Find(faces, func(f kernel.Face) bool {
		return c.Tol.FaceMatches(end, f.Surface())
	}); ok {
		return f, nil, true
	}
	f := faces[0]
	c.Log.Warn("no curved face matches, using first adjacent face",
		zap.String("end", end.Name), zap.Int("face", f.ID()), zap.Stringer("surface", f.Surface().Kind))
	return f, &fitting.Diagnostic{
		Severity: fitting.Warning,
		End:      end.Name,
		Code:     fitting.CodeFaceFallback,
		Message:  fmt.Sprintf("no curved face of radius %.4f; using %s face %d, bevel orientation may be wrong", end.OuterRadius, f.Surface().Kind, f.ID()),
	}, true
}
