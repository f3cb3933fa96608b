package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/spool/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// minChamfer is the smallest chamfer leg the kernel will cut.
const minChamfer = 1e-6

// Chamfer bevels every requested circular edge in one batch. Each bevel is
// cut by revolving a triangle about the edge's axis and subtracting it. If
// any request cannot be honoured the whole batch fails and s is returned
// unchanged.
func (k *SdfxKernel) Chamfer(s kernel.Solid, reqs []kernel.ChamferRequest) (kernel.Solid, bool) {
	if len(reqs) == 0 {
		return s, true
	}
	body := unwrap(s)
	cutters := make([]kernel.Solid, 0, len(reqs))
	for i, r := range reqs {
		c, err := k.chamferCutter(body, r)
		if err != nil {
			k.fail(fmt.Errorf("chamfer %d: %w", i, err))
			return s, false
		}
		cutters = append(cutters, c)
	}

	out := kernel.Solid(body)
	for i, c := range cutters {
		var ok bool
		out, ok = k.Difference(out, c)
		if !ok {
			k.fail(fmt.Errorf("chamfer %d: %w", i, errEmptyResult))
			return s, false
		}
	}

	res := unwrap(out)
	for i, r := range reqs {
		if k.edgeSurvives(res.s, r.Edge.(*edge)) {
			k.fail(fmt.Errorf("chamfer %d: edge %d still present after cut", i, r.Edge.ID()))
			return s, false
		}
	}
	k.lastErr = nil
	return out, true
}

func (k *SdfxKernel) chamferCutter(body *sdfxSolid, r kernel.ChamferRequest) (kernel.Solid, error) {
	e, ok := r.Edge.(*edge)
	if !ok || !containsEdge(body, e) {
		return nil, fmt.Errorf("edge does not belong to the solid")
	}
	f, ok := r.Face.(*face)
	if !ok || !containsFace(body, f) {
		return nil, fmt.Errorf("face does not belong to the solid")
	}
	c := e.curve
	if c.Kind != kernel.CurveCircle {
		return nil, fmt.Errorf("edge %d is not circular", e.id)
	}
	d, a := r.Distance, r.Angle
	if !(d > minChamfer) {
		return nil, fmt.Errorf("chamfer distance %g too small", d)
	}
	if !(a > 0 && a < math.Pi/2) {
		return nil, fmt.Errorf("chamfer angle %g outside (0, 90) degrees", a*180/math.Pi)
	}
	if len(k.adjacent(body.s, []*face{f}, e, 10*k.boundaryTol)) == 0 {
		return nil, fmt.Errorf("face %d is not adjacent to edge %d", f.id, e.id)
	}

	axial, inward, err := k.materialSide(body, c, math.Min(d, c.Radius)/4)
	if err != nil {
		return nil, err
	}
	if inward && d >= c.Radius {
		return nil, fmt.Errorf("chamfer distance %g exceeds edge radius %g", d, c.Radius)
	}

	// The bevel must start on the end face and finish on the reference face.
	u := kernel.Perpendicular(c.Normal)
	q0 := r3.Add(c.Center, r3.Scale(c.Radius, u))
	toMaterial := u
	if inward {
		toMaterial = r3.Scale(-1, u)
	}
	if !k.onBoundary(body.s, r3.Add(q0, r3.Scale(d, toMaterial))) {
		return nil, fmt.Errorf("chamfer distance %g runs off the end face", d)
	}
	setback := d * math.Tan(a)
	if tp, ok := f.p.(*torusPatch); ok {
		if setback > 0.5*tp.sweep*(tp.major-tp.minor) {
			return nil, fmt.Errorf("chamfer setback %g exceeds face %d", setback, f.id)
		}
	} else if f.p.distance(r3.Add(q0, r3.Scale(setback, axial))) > 1e-6 {
		return nil, fmt.Errorf("chamfer setback %g exceeds face %d", setback, f.id)
	}

	frame := kernel.NewFrameX(c.Center, axial, u)
	R := c.Radius
	eps := math.Min(0.05*d, 0.01*R) + minChamfer
	tan := math.Tan(a)
	var profile []r2.Vec
	if inward {
		profile = []r2.Vec{
			{X: R - d - eps/tan, Y: -eps},
			{X: R + eps, Y: -eps},
			{X: R + eps, Y: (d + eps) * tan},
		}
		if profile[0].X < 0 {
			profile[0].X = 0
		}
	} else {
		if R-eps <= 0 {
			return nil, fmt.Errorf("edge %d radius %g too small", e.id, R)
		}
		profile = []r2.Vec{
			{X: R - eps, Y: -eps},
			{X: R + d + eps/tan, Y: -eps},
			{X: R - eps, Y: (d + eps) * tan},
		}
	}
	return k.Revolve(frame, profile)
}

// materialSide finds, for a circular edge, the axial direction pointing into
// the material and whether the material lies inside the circle.
func (k *SdfxKernel) materialSide(body *sdfxSolid, c kernel.Curve, step float64) (axial r3.Vec, inward bool, err error) {
	u := kernel.Perpendicular(c.Normal)
	v := r3.Cross(c.Normal, u)
	best, bestCount := -1, 0
	const n = 8
	for combo := 0; combo < 4; combo++ {
		ax := 1.0
		if combo&1 == 1 {
			ax = -1
		}
		rad := -1.0
		if combo&2 == 2 {
			rad = 1
		}
		count := 0
		for i := 0; i < n; i++ {
			t := 2 * math.Pi * float64(i) / n
			w := r3.Add(r3.Scale(math.Cos(t), u), r3.Scale(math.Sin(t), v))
			p := r3.Add(c.Center, r3.Scale(c.Radius, w))
			p = r3.Add(p, r3.Scale(rad*step, w))
			p = r3.Add(p, r3.Scale(ax*step, c.Normal))
			if body.s.Evaluate(toV3(p)) < 0 {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = combo, count
		}
	}
	if bestCount < n*3/4 {
		return r3.Vec{}, false, fmt.Errorf("cannot find material beside edge")
	}
	axial = c.Normal
	if best&1 == 1 {
		axial = r3.Scale(-1, axial)
	}
	return axial, best&2 == 0, nil
}

func containsEdge(s *sdfxSolid, e *edge) bool {
	for _, x := range s.edges {
		if x == e {
			return true
		}
	}
	return false
}

func containsFace(s *sdfxSolid, f *face) bool {
	for _, x := range s.faces {
		if x == f {
			return true
		}
	}
	return false
}
