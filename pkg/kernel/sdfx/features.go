package sdfx

import (
	"errors"
	"math"
	"slices"

	"github.com/chazu/spool/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// edge implements kernel.Edge.
type edge struct {
	id    int
	curve kernel.Curve
}

func (e *edge) ID() int             { return e.id }
func (e *edge) Curve() kernel.Curve { return e.curve }

func (e *edge) samples() []r3.Vec {
	c := e.curve
	if c.Kind == kernel.CurveLine {
		pts := make([]r3.Vec, 0, 9)
		for i := 0; i < 9; i++ {
			t := (float64(i) + 0.5) / 9
			pts = append(pts, r3.Add(c.Start, r3.Scale(t, r3.Sub(c.End, c.Start))))
		}
		return pts
	}
	u := kernel.Perpendicular(c.Normal)
	v := r3.Cross(c.Normal, u)
	const n = 24
	pts := make([]r3.Vec, 0, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * (float64(i) + 0.25) / n
		pts = append(pts, r3.Add(c.Center, r3.Add(r3.Scale(c.Radius*math.Cos(a), u), r3.Scale(c.Radius*math.Sin(a), v))))
	}
	return pts
}

func (e *edge) same(o *edge) bool {
	a, b := e.curve, o.curve
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == kernel.CurveLine {
		d1 := r3.Norm(r3.Sub(a.Start, b.Start)) + r3.Norm(r3.Sub(a.End, b.End))
		d2 := r3.Norm(r3.Sub(a.Start, b.End)) + r3.Norm(r3.Sub(a.End, b.Start))
		return math.Min(d1, d2) < geomEps
	}
	return r3.Norm(r3.Sub(a.Center, b.Center)) < geomEps &&
		math.Abs(a.Radius-b.Radius) < geomEps &&
		r3.Norm(r3.Cross(a.Normal, b.Normal)) < 1e-9
}

// face implements kernel.Face.
type face struct {
	id       int
	p        patch
	reversed bool
}

func (f *face) ID() int { return f.id }

func (f *face) Surface() kernel.Surface {
	s := f.p.surface()
	s.Reversed = f.reversed
	if f.reversed && s.Kind == kernel.SurfacePlane {
		s.Axis = r3.Scale(-1, s.Axis)
	}
	return s
}

// normal is the outward normal of the face in its body.
func (f *face) normal(q r3.Vec) r3.Vec {
	n := f.p.normal(q)
	if f.reversed {
		return r3.Scale(-1, n)
	}
	return n
}

func (f *face) clone() *face {
	c := *f
	if rp, ok := f.p.(*revPatch); ok {
		cp := *rp
		c.p = &cp
	}
	return &c
}

func circleCurve(center, normal r3.Vec, radius float64) kernel.Curve {
	return kernel.Curve{Kind: kernel.CurveCircle, Center: center, Normal: r3.Unit(normal), Radius: radius}
}

// number assigns stable 1-based IDs in feature order.
func number(s *sdfxSolid) {
	for i, f := range s.faces {
		f.id = i + 1
	}
	for i, e := range s.edges {
		e.id = i + 1
	}
}

// revolutionFeatures derives faces and edges from a counter-clockwise
// (rho, z) profile revolved about the frame's Z axis.
func revolutionFeatures(f kernel.Frame, pts []r2.Vec) ([]*face, []*edge) {
	var faces []*face
	var edges []*edge
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		if a.X < geomEps && b.X < geomEps {
			continue
		}
		if r2.Norm(r2.Sub(b, a)) < geomEps {
			continue
		}
		faces = append(faces, &face{p: &revPatch{f: f, a: a, b: b}})
	}
	for i := 0; i < n; i++ {
		prev, cur, next := pts[(i+n-1)%n], pts[i], pts[(i+1)%n]
		if cur.X < geomEps {
			continue
		}
		d1, d2 := unit2(r2.Sub(cur, prev)), unit2(r2.Sub(next, cur))
		if math.Abs(d1.X*d2.Y-d1.Y*d2.X) < 1e-9 && r2.Dot(d1, d2) > 0 {
			continue
		}
		edges = append(edges, &edge{curve: circleCurve(f.Point(0, 0, cur.Y), f.Z, cur.X)})
	}
	return faces, edges
}

func boxFeatures(origin, size r3.Vec) ([]*face, []*edge) {
	x, y, z := r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}
	far := r3.Add(origin, size)
	faces := []*face{
		{p: &rectPatch{corner: origin, u: y, v: z, n: r3.Scale(-1, x), w: size.Y, h: size.Z}},
		{p: &rectPatch{corner: r3.Vec{X: far.X, Y: origin.Y, Z: origin.Z}, u: y, v: z, n: x, w: size.Y, h: size.Z}},
		{p: &rectPatch{corner: origin, u: x, v: z, n: r3.Scale(-1, y), w: size.X, h: size.Z}},
		{p: &rectPatch{corner: r3.Vec{X: origin.X, Y: far.Y, Z: origin.Z}, u: x, v: z, n: y, w: size.X, h: size.Z}},
		{p: &rectPatch{corner: origin, u: x, v: y, n: r3.Scale(-1, z), w: size.X, h: size.Y}},
		{p: &rectPatch{corner: r3.Vec{X: origin.X, Y: origin.Y, Z: far.Z}, u: x, v: y, n: z, w: size.X, h: size.Y}},
	}
	corner := func(i, j, k int) r3.Vec {
		return r3.Vec{
			X: origin.X + float64(i)*size.X,
			Y: origin.Y + float64(j)*size.Y,
			Z: origin.Z + float64(k)*size.Z,
		}
	}
	var edges []*edge
	line := func(a, b r3.Vec) {
		edges = append(edges, &edge{curve: kernel.Curve{Kind: kernel.CurveLine, Start: a, End: b}})
	}
	for j := 0; j < 2; j++ {
		for k := 0; k < 2; k++ {
			line(corner(0, j, k), corner(1, j, k))
			line(corner(j, 0, k), corner(j, 1, k))
			line(corner(j, k, 0), corner(j, k, 1))
		}
	}
	return faces, edges
}

// ---------------------------------------------------------------------------
// Topology queries
// ---------------------------------------------------------------------------

// Edges returns the boundary edges of s.
func (k *SdfxKernel) Edges(s kernel.Solid) []kernel.Edge {
	src := unwrap(s).edges
	out := make([]kernel.Edge, len(src))
	for i, e := range src {
		out[i] = e
	}
	return out
}

// Faces returns the boundary faces of s.
func (k *SdfxKernel) Faces(s kernel.Solid) []kernel.Face {
	src := unwrap(s).faces
	out := make([]kernel.Face, len(src))
	for i, f := range src {
		out[i] = f
	}
	return out
}

// AdjacentFaces returns the faces of s that meet e. A face meets an edge
// when most of the edge lies within tol of it and the face is present on the
// body right next to the edge.
func (k *SdfxKernel) AdjacentFaces(s kernel.Solid, e kernel.Edge, tol float64) []kernel.Face {
	body := unwrap(s)
	ed, ok := e.(*edge)
	if !ok {
		return nil
	}
	var out []kernel.Face
	for _, f := range k.adjacent(body.s, body.faces, ed, tol) {
		out = append(out, f)
	}
	return out
}

// Contains reports whether p lies strictly inside s.
func (k *SdfxKernel) Contains(s kernel.Solid, p r3.Vec) bool {
	return unwrap(s).s.Evaluate(toV3(p)) < -k.boundaryTol
}

func (k *SdfxKernel) adjacent(s sdf.SDF3, faces []*face, e *edge, tol float64) []*face {
	pts := e.samples()
	var out []*face
	for _, f := range faces {
		var close []r3.Vec
		for _, q := range pts {
			if f.p.distance(q) <= tol {
				close = append(close, q)
			}
		}
		if 4*len(close) < 3*len(pts) {
			continue
		}
		if k.meetsEdge(s, f, close) {
			out = append(out, f)
		}
	}
	return out
}

// meetsEdge reports whether f lies on the boundary of s just beside the
// given edge points.
func (k *SdfxKernel) meetsEdge(s sdf.SDF3, f *face, pts []r3.Vec) bool {
	for _, q := range pts {
		for _, p := range f.p.near(q, nearStep) {
			if k.onFace(s, f, p) {
				return true
			}
		}
	}
	return false
}

func (k *SdfxKernel) onBoundary(s sdf.SDF3, p r3.Vec) bool {
	return math.Abs(s.Evaluate(toV3(p))) <= k.boundaryTol
}

// onFace reports whether p is a boundary point of s with material behind f.
func (k *SdfxKernel) onFace(s sdf.SDF3, f *face, p r3.Vec) bool {
	if !k.onBoundary(s, p) {
		return false
	}
	out := r3.Add(p, r3.Scale(sideStep, f.normal(p)))
	in := r3.Sub(p, r3.Scale(sideStep, f.normal(p)))
	return s.Evaluate(toV3(out)) > 0 && s.Evaluate(toV3(in)) < 0
}

// ---------------------------------------------------------------------------
// Booleans
// ---------------------------------------------------------------------------

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) (kernel.Solid, bool) {
	sa, sb := unwrap(a), unwrap(b)
	return k.track(sdf.Union3D(sa.s, sb.s), sa, sb, false)
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) (kernel.Solid, bool) {
	sa, sb := unwrap(a), unwrap(b)
	return k.track(sdf.Difference3D(sa.s, sb.s), sa, sb, true)
}

// errEmptyResult is reported when a boolean leaves no boundary behind.
var errEmptyResult = errors.New("boolean result has no boundary faces")

// track builds the feature set of a boolean result from its operands.
func (k *SdfxKernel) track(res sdf.SDF3, a, b *sdfxSolid, subtract bool) (kernel.Solid, bool) {
	out := &sdfxSolid{s: res}

	keep := func(f *face, other []*face) {
		if k.survives(res, f, other) {
			out.faces = appendMerged(out.faces, f)
		}
	}
	for _, f := range a.faces {
		keep(f.clone(), b.faces)
	}
	for _, f := range b.faces {
		c := f.clone()
		if subtract {
			c.reversed = !c.reversed
		}
		keep(c, a.faces)
	}
	if len(out.faces) == 0 {
		k.fail(errEmptyResult)
		return out, false
	}

	var edges []*edge
	edges = append(edges, a.edges...)
	edges = append(edges, b.edges...)
	edges = append(edges, intersections(a.faces, b.faces)...)
	for _, e := range edges {
		if !k.edgeSurvives(res, e) {
			continue
		}
		if len(k.adjacent(res, out.faces, e, 10*k.boundaryTol)) < 2 {
			// Seams inside a single merged face are not edges.
			continue
		}
		dup := false
		for _, kept := range out.edges {
			if kept.same(e) {
				dup = true
				break
			}
		}
		if !dup {
			c := *e
			out.edges = append(out.edges, &c)
		}
	}
	number(out)
	k.lastErr = nil
	return out, true
}

func (k *SdfxKernel) faceSurvives(s sdf.SDF3, f *face) bool {
	for _, p := range f.p.samples() {
		if k.onFace(s, f, p) {
			return true
		}
	}
	return false
}

// survives reports whether f still bounds s. A surface of revolution is
// also trimmed to the meridian span on which it does, so later booleans
// sample it within its current extent. other holds the faces of the
// opposite operand; their coaxial intersection circles are where the span
// can end.
func (k *SdfxKernel) survives(s sdf.SDF3, f *face, other []*face) bool {
	rp, ok := f.p.(*revPatch)
	if !ok {
		return k.faceSurvives(s, f)
	}
	hit := func(t float64) bool {
		for _, q := range rp.ring(t) {
			if k.onFace(s, f, q) {
				return true
			}
		}
		return false
	}

	ts := meridianFractions(rp, other)
	first, last := -1, -1
	for i, t := range ts {
		if hit(t) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return false
	}
	lo, hi := 0.0, 1.0
	if first > 0 {
		lo = bisect(ts[first-1], ts[first], hit)
	}
	if last < len(ts)-1 {
		hi = bisect(ts[last+1], ts[last], hit)
	}
	rp.trim(lo, hi)
	return true
}

// meridianFractions returns the fractions along p at which survival is
// tested: an even grid, points just either side of every cut, and the
// middle of every interval between cuts.
func meridianFractions(p *revPatch, other []*face) []float64 {
	l := r2.Norm(r2.Sub(p.b, p.a))
	cuts := []float64{0, 1}
	for _, o := range other {
		for _, c := range patchIntersections(p, o.p) {
			if t, ok := p.fraction(c); ok && t > 0 && t < 1 {
				cuts = append(cuts, t)
			}
		}
	}
	slices.Sort(cuts)

	off := math.Min(0.25, 2*sideStep/l)
	ts := make([]float64, 0, meridianSamples+3*len(cuts))
	for i := 0; i < meridianSamples; i++ {
		ts = append(ts, (float64(i)+0.5)/meridianSamples)
	}
	for i, c := range cuts {
		ts = append(ts, c-off, c+off)
		if i > 0 {
			ts = append(ts, (cuts[i-1]+c)/2)
		}
	}
	ts = slices.DeleteFunc(ts, func(t float64) bool { return t < 0 || t > 1 })
	slices.Sort(ts)
	return slices.Compact(ts)
}

// bisect narrows the boundary between a missing fraction and a hit,
// returning a fraction on the hit side.
func bisect(miss, in float64, hit func(float64) bool) float64 {
	for i := 0; i < 40; i++ {
		mid := (miss + in) / 2
		if hit(mid) {
			in = mid
		} else {
			miss = mid
		}
	}
	return in
}

func (k *SdfxKernel) edgeSurvives(s sdf.SDF3, e *edge) bool {
	pts := e.samples()
	on := 0
	for _, p := range pts {
		if k.onBoundary(s, p) {
			on++
		}
	}
	return 4*on >= len(pts)
}

// appendMerged adds f to faces, folding it into an existing face when both
// are spans of the same surface of revolution with the same orientation.
func appendMerged(faces []*face, f *face) []*face {
	at := f.p.samples()[0]
	for _, g := range faces {
		if !g.p.coincident(f.p) || r3.Dot(g.normal(at), f.normal(at)) <= 0 {
			continue
		}
		switch gp := g.p.(type) {
		case *revPatch:
			if gp.merge(f.p.(*revPatch)) {
				return faces
			}
		case *torusPatch:
			return faces
		}
	}
	return append(faces, f)
}

// intersections returns candidate circles where faces of a meet faces of b.
// Only coaxial surfaces of revolution and torus/meridian-plane pairs are
// considered; every candidate lies on both source patches.
func intersections(a, b []*face) []*edge {
	var out []*edge
	add := func(c kernel.Curve, p, q patch) {
		e := &edge{curve: c}
		for _, s := range e.samples() {
			if p.distance(s) > 1e-6 || q.distance(s) > 1e-6 {
				return
			}
		}
		out = append(out, e)
	}
	for _, fa := range a {
		for _, fb := range b {
			for _, c := range patchIntersections(fa.p, fb.p) {
				add(c, fa.p, fb.p)
			}
		}
	}
	return out
}

func patchIntersections(p, q patch) []kernel.Curve {
	switch pa := p.(type) {
	case *revPatch:
		switch qb := q.(type) {
		case *revPatch:
			return revRevIntersections(pa, qb)
		case *torusPatch:
			return torusPlaneIntersections(qb, pa)
		}
	case *torusPatch:
		if qb, ok := q.(*revPatch); ok {
			return torusPlaneIntersections(pa, qb)
		}
	}
	return nil
}

func revRevIntersections(p, q *revPatch) []kernel.Curve {
	if !p.coaxial(q) {
		return nil
	}
	qa, qb := p.toMeridian(q, q.a), p.toMeridian(q, q.b)
	m, ok := segmentIntersect(p.a, p.b, qa, qb)
	if !ok || m.X < geomEps {
		return nil
	}
	return []kernel.Curve{circleCurve(p.f.Point(0, 0, m.Y), p.f.Z, m.X)}
}

// torusPlaneIntersections handles planes containing the torus axis, which
// cut the tube in two circles of the tube radius.
func torusPlaneIntersections(t *torusPatch, pl *revPatch) []kernel.Curve {
	if pl.kind() != kernel.SurfacePlane {
		return nil
	}
	n := pl.f.Z
	if math.Abs(r3.Dot(n, t.f.Z)) > 1e-9 {
		return nil
	}
	if math.Abs(r3.Dot(r3.Sub(pl.f.Point(0, 0, pl.a.Y), t.f.Origin), n)) > geomEps {
		return nil
	}
	d := r3.Unit(r3.Cross(n, t.f.Z))
	return []kernel.Curve{
		circleCurve(r3.Add(t.f.Origin, r3.Scale(t.major, d)), n, t.minor),
		circleCurve(r3.Sub(t.f.Origin, r3.Scale(t.major, d)), n, t.minor),
	}
}
