package sdfx

import (
	"math"

	"github.com/chazu/spool/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// patch is the untrimmed analytic surface carrying a face. Trimming is
// implicit: a patch contributes to a body only where its points lie on the
// body's zero level set.
type patch interface {
	kind() kernel.SurfaceKind
	// distance is the unsigned distance from q to the patch.
	distance(q r3.Vec) float64
	// normal is the outward normal of the primitive the patch came from.
	normal(q r3.Vec) r3.Vec
	samples() []r3.Vec
	// near returns patch points about eta away from q, staying on the patch.
	near(q r3.Vec, eta float64) []r3.Vec
	surface() kernel.Surface
	// coincident reports whether o lies on the same underlying surface.
	coincident(o patch) bool
}

// ---------------------------------------------------------------------------
// Surfaces of revolution
// ---------------------------------------------------------------------------

// revPatch is a meridian segment a->b in (rho, z) coordinates revolved a
// full turn about the frame's Z axis. The primitive's material lies to the
// left of a->b. A horizontal segment is a planar annulus, a vertical one a
// cylinder, anything else a cone.
type revPatch struct {
	f    kernel.Frame
	a, b r2.Vec
}

func (p *revPatch) kind() kernel.SurfaceKind {
	switch {
	case math.Abs(p.a.X-p.b.X) < geomEps:
		return kernel.SurfaceCylinder
	case math.Abs(p.a.Y-p.b.Y) < geomEps:
		return kernel.SurfacePlane
	default:
		return kernel.SurfaceCone
	}
}

// meridian maps q into the patch's (rho, z) half-plane. radial is the unit
// direction from the axis towards q.
func (p *revPatch) meridian(q r3.Vec) (m r2.Vec, radial r3.Vec) {
	l := p.f.Local(q)
	rho := math.Hypot(l.X, l.Y)
	if rho < 1e-12 {
		return r2.Vec{X: 0, Y: l.Z}, p.f.X
	}
	radial = r3.Add(r3.Scale(l.X/rho, p.f.X), r3.Scale(l.Y/rho, p.f.Y()))
	return r2.Vec{X: rho, Y: l.Z}, radial
}

func (p *revPatch) distance(q r3.Vec) float64 {
	m, _ := p.meridian(q)
	return segmentDistance(m, p.a, p.b)
}

func (p *revPatch) normal2() r2.Vec {
	d := r2.Sub(p.b, p.a)
	return unit2(r2.Vec{X: d.Y, Y: -d.X})
}

func (p *revPatch) normal(q r3.Vec) r3.Vec {
	_, radial := p.meridian(q)
	n := p.normal2()
	return r3.Unit(r3.Add(r3.Scale(n.X, radial), r3.Scale(n.Y, p.f.Z)))
}

func (p *revPatch) point(m r2.Vec, phi float64) r3.Vec {
	return p.f.Point(m.X*math.Cos(phi), m.X*math.Sin(phi), m.Y)
}

func (p *revPatch) samples() []r3.Vec {
	var pts []r3.Vec
	for _, t := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		pts = append(pts, p.ring(t)...)
	}
	return pts
}

// ring returns points around the parallel circle at meridian fraction t.
func (p *revPatch) ring(t float64) []r3.Vec {
	m := lerp2(p.a, p.b, t)
	n := azimuthSamples
	if m.X < geomEps {
		n = 1
	}
	pts := make([]r3.Vec, 0, n)
	for k := 0; k < n; k++ {
		pts = append(pts, p.point(m, 2*math.Pi*float64(k)/azimuthSamples+0.1))
	}
	return pts
}

// fraction returns the meridian fraction at which circle c crosses the
// patch. Only circles coaxial with the patch qualify.
func (p *revPatch) fraction(c kernel.Curve) (float64, bool) {
	if c.Kind != kernel.CurveCircle || r3.Norm(r3.Cross(c.Normal, p.f.Z)) > 1e-9 {
		return 0, false
	}
	l := p.f.Local(c.Center)
	if math.Hypot(l.X, l.Y) > 1e-7 {
		return 0, false
	}
	m := r2.Vec{X: c.Radius, Y: l.Z}
	if segmentDistance(m, p.a, p.b) > 1e-6 {
		return 0, false
	}
	d := r2.Sub(p.b, p.a)
	return r2.Dot(r2.Sub(m, p.a), d) / r2.Dot(d, d), true
}

// trim shrinks the patch to the meridian fractions [lo, hi].
func (p *revPatch) trim(lo, hi float64) {
	p.a, p.b = lerp2(p.a, p.b, lo), lerp2(p.a, p.b, hi)
}

func (p *revPatch) near(q r3.Vec, eta float64) []r3.Vec {
	m, radial := p.meridian(q)
	phi := math.Atan2(r3.Dot(radial, p.f.Y()), r3.Dot(radial, p.f.X))
	d := r2.Sub(p.b, p.a)
	l := r2.Norm(d)
	if l < geomEps {
		return nil
	}
	t := r2.Dot(r2.Sub(m, p.a), d) / (l * l)
	var pts []r3.Vec
	for _, tt := range []float64{t - eta/l, t + eta/l} {
		if tt >= 0 && tt <= 1 {
			pts = append(pts, p.point(lerp2(p.a, p.b, tt), phi))
		}
	}
	return pts
}

func (p *revPatch) surface() kernel.Surface {
	s := kernel.Surface{
		Kind:   p.kind(),
		Origin: p.f.Point(0, 0, math.Min(p.a.Y, p.b.Y)),
		Axis:   p.f.Z,
		Radius: math.Max(p.a.X, p.b.X),
	}
	if s.Kind == kernel.SurfacePlane {
		s.Origin = p.f.Point(0, 0, p.a.Y)
		if p.normal2().Y < 0 {
			s.Axis = r3.Scale(-1, p.f.Z)
		}
	}
	return s
}

// coaxial reports whether o shares p's axis line.
func (p *revPatch) coaxial(o *revPatch) bool {
	if r3.Norm(r3.Cross(p.f.Z, o.f.Z)) > 1e-9 {
		return false
	}
	l := p.f.Local(o.f.Origin)
	return math.Hypot(l.X, l.Y) < 1e-7
}

// toMeridian expresses a meridian point of o in p's coordinates. Only valid
// when the patches are coaxial.
func (p *revPatch) toMeridian(o *revPatch, m r2.Vec) r2.Vec {
	w, _ := p.meridian(o.f.Point(m.X, 0, m.Y))
	return w
}

func (p *revPatch) coincident(other patch) bool {
	o, ok := other.(*revPatch)
	if !ok || !p.coaxial(o) {
		return false
	}
	oa, ob := p.toMeridian(o, o.a), p.toMeridian(o, o.b)
	return lineDistance(oa, p.a, p.b) < geomEps && lineDistance(ob, p.a, p.b) < geomEps
}

// merge widens p to cover o when both lie on the same meridian line and
// their spans touch. It reports whether the merge happened.
func (p *revPatch) merge(o *revPatch) bool {
	d := r2.Sub(p.b, p.a)
	l2 := r2.Dot(d, d)
	if l2 < geomEps*geomEps {
		return false
	}
	ta := r2.Dot(r2.Sub(p.toMeridian(o, o.a), p.a), d) / l2
	tb := r2.Dot(r2.Sub(p.toMeridian(o, o.b), p.a), d) / l2
	lo, hi := math.Min(ta, tb), math.Max(ta, tb)
	gap := math.Sqrt(l2)
	if hi < -geomEps/gap || lo > 1+geomEps/gap {
		return false
	}
	na := lerp2(p.a, p.b, math.Min(0, lo))
	nb := lerp2(p.a, p.b, math.Max(1, hi))
	p.a, p.b = na, nb
	return true
}

// ---------------------------------------------------------------------------
// Torus
// ---------------------------------------------------------------------------

// torusPatch is the tube of a torus swept from the frame's X axis through
// sweep radians about Z.
type torusPatch struct {
	f            kernel.Frame
	major, minor float64
	sweep        float64
}

func (p *torusPatch) kind() kernel.SurfaceKind { return kernel.SurfaceTorus }

func (p *torusPatch) full() bool { return p.sweep >= 2*math.Pi-1e-9 }

func (p *torusPatch) azimuth(q r3.Vec) float64 {
	l := p.f.Local(q)
	phi := math.Atan2(l.Y, l.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi
}

// clampAzimuth returns the nearest azimuth inside the sweep.
func (p *torusPatch) clampAzimuth(phi float64) float64 {
	if p.full() || phi <= p.sweep {
		return phi
	}
	if phi-p.sweep < 2*math.Pi-phi {
		return p.sweep
	}
	return 0
}

func (p *torusPatch) tubeCenter(phi float64) r3.Vec {
	return p.f.Point(p.major*math.Cos(phi), p.major*math.Sin(phi), 0)
}

func (p *torusPatch) distance(q r3.Vec) float64 {
	phi := p.clampAzimuth(p.azimuth(q))
	c := p.tubeCenter(phi)
	radial := r3.Unit(r3.Sub(c, p.f.Origin))
	tangent := r3.Cross(p.f.Z, radial)
	d := r3.Sub(q, c)
	out := r3.Dot(d, tangent)
	inPlane := math.Hypot(r3.Dot(d, radial), r3.Dot(d, p.f.Z)) - p.minor
	return math.Hypot(out, inPlane)
}

func (p *torusPatch) normal(q r3.Vec) r3.Vec {
	phi := p.clampAzimuth(p.azimuth(q))
	c := p.tubeCenter(phi)
	radial := r3.Unit(r3.Sub(c, p.f.Origin))
	d := r3.Sub(q, c)
	w := r3.Add(r3.Scale(r3.Dot(d, radial), radial), r3.Scale(r3.Dot(d, p.f.Z), p.f.Z))
	return r3.Unit(w)
}

func (p *torusPatch) point(phi, psi float64) r3.Vec {
	c := p.tubeCenter(phi)
	radial := r3.Unit(r3.Sub(c, p.f.Origin))
	w := r3.Add(r3.Scale(math.Cos(psi), radial), r3.Scale(math.Sin(psi), p.f.Z))
	return r3.Add(c, r3.Scale(p.minor, w))
}

func (p *torusPatch) samples() []r3.Vec {
	var pts []r3.Vec
	for i := 0; i < 8; i++ {
		phi := p.sweep * (float64(i) + 0.5) / 8
		for j := 0; j < azimuthSamples; j++ {
			pts = append(pts, p.point(phi, 2*math.Pi*float64(j)/azimuthSamples+0.05))
		}
	}
	return pts
}

func (p *torusPatch) near(q r3.Vec, eta float64) []r3.Vec {
	phi := p.clampAzimuth(p.azimuth(q))
	c := p.tubeCenter(phi)
	radial := r3.Unit(r3.Sub(c, p.f.Origin))
	d := r3.Sub(q, c)
	psi := math.Atan2(r3.Dot(d, p.f.Z), r3.Dot(d, radial))
	pts := []r3.Vec{
		p.point(phi, psi-eta/p.minor),
		p.point(phi, psi+eta/p.minor),
	}
	dphi := eta / p.major
	for _, f := range []float64{phi - dphi, phi + dphi} {
		if p.full() || (f >= 0 && f <= p.sweep) {
			pts = append(pts, p.point(f, psi))
		}
	}
	return pts
}

func (p *torusPatch) surface() kernel.Surface {
	return kernel.Surface{
		Kind:        kernel.SurfaceTorus,
		Origin:      p.f.Origin,
		Axis:        p.f.Z,
		Radius:      p.minor,
		MajorRadius: p.major,
	}
}

func (p *torusPatch) coincident(other patch) bool {
	o, ok := other.(*torusPatch)
	if !ok {
		return false
	}
	return r3.Norm(r3.Sub(p.f.Origin, o.f.Origin)) < geomEps &&
		r3.Norm(r3.Cross(p.f.Z, o.f.Z)) < 1e-9 &&
		math.Abs(p.major-o.major) < geomEps &&
		math.Abs(p.minor-o.minor) < geomEps
}

// ---------------------------------------------------------------------------
// Rectangles
// ---------------------------------------------------------------------------

// rectPatch is a planar rectangle corner + s*u + t*v, s in [0,w], t in [0,h].
type rectPatch struct {
	corner, u, v, n r3.Vec
	w, h            float64
}

func (p *rectPatch) kind() kernel.SurfaceKind { return kernel.SurfacePlane }

func (p *rectPatch) foot(q r3.Vec) r3.Vec {
	d := r3.Sub(q, p.corner)
	s := math.Max(0, math.Min(p.w, r3.Dot(d, p.u)))
	t := math.Max(0, math.Min(p.h, r3.Dot(d, p.v)))
	return r3.Add(p.corner, r3.Add(r3.Scale(s, p.u), r3.Scale(t, p.v)))
}

func (p *rectPatch) distance(q r3.Vec) float64 {
	return r3.Norm(r3.Sub(q, p.foot(q)))
}

func (p *rectPatch) normal(r3.Vec) r3.Vec { return p.n }

func (p *rectPatch) samples() []r3.Vec {
	var pts []r3.Vec
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			s := p.w * (float64(i) + 0.5) / 5
			t := p.h * (float64(j) + 0.5) / 5
			pts = append(pts, r3.Add(p.corner, r3.Add(r3.Scale(s, p.u), r3.Scale(t, p.v))))
		}
	}
	return pts
}

func (p *rectPatch) near(q r3.Vec, eta float64) []r3.Vec {
	f := p.foot(q)
	var pts []r3.Vec
	for _, d := range []r3.Vec{p.u, r3.Scale(-1, p.u), p.v, r3.Scale(-1, p.v)} {
		c := r3.Add(f, r3.Scale(eta, d))
		if p.distance(c) < geomEps {
			pts = append(pts, c)
		}
	}
	return pts
}

func (p *rectPatch) surface() kernel.Surface {
	center := r3.Add(p.corner, r3.Add(r3.Scale(p.w/2, p.u), r3.Scale(p.h/2, p.v)))
	return kernel.Surface{
		Kind:   kernel.SurfacePlane,
		Origin: center,
		Axis:   p.n,
		Radius: math.Hypot(p.w, p.h) / 2,
	}
}

func (p *rectPatch) coincident(other patch) bool {
	o, ok := other.(*rectPatch)
	if !ok {
		return false
	}
	return r3.Norm(r3.Cross(p.n, o.n)) < 1e-9 && math.Abs(r3.Dot(p.n, r3.Sub(o.corner, p.corner))) < geomEps
}

// ---------------------------------------------------------------------------
// 2D helpers
// ---------------------------------------------------------------------------

func lerp2(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

func unit2(v r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n == 0 {
		return v
	}
	return r2.Scale(1/n, v)
}

func segmentDistance(q, a, b r2.Vec) float64 {
	d := r2.Sub(b, a)
	l2 := r2.Dot(d, d)
	if l2 == 0 {
		return r2.Norm(r2.Sub(q, a))
	}
	t := math.Max(0, math.Min(1, r2.Dot(r2.Sub(q, a), d)/l2))
	return r2.Norm(r2.Sub(q, lerp2(a, b, t)))
}

func lineDistance(q, a, b r2.Vec) float64 {
	d := unit2(r2.Sub(b, a))
	w := r2.Sub(q, a)
	return math.Abs(d.X*w.Y - d.Y*w.X)
}

// segmentIntersect returns the intersection of segments p1p2 and q1q2.
// Parallel segments never intersect.
func segmentIntersect(p1, p2, q1, q2 r2.Vec) (r2.Vec, bool) {
	r := r2.Sub(p2, p1)
	s := r2.Sub(q2, q1)
	den := r.X*s.Y - r.Y*s.X
	if math.Abs(den) < 1e-12*r2.Norm(r)*r2.Norm(s) {
		return r2.Vec{}, false
	}
	w := r2.Sub(q1, p1)
	t := (w.X*s.Y - w.Y*s.X) / den
	u := (w.X*r.Y - w.Y*r.X) / den
	const slack = 1e-9
	if t < -slack || t > 1+slack || u < -slack || u > 1+slack {
		return r2.Vec{}, false
	}
	return lerp2(p1, p2, t), true
}
