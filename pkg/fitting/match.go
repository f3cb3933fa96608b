package fitting

import (
	"math"

	"github.com/chazu/spool/pkg/kernel"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tolerance holds the absolute matching tolerances used when recognising
// end edges on an assembled body.
type Tolerance struct {
	// Radius bounds |circle radius - expected outer radius|.
	Radius float64 `yaml:"radius"`
	// Position bounds the locator deviation of a circle center. It is looser
	// than Radius because centers drift through successive booleans.
	Position float64 `yaml:"position"`
}

// DefaultTolerance is tuned for inch models.
var DefaultTolerance = Tolerance{Radius: 0.01, Position: 0.1}

// Scale returns the tolerance in other units.
func (t Tolerance) Scale(f float64) Tolerance {
	return Tolerance{Radius: t.Radius * f, Position: t.Position * f}
}

// RadiusMatches reports whether got is within the radius tolerance of want.
func (t Tolerance) RadiusMatches(got, want float64) bool {
	return scalar.EqualWithinAbs(got, want, t.Radius)
}

// PositionMatches reports whether center sits where the locator expects.
func (t Tolerance) PositionMatches(l Locator, center r3.Vec) bool {
	return scalar.EqualWithinAbs(l.Deviation(center), 0, t.Position)
}

// EdgeMatches reports whether a circle is the outer end edge of e.
func (t Tolerance) EdgeMatches(e End, c kernel.Curve) bool {
	return c.Kind == kernel.CurveCircle &&
		t.RadiusMatches(c.Radius, e.OuterRadius) &&
		t.PositionMatches(e.Locator, c.Center)
}

// FaceMatches reports whether a face is the outer curved surface of e.
// Reversed faces are bores and never match.
func (t Tolerance) FaceMatches(e End, s kernel.Surface) bool {
	return s.Curved() && !s.Reversed && t.RadiusMatches(s.Radius, e.OuterRadius)
}

// Locator measures how far a circle center is from an end's expected
// position.
type Locator interface {
	Deviation(center r3.Vec) float64
}

// AxialLocator places an end at a coordinate along an axis through Origin.
type AxialLocator struct {
	Origin   r3.Vec
	Axis     r3.Vec
	Position float64
}

// Deviation is the distance along the axis from the expected position.
func (l AxialLocator) Deviation(center r3.Vec) float64 {
	return math.Abs(r3.Dot(r3.Sub(center, l.Origin), r3.Unit(l.Axis)) - l.Position)
}

// SweepLocator places an elbow end at a radial distance from the sweep
// origin and an arc angle from Ref about Axis.
type SweepLocator struct {
	Origin r3.Vec
	Axis   r3.Vec
	Ref    r3.Vec
	Radius float64
	Angle  float64 // radians
}

// Deviation combines the radial error with the arc length between the
// expected and actual angles.
func (l SweepLocator) Deviation(center r3.Vec) float64 {
	axis := r3.Unit(l.Axis)
	d := r3.Sub(center, l.Origin)
	inPlane := r3.Sub(d, r3.Scale(r3.Dot(d, axis), axis))
	rho := r3.Norm(inPlane)
	radial := math.Abs(rho - l.Radius)
	if rho < 1e-12 {
		return radial
	}
	ref := r3.Unit(l.Ref)
	ang := math.Atan2(r3.Dot(r3.Cross(ref, inPlane), axis), r3.Dot(ref, inPlane))
	diff := math.Abs(math.Remainder(ang-l.Angle, 2*math.Pi))
	return math.Max(radial, l.Radius*diff)
}
