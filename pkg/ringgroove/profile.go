// Package ringgroove computes and builds ring-type-joint weld neck flanges.
//
// The flange is described by one closed profile in the (radial, axial)
// half-plane, traversed counter-clockwise from the outside diameter at the
// back of the plate. Axial positions are measured from the back of the
// plate: the bolt-seating face sits at T-Q, the raised face at T, and the
// hub extends below zero to the weld end.
package ringgroove

import (
	"fmt"
	"math"

	"github.com/chazu/spool/pkg/bevel"
	"github.com/chazu/spool/pkg/dims"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// GrooveAngle is the ring groove wall angle from the flange axis, in
	// degrees.
	GrooveAngle = 23.0
	// MinNeck is the shortest straight neck left above the weld bevel.
	MinNeck = 0.0625

	eps = 1e-9
)

// ProfileError reports flange parameters that do not describe a valid
// profile.
type ProfileError struct {
	Field  string
	Reason string
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("ring groove profile: %s: %s", e.Field, e.Reason)
}

// Params are the flange dimensions in model units. Diameters are full
// diameters.
type Params struct {
	O          float64 // flange outside diameter
	T          float64 // back of plate to raised face
	Q          float64 // groove depth below the raised face
	K          float64 // groove outer diameter at the face
	J2         float64 // groove inner diameter at the face
	RaisedFace float64 // raised face diameter
	X          float64 // hub diameter at the back of the plate
	Y          float64 // length through hub
	A          float64 // hub diameter at the weld end
	B          float64 // bore
	Land       float64 // weld bevel root face
	BevelAngle float64 // degrees from the end plane; 0 for a square hub end
	NeckLength float64 // straight hub length above the weld end
}

// FromFlange derives profile parameters from a table row, the mating pipe,
// and the hub end bevel. The neck defaults to a quarter of the hub length,
// lengthened if the bevel needs more.
func FromFlange(f dims.Flange, pipe dims.Pipe, s bevel.Spec) Params {
	p := Params{
		O:          f.O,
		T:          f.T,
		Q:          f.E,
		K:          f.GrooveOD(),
		J2:         f.GrooveID(),
		RaisedFace: f.K,
		X:          f.X,
		Y:          f.Y,
		A:          pipe.OD,
		B:          pipe.ID(),
		Land:       s.Land,
		BevelAngle: s.Angle,
	}
	p.NeckLength = math.Max((p.Y-p.T)/4, p.bevelHeight()+MinNeck)
	return p
}

// Wall is the hub wall at the weld end.
func (p Params) Wall() float64 { return (p.A - p.B) / 2 }

// BevelDepth is the radial depth of the hub weld bevel.
func (p Params) BevelDepth() float64 {
	d, _ := bevel.Depth(p.Wall(), p.BevelAngle, p.Land)
	return d
}

func (p Params) bevelHeight() float64 {
	return bevel.Setback(p.BevelDepth(), p.BevelAngle)
}

// grooveInset is how far each groove wall moves toward the groove center
// between the face and the bottom.
func (p Params) grooveInset() float64 {
	return p.Q * math.Tan(GrooveAngle*math.Pi/180)
}

// Validate checks that the parameters describe one simple profile.
func (p Params) Validate() error {
	check := []struct {
		ok     bool
		field  string
		reason string
	}{
		{p.B > 0, "B", "bore must be positive"},
		{p.A > p.B, "A", fmt.Sprintf("hub end %g must exceed bore %g", p.A, p.B)},
		{p.X >= p.A, "X", fmt.Sprintf("hub base %g smaller than weld end %g", p.X, p.A)},
		{p.O > p.X, "O", fmt.Sprintf("outside diameter %g must exceed hub %g", p.O, p.X)},
		{p.O > p.RaisedFace, "RaisedFace", fmt.Sprintf("raised face %g must be inside O %g", p.RaisedFace, p.O)},
		{p.Q > 0, "Q", "groove depth must be positive"},
		{p.Q < p.T, "Q", fmt.Sprintf("groove depth %g must be less than T %g", p.Q, p.T)},
		{p.J2 < p.K, "J2", fmt.Sprintf("groove ID %g must be less than groove OD %g", p.J2, p.K)},
		{p.K < p.RaisedFace, "K", fmt.Sprintf("groove OD %g must be inside raised face %g", p.K, p.RaisedFace)},
		{p.J2 > p.B, "J2", fmt.Sprintf("groove ID %g must clear bore %g", p.J2, p.B)},
		{(p.K-p.J2)/2-2*p.grooveInset() > eps, "Q", "groove walls meet above the bottom"},
		{p.Y > p.T, "Y", fmt.Sprintf("length through hub %g must exceed T %g", p.Y, p.T)},
		{p.Land >= 0, "Land", "land is negative"},
		{p.BevelAngle >= 0 && p.BevelAngle <= bevel.MaxAngle, "BevelAngle", fmt.Sprintf("angle %g outside [0, %g]", p.BevelAngle, bevel.MaxAngle)},
		{p.BevelAngle == 0 || p.Land < p.Wall(), "Land", fmt.Sprintf("land %g exceeds hub wall %g", p.Land, p.Wall())},
		{p.NeckLength > 0 && p.NeckLength < p.Y-p.T, "NeckLength", fmt.Sprintf("neck %g must be inside the hub length %g", p.NeckLength, p.Y-p.T)},
		{p.NeckLength >= p.bevelHeight()+eps, "NeckLength", fmt.Sprintf("neck %g shorter than the bevel %g", p.NeckLength, p.bevelHeight())},
	}
	for _, c := range check {
		if !c.ok {
			return &ProfileError{Field: c.field, Reason: c.reason}
		}
	}
	return nil
}

// Profile is a validated flange profile.
type Profile struct {
	Params
	// Vertices trace the closed profile counter-clockwise.
	Vertices []r2.Vec

	BoltFaceZ     float64
	GrooveBottomZ float64
	HubZ          float64
	NeckZ         float64
}

// NewProfile validates p and computes its vertex list.
func NewProfile(p Params) (*Profile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	// One level, shared by the bolt face and the groove bottom.
	bolt := p.T - p.Q
	hub := p.T - p.Y
	neck := hub + p.NeckLength
	in := p.grooveInset()

	v := []r2.Vec{
		{X: p.O / 2, Y: 0},
		{X: p.O / 2, Y: bolt},
		{X: p.RaisedFace / 2, Y: bolt},
		{X: p.RaisedFace / 2, Y: p.T},
		{X: p.K / 2, Y: p.T},
		{X: p.K/2 - in, Y: bolt},
		{X: p.J2/2 + in, Y: bolt},
		{X: p.J2 / 2, Y: p.T},
		{X: p.B / 2, Y: p.T},
		{X: p.B / 2, Y: hub},
	}
	if p.BevelAngle > 0 {
		if p.Land > eps {
			v = append(v, r2.Vec{X: p.B/2 + p.Land, Y: hub})
		}
		v = append(v, r2.Vec{X: p.A / 2, Y: hub + p.bevelHeight()})
	} else {
		v = append(v, r2.Vec{X: p.A / 2, Y: hub})
	}
	if p.X-p.A > eps {
		v = append(v, r2.Vec{X: p.A / 2, Y: neck})
	}
	v = append(v, r2.Vec{X: p.X / 2, Y: 0})

	pr := &Profile{
		Params:        p,
		Vertices:      v,
		BoltFaceZ:     bolt,
		GrooveBottomZ: bolt,
		HubZ:          hub,
		NeckZ:         neck,
	}
	if !pr.Simple() {
		return nil, &ProfileError{Field: "profile", Reason: "self-intersecting"}
	}
	return pr, nil
}

// Area is the signed area of the profile; positive when counter-clockwise.
func (p *Profile) Area() float64 {
	var a float64
	v := p.Vertices
	for i := range v {
		j := (i + 1) % len(v)
		a += v[i].X*v[j].Y - v[j].X*v[i].Y
	}
	return a / 2
}

// Simple reports whether no two non-adjacent edges of the profile touch.
func (p *Profile) Simple() bool {
	v := p.Vertices
	n := len(v)
	for i := 0; i < n; i++ {
		a0, a1 := v[i], v[(i+1)%n]
		if r2.Norm(r2.Sub(a1, a0)) < eps {
			return false
		}
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsTouch(a0, a1, v[j], v[(j+1)%n]) {
				return false
			}
		}
	}
	return true
}

// GrooveWidth returns the radial groove width at the face and at the bottom.
func (p *Profile) GrooveWidth() (top, bottom float64) {
	top = (p.K - p.J2) / 2
	return top, top - 2*p.grooveInset()
}

func cross(a, b r2.Vec) float64 { return a.X*b.Y - a.Y*b.X }

func onSegment(p, a, b r2.Vec) bool {
	return math.Min(a.X, b.X)-eps <= p.X && p.X <= math.Max(a.X, b.X)+eps &&
		math.Min(a.Y, b.Y)-eps <= p.Y && p.Y <= math.Max(a.Y, b.Y)+eps
}

func segmentsTouch(a, b, c, d r2.Vec) bool {
	d1 := cross(r2.Sub(b, a), r2.Sub(c, a))
	d2 := cross(r2.Sub(b, a), r2.Sub(d, a))
	d3 := cross(r2.Sub(d, c), r2.Sub(a, c))
	d4 := cross(r2.Sub(d, c), r2.Sub(b, c))
	if ((d1 > eps && d2 < -eps) || (d1 < -eps && d2 > eps)) &&
		((d3 > eps && d4 < -eps) || (d3 < -eps && d4 > eps)) {
		return true
	}
	switch {
	case math.Abs(d1) <= eps && onSegment(c, a, b):
		return true
	case math.Abs(d2) <= eps && onSegment(d, a, b):
		return true
	case math.Abs(d3) <= eps && onSegment(a, c, d):
		return true
	case math.Abs(d4) <= eps && onSegment(b, c, d):
		return true
	}
	return false
}
