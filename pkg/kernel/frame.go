package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Frame is a right-handed orthonormal placement. Primitives are built
// along the frame's Z axis starting at Origin; angular sweeps start at X.
type Frame struct {
	Origin r3.Vec
	X      r3.Vec
	Z      r3.Vec
}

// NewFrame returns a frame at origin with the given Z axis and an X axis
// chosen perpendicular to it.
func NewFrame(origin, z r3.Vec) Frame {
	z = r3.Unit(z)
	return Frame{Origin: origin, X: Perpendicular(z), Z: z}
}

// NewFrameX returns a frame with explicit Z and X axes. X is
// re-orthogonalised against Z.
func NewFrameX(origin, z, x r3.Vec) Frame {
	z = r3.Unit(z)
	x = r3.Sub(x, r3.Scale(r3.Dot(x, z), z))
	if r3.Norm(x) < 1e-12 {
		x = Perpendicular(z)
	}
	return Frame{Origin: origin, X: r3.Unit(x), Z: z}
}

// WorldFrame is the identity placement.
var WorldFrame = Frame{X: r3.Vec{X: 1}, Z: r3.Vec{Z: 1}}

// Y returns the frame's Y axis.
func (f Frame) Y() r3.Vec {
	return r3.Cross(f.Z, f.X)
}

// Point maps local coordinates to world coordinates.
func (f Frame) Point(x, y, z float64) r3.Vec {
	p := f.Origin
	p = r3.Add(p, r3.Scale(x, f.X))
	p = r3.Add(p, r3.Scale(y, f.Y()))
	p = r3.Add(p, r3.Scale(z, f.Z))
	return p
}

// Local maps a world point to local coordinates.
func (f Frame) Local(p r3.Vec) r3.Vec {
	d := r3.Sub(p, f.Origin)
	return r3.Vec{X: r3.Dot(d, f.X), Y: r3.Dot(d, f.Y()), Z: r3.Dot(d, f.Z)}
}

// Offset returns the frame translated by d along its own Z axis.
func (f Frame) Offset(d float64) Frame {
	f.Origin = r3.Add(f.Origin, r3.Scale(d, f.Z))
	return f
}

// Rotated returns the frame rotated by angle (radians) about its Z axis.
func (f Frame) Rotated(angle float64) Frame {
	c, s := math.Cos(angle), math.Sin(angle)
	f.X = r3.Add(r3.Scale(c, f.X), r3.Scale(s, f.Y()))
	return f
}

// Euler returns ZYZ Euler angles (alpha, beta, gamma) such that
// Rz(alpha)*Ry(beta)*Rz(gamma) maps the world axes onto the frame axes.
func (f Frame) Euler() (alpha, beta, gamma float64) {
	z := f.Z
	beta = math.Acos(clamp(z.Z, -1, 1))
	if math.Abs(math.Sin(beta)) > 1e-12 {
		alpha = math.Atan2(z.Y, z.X)
	}
	// Undo the first two rotations on X to recover gamma.
	x := rotateZ(f.X, -alpha)
	x = rotateY(x, -beta)
	gamma = math.Atan2(x.Y, x.X)
	return alpha, beta, gamma
}

// Perpendicular returns a unit vector perpendicular to v.
func Perpendicular(v r3.Vec) r3.Vec {
	v = r3.Unit(v)
	ref := r3.Vec{X: 1}
	if math.Abs(v.X) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	return r3.Unit(r3.Cross(ref, v))
}

func rotateZ(v r3.Vec, a float64) r3.Vec {
	c, s := math.Cos(a), math.Sin(a)
	return r3.Vec{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y, Z: v.Z}
}

func rotateY(v r3.Vec, a float64) r3.Vec {
	c, s := math.Cos(a), math.Sin(a)
	return r3.Vec{X: c*v.X + s*v.Z, Y: v.Y, Z: -s*v.X + c*v.Z}
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
