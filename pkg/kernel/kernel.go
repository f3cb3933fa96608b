// Package kernel defines the abstract boundary-representation geometry
// kernel used by the fitting generators. Implementations (sdfx) provide
// primitive construction, boolean operations, boundary topology queries and
// chamfering behind this interface so that the feature-recognition code
// never depends on a particular modeling backend.
package kernel

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Solid is an opaque handle to a kernel solid. Bodies are never mutated:
// every boolean or chamfer step returns a new Solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() r3.Box
}

// CurveKind classifies the geometry underlying an edge.
type CurveKind int

const (
	CurveLine CurveKind = iota
	CurveCircle
)

func (k CurveKind) String() string {
	switch k {
	case CurveLine:
		return "line"
	case CurveCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// Curve describes the geometry of an edge. Circle edges use Center, Normal
// and Radius; line edges use Start and End.
type Curve struct {
	Kind   CurveKind
	Center r3.Vec
	Normal r3.Vec
	Radius float64
	Start  r3.Vec
	End    r3.Vec
}

// SurfaceKind classifies the geometry underlying a face.
type SurfaceKind int

const (
	SurfacePlane SurfaceKind = iota
	SurfaceCylinder
	SurfaceCone
	SurfaceTorus
)

func (k SurfaceKind) String() string {
	switch k {
	case SurfacePlane:
		return "plane"
	case SurfaceCylinder:
		return "cylinder"
	case SurfaceCone:
		return "cone"
	case SurfaceTorus:
		return "torus"
	default:
		return "unknown"
	}
}

// Surface describes the geometry of a face.
//
// For planes Axis is the outward normal and Origin a point on the plane.
// For cylinders, cones and tori Axis is the axis of revolution through
// Origin. Radius is the characteristic radius: the cylinder radius, the
// larger cone radius, or the torus tube (minor) radius. Reversed is true
// when the material lies on the convex side of the surface, as for bores
// cut by a difference.
type Surface struct {
	Kind        SurfaceKind
	Origin      r3.Vec
	Axis        r3.Vec
	Radius      float64
	MajorRadius float64
	Reversed    bool
}

// Curved reports whether the surface is cylindrical or toroidal.
func (s Surface) Curved() bool {
	return s.Kind == SurfaceCylinder || s.Kind == SurfaceTorus
}

// Edge is a boundary edge handle. IDs are stable for a given Solid.
type Edge interface {
	ID() int
	Curve() Curve
}

// Face is a boundary face handle. IDs are stable for a given Solid.
type Face interface {
	ID() int
	Surface() Surface
}

// ChamferRequest is one bevel in a batched chamfer.
//
// Distance is the chamfer leg measured across the face that meets Face at
// Edge (the end face of a pipe). Angle, in radians, is measured from that
// end face; the bevel meets Face at Distance*tan(Angle) from Edge.
type ChamferRequest struct {
	Edge     Edge
	Face     Face
	Distance float64
	Angle    float64
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives. Errors report invalid parameters only.
	Box(origin, size r3.Vec) (Solid, error)
	Cylinder(f Frame, radius, height float64) (Solid, error)
	Torus(f Frame, major, minor, sweep float64) (Solid, error)
	Revolve(f Frame, profile []r2.Vec) (Solid, error)

	// Boolean operations. The flag reports completion; a false flag means
	// the returned Solid must not be trusted.
	Union(a, b Solid) (Solid, bool)
	Difference(a, b Solid) (Solid, bool)

	// Boundary topology.
	Edges(s Solid) []Edge
	Faces(s Solid) []Face
	AdjacentFaces(s Solid, e Edge, tol float64) []Face

	// Contains reports whether p lies strictly inside s.
	Contains(s Solid, p r3.Vec) bool

	// Chamfer applies all requests at once.
	Chamfer(s Solid, reqs []ChamferRequest) (Solid, bool)

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Factory creates an independent kernel session.
type Factory func() Kernel
