// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// sdfx has no boundary representation of its own, so each solid carries the
// analytic edges and faces of the primitives it was built from. After every
// boolean the kernel keeps only the features that still lie on the zero
// level set of the combined distance field, adds the circles where coaxial
// surfaces of revolution (and tori with their end planes) intersect, and
// merges coincident patches. This is enough topology for circular feature
// recognition on pipe fittings; it is not a general B-rep.
package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/spool/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

const (
	// defaultMeshCells controls marching cubes tessellation resolution.
	defaultMeshCells = 200

	// defaultBoundaryTol is how close to zero the distance field must be for
	// a point to count as lying on the boundary.
	defaultBoundaryTol = 1e-6

	// geomEps is the tolerance for comparing analytic parameters.
	geomEps = 1e-7

	// sideStep is the offset along a face normal used to decide on which
	// side of the face the material is.
	sideStep = 1e-4

	// nearStep is the distance from an edge at which a face is sampled to
	// decide whether the face actually meets the edge.
	nearStep = 1e-3

	azimuthSamples = 12

	// meridianSamples is the even grid along a surface of revolution's
	// meridian used when deciding whether it survives a boolean.
	meridianSamples = 32
)

// sdfxSolid wraps an sdf.SDF3 together with the features that bound it.
type sdfxSolid struct {
	s     sdf.SDF3
	edges []*edge
	faces []*face
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() r3.Box {
	bb := s.s.BoundingBox()
	return r3.Box{Min: fromV3(bb.Min), Max: fromV3(bb.Max)}
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution along the longest axis.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		if n > 0 {
			k.meshCells = n
		}
	}
}

// WithBoundaryTol sets the zero level set tolerance used by feature tracking.
func WithBoundaryTol(tol float64) Option {
	return func(k *SdfxKernel) {
		if tol > 0 {
			k.boundaryTol = tol
		}
	}
}

// SdfxKernel implements kernel.Kernel using sdfx. A kernel value is a single
// modeling session and must not be shared between goroutines.
type SdfxKernel struct {
	meshCells   int
	boundaryTol float64
	lastErr     error
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{meshCells: defaultMeshCells, boundaryTol: defaultBoundaryTol}
	for _, o := range opts {
		o(k)
	}
	return k
}

// Factory returns a kernel.Factory producing kernels with the given options.
func Factory(opts ...Option) kernel.Factory {
	return func() kernel.Kernel { return New(opts...) }
}

// LastError returns the reason the most recent operation reported failure,
// or nil.
func (k *SdfxKernel) LastError() error {
	return k.lastErr
}

func (k *SdfxKernel) fail(err error) {
	k.lastErr = err
}

// unwrap extracts the underlying solid from a kernel.Solid.
func unwrap(s kernel.Solid) *sdfxSolid {
	return s.(*sdfxSolid)
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Box creates an axis-aligned box with its minimum corner at origin.
func (k *SdfxKernel) Box(origin, size r3.Vec) (kernel.Solid, error) {
	s, err := sdf.Box3D(toV3(size), 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Box3D: %w", err)
	}
	// sdf.Box3D centers the box at the origin.
	m := sdf.Translate3d(toV3(r3.Add(origin, r3.Scale(0.5, size))))
	out := &sdfxSolid{s: sdf.Transform3D(s, m)}
	out.faces, out.edges = boxFeatures(origin, size)
	number(out)
	return out, nil
}

// Cylinder creates a solid cylinder of the given radius starting at the
// frame origin and extending height along the frame's Z axis.
func (k *SdfxKernel) Cylinder(f kernel.Frame, radius, height float64) (kernel.Solid, error) {
	if radius <= 0 || height <= 0 {
		return nil, fmt.Errorf("cylinder: radius %g and height %g must be positive", radius, height)
	}
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Cylinder3D: %w", err)
	}
	// sdf.Cylinder3D is centered on the origin along Z.
	m := frameMatrix(f).Mul(sdf.Translate3d(v3.Vec{Z: height / 2}))
	out := &sdfxSolid{s: sdf.Transform3D(s, m)}
	out.faces, out.edges = revolutionFeatures(f, []r2.Vec{{X: 0, Y: 0}, {X: radius, Y: 0}, {X: radius, Y: height}, {X: 0, Y: height}})
	number(out)
	return out, nil
}

// Torus creates a solid torus segment about the frame's Z axis. The tube of
// radius minor is centered on a circle of radius major in the frame's XY
// plane and swept from the X axis through sweep radians. A sweep of 2*pi or
// more gives a closed ring.
func (k *SdfxKernel) Torus(f kernel.Frame, major, minor, sweep float64) (kernel.Solid, error) {
	if minor <= 0 || major <= minor {
		return nil, fmt.Errorf("torus: need 0 < minor (%g) < major (%g)", minor, major)
	}
	if sweep <= 0 {
		return nil, fmt.Errorf("torus: sweep %g must be positive", sweep)
	}
	circle, err := sdf.Circle2D(minor)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Circle2D: %w", err)
	}
	section := sdf.Transform2D(circle, sdf.Translate2d(v2.Vec{X: major, Y: 0}))

	tube := &torusPatch{f: f, major: major, minor: minor, sweep: math.Min(sweep, 2*math.Pi)}
	var s sdf.SDF3
	if tube.full() {
		s, err = sdf.Revolve3D(section)
	} else {
		s, err = sdf.RevolveTheta3D(section, sweep)
	}
	if err != nil {
		return nil, fmt.Errorf("sdfx revolve: %w", err)
	}
	out := &sdfxSolid{s: sdf.Transform3D(s, frameMatrix(f))}
	out.faces = []*face{{p: tube}}
	if !tube.full() {
		for _, phi := range []float64{0, tube.sweep} {
			c := tube.tubeCenter(phi)
			radial := r3.Unit(r3.Sub(c, f.Origin))
			n := r3.Cross(f.Z, radial)
			if phi == 0 {
				n = r3.Scale(-1, n)
			}
			cf := kernel.NewFrameX(c, n, radial)
			out.faces = append(out.faces, &face{p: &revPatch{f: cf, a: r2.Vec{X: minor}, b: r2.Vec{}}})
			out.edges = append(out.edges, &edge{curve: circleCurve(c, n, minor)})
		}
	}
	number(out)
	return out, nil
}

// Revolve sweeps a closed (rho, z) profile a full turn about the frame's
// Z axis. Profile points must have rho >= 0.
func (k *SdfxKernel) Revolve(f kernel.Frame, profile []r2.Vec) (kernel.Solid, error) {
	if len(profile) < 3 {
		return nil, errors.New("revolve: profile needs at least 3 points")
	}
	for _, p := range profile {
		if p.X < -geomEps {
			return nil, fmt.Errorf("revolve: profile point %v crosses the axis", p)
		}
	}
	area := signedArea(profile)
	if math.Abs(area) < geomEps {
		return nil, errors.New("revolve: profile encloses no area")
	}
	pts := append([]r2.Vec(nil), profile...)
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	verts := make([]v2.Vec, len(pts))
	for i, p := range pts {
		verts[i] = v2.Vec{X: math.Max(p.X, 0), Y: p.Y}
	}
	poly, err := sdf.Polygon2D(verts)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Polygon2D: %w", err)
	}
	s, err := sdf.Revolve3D(poly)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Revolve3D: %w", err)
	}
	out := &sdfxSolid{s: sdf.Transform3D(s, frameMatrix(f))}
	out.faces, out.edges = revolutionFeatures(f, pts)
	number(out)
	return out, nil
}

// ---------------------------------------------------------------------------
// Mesh output
// ---------------------------------------------------------------------------

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s).s

	renderer := render.NewMarchingCubesUniform(k.meshCells)
	triangles := render.ToTriangles(sdf3, renderer)
	if len(triangles) == 0 {
		return nil, errors.New("tessellation produced no triangles")
	}

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

func toV3(v r3.Vec) v3.Vec   { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }
func fromV3(v v3.Vec) r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// frameMatrix maps frame-local coordinates to world coordinates.
func frameMatrix(f kernel.Frame) sdf.M44 {
	a, b, g := f.Euler()
	return sdf.Translate3d(toV3(f.Origin)).
		Mul(sdf.RotateZ(a)).
		Mul(sdf.RotateY(b)).
		Mul(sdf.RotateZ(g))
}

func signedArea(pts []r2.Vec) float64 {
	var a float64
	for i := range pts {
		p, q := pts[i], pts[(i+1)%len(pts)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}
