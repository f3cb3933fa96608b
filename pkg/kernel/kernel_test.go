package kernel

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshBoundsAndScale(t *testing.T) {
	m := &Mesh{Vertices: []float32{0, -1, 2, 4, 3, -2, 1, 1, 1}}
	b := m.Bounds()
	if b.Min != (r3.Vec{X: 0, Y: -1, Z: -2}) || b.Max != (r3.Vec{X: 4, Y: 3, Z: 2}) {
		t.Fatalf("Bounds() = %v", b)
	}
	m.Scale(25.4)
	if got := m.Bounds().Max.X; math.Abs(got-101.6) > 1e-4 {
		t.Errorf("scaled max X = %f, want 101.6", got)
	}
	if (&Mesh{}).Bounds() != (r3.Box{}) {
		t.Error("empty mesh should have a zero box")
	}
}

// --- Frame tests ---

func TestMeshTranslateAndMerge(t *testing.T) {
	a := &Mesh{Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Indices: []uint32{0, 1, 2}}
	b := &Mesh{Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Indices: []uint32{0, 1, 2}}
	b.Translate(r3.Vec{X: 5, Y: 0, Z: 2})
	if got := b.Bounds(); got.Min.X != 5 || got.Max.Z != 2 {
		t.Errorf("translated bounds = %+v", got)
	}

	m := Merge("both", a, b)
	if m.Name != "both" || m.VertexCount() != 6 || m.TriangleCount() != 2 {
		t.Fatalf("merged: name=%q vertices=%d triangles=%d", m.Name, m.VertexCount(), m.TriangleCount())
	}
	if m.Indices[3] != 3 || m.Indices[5] != 5 {
		t.Errorf("second mesh indices not offset: %v", m.Indices)
	}
	if a.Indices[0] != 0 || len(a.Vertices) != 9 {
		t.Error("Merge modified its input")
	}
}

func TestFrameIsOrthonormal(t *testing.T) {
	axes := []r3.Vec{
		{Z: 1}, {Z: -1}, {X: 1}, {Y: 1}, {X: 1, Y: 1, Z: 1}, {X: -0.3, Y: 0.2, Z: 0.9},
	}
	for _, z := range axes {
		f := NewFrame(r3.Vec{X: 1, Y: 2, Z: 3}, z)
		if d := r3.Dot(f.X, f.Z); math.Abs(d) > 1e-12 {
			t.Errorf("axis %v: X.Z = %g", z, d)
		}
		if n := r3.Norm(f.Y()); math.Abs(n-1) > 1e-12 {
			t.Errorf("axis %v: |Y| = %g", z, n)
		}
	}
}

func TestFramePointLocalRoundTrip(t *testing.T) {
	f := NewFrameX(r3.Vec{X: 5}, r3.Vec{Y: 1}, r3.Vec{X: 1})
	p := f.Point(1, 2, 3)
	l := f.Local(p)
	if r3.Norm(r3.Sub(l, r3.Vec{X: 1, Y: 2, Z: 3})) > 1e-12 {
		t.Errorf("Local(Point(1,2,3)) = %v", l)
	}
}

func TestFrameEulerReproducesAxes(t *testing.T) {
	frames := []Frame{
		WorldFrame,
		NewFrameX(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}),
		NewFrameX(r3.Vec{}, r3.Vec{Y: -1}, r3.Vec{Z: 1}),
		NewFrameX(r3.Vec{}, r3.Vec{Z: -1}, r3.Vec{X: 1}),
		NewFrame(r3.Vec{}, r3.Vec{X: 0.2, Y: -0.5, Z: 0.7}),
	}
	for i, f := range frames {
		a, b, g := f.Euler()
		x := rotateZ(rotateY(rotateZ(r3.Vec{X: 1}, g), b), a)
		z := rotateZ(rotateY(rotateZ(r3.Vec{Z: 1}, g), b), a)
		if r3.Norm(r3.Sub(x, f.X)) > 1e-9 || r3.Norm(r3.Sub(z, f.Z)) > 1e-9 {
			t.Errorf("frame %d: euler axes x=%v z=%v, want x=%v z=%v", i, x, z, f.X, f.Z)
		}
	}
}

func TestFrameRotated(t *testing.T) {
	f := WorldFrame.Rotated(math.Pi / 2)
	if r3.Norm(r3.Sub(f.X, r3.Vec{Y: 1})) > 1e-12 {
		t.Errorf("Rotated(90deg).X = %v, want +Y", f.X)
	}
}

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	box r3.Box
}

func (s *stubSolid) BoundingBox() r3.Box { return s.box }

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable. All methods return trivial results.
type stubKernel struct{}

func (k *stubKernel) Box(origin, size r3.Vec) (Solid, error) {
	return &stubSolid{box: r3.Box{Min: origin, Max: r3.Add(origin, size)}}, nil
}

func (k *stubKernel) Cylinder(f Frame, radius, height float64) (Solid, error) {
	return &stubSolid{}, nil
}

func (k *stubKernel) Torus(f Frame, major, minor, sweep float64) (Solid, error) {
	return &stubSolid{}, nil
}

func (k *stubKernel) Revolve(f Frame, profile []r2.Vec) (Solid, error) {
	return &stubSolid{}, nil
}

func (k *stubKernel) Union(a, _ Solid) (Solid, bool)      { return a, true }
func (k *stubKernel) Difference(a, _ Solid) (Solid, bool) { return a, true }

func (k *stubKernel) Edges(Solid) []Edge                        { return nil }
func (k *stubKernel) Faces(Solid) []Face                        { return nil }
func (k *stubKernel) AdjacentFaces(Solid, Edge, float64) []Face { return nil }
func (k *stubKernel) Contains(Solid, r3.Vec) bool               { return false }

func (k *stubKernel) Chamfer(s Solid, _ []ChamferRequest) (Solid, bool) { return s, true }

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

// Compile-time checks that the stubs implement the interfaces.
var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s, err := k.Box(r3.Vec{}, r3.Vec{X: 10, Y: 20, Z: 30})
	if err != nil {
		t.Fatal(err)
	}
	b := s.BoundingBox()
	if b.Max != (r3.Vec{X: 10, Y: 20, Z: 30}) {
		t.Errorf("Box max = %v, want [10 20 30]", b.Max)
	}
}

func TestKindStrings(t *testing.T) {
	if SurfaceTorus.String() != "torus" || CurveCircle.String() != "circle" {
		t.Error("unexpected kind strings")
	}
	if !(Surface{Kind: SurfaceCylinder}).Curved() || (Surface{Kind: SurfaceCone}).Curved() {
		t.Error("Curved() should hold for cylinders and tori only")
	}
}
