package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is a triangle mesh suitable for export or preview.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // fitting the mesh was generated for
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) r3.Vec {
	return r3.Vec{
		X: float64(m.Vertices[3*i]),
		Y: float64(m.Vertices[3*i+1]),
		Z: float64(m.Vertices[3*i+2]),
	}
}

// Bounds returns the axis-aligned bounds of the vertices. An empty mesh
// has a zero box.
func (m *Mesh) Bounds() r3.Box {
	if m.IsEmpty() {
		return r3.Box{}
	}
	inf := math.Inf(1)
	b := r3.Box{Min: r3.Vec{X: inf, Y: inf, Z: inf}, Max: r3.Vec{X: -inf, Y: -inf, Z: -inf}}
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		b.Min = r3.Vec{X: math.Min(b.Min.X, v.X), Y: math.Min(b.Min.Y, v.Y), Z: math.Min(b.Min.Z, v.Z)}
		b.Max = r3.Vec{X: math.Max(b.Max.X, v.X), Y: math.Max(b.Max.Y, v.Y), Z: math.Max(b.Max.Z, v.Z)}
	}
	return b
}

// Scale multiplies every vertex coordinate by f in place.
func (m *Mesh) Scale(f float64) {
	for i := range m.Vertices {
		m.Vertices[i] = float32(float64(m.Vertices[i]) * f)
	}
}

// Translate offsets every vertex by v in place.
func (m *Mesh) Translate(v r3.Vec) {
	for i := 0; i < len(m.Vertices); i += 3 {
		m.Vertices[i] += float32(v.X)
		m.Vertices[i+1] += float32(v.Y)
		m.Vertices[i+2] += float32(v.Z)
	}
}

// Merge concatenates meshes into one named name. Inputs are not modified.
func Merge(name string, meshes ...*Mesh) *Mesh {
	out := &Mesh{Name: name}
	for _, m := range meshes {
		base := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, m.Vertices...)
		out.Normals = append(out.Normals, m.Normals...)
		for _, i := range m.Indices {
			out.Indices = append(out.Indices, base+i)
		}
	}
	return out
}
