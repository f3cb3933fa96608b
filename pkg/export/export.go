// Package export writes generated bodies as unit-tagged 3MF packages.
//
// The unit is always an explicit argument; nothing here keeps process-wide
// state, so concurrent exports with different units do not interfere.
package export

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/chazu/spool/pkg/kernel"
	"github.com/hpinc/go3mf"
	"gonum.org/v1/gonum/spatial/r3"
)

// Units is the length unit recorded in an exported file.
type Units int

const (
	Inch Units = iota
	Millimeter
)

func (u Units) String() string {
	switch u {
	case Inch:
		return "inch"
	case Millimeter:
		return "millimeter"
	}
	return fmt.Sprintf("Units(%d)", int(u))
}

// PerInch is the number of units in one inch.
func (u Units) PerInch() float64 {
	if u == Millimeter {
		return 25.4
	}
	return 1
}

// ParseUnits accepts "in", "inch", "mm" and "millimeter".
func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "inch", "inches", "":
		return Inch, nil
	case "mm", "millimeter", "millimeters", "millimetre":
		return Millimeter, nil
	}
	return 0, fmt.Errorf("unknown units %q (want inch or millimeter)", s)
}

// MarshalText and UnmarshalText let Units appear in YAML and JSON by name.
func (u Units) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *Units) UnmarshalText(b []byte) error {
	v, err := ParseUnits(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

func (u Units) model() (go3mf.Units, error) {
	switch u {
	case Inch:
		return go3mf.UnitInch, nil
	case Millimeter:
		return go3mf.UnitMillimeter, nil
	}
	return 0, fmt.Errorf("units %d have no 3MF equivalent", int(u))
}

func fromModel(u go3mf.Units) (Units, error) {
	switch u {
	case go3mf.UnitInch:
		return Inch, nil
	case go3mf.UnitMillimeter:
		return Millimeter, nil
	}
	return 0, fmt.Errorf("unsupported 3MF unit %v", u)
}

// Kind classifies an export failure.
type Kind int

const (
	// KindEncode means the mesh could not be expressed as a valid package.
	KindEncode Kind = iota
	// KindIO means the file system rejected the write or read.
	KindIO
)

func (k Kind) String() string {
	if k == KindIO {
		return "io"
	}
	return "encode"
}

// Error is returned by Write and Read.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsIO reports whether err is an export I/O failure.
func IsIO(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindIO
}

// Model builds the 3MF model for m without writing it. Coincident vertices
// are welded and triangles that collapse are dropped.
func Model(m *kernel.Mesh, u Units) (*go3mf.Model, error) {
	if m == nil || m.TriangleCount() == 0 {
		return nil, errors.New("mesh is empty")
	}
	units, err := u.model()
	if err != nil {
		return nil, err
	}
	mesh := &go3mf.Mesh{}
	index := make(map[go3mf.Point3D]uint32, m.VertexCount())
	vertex := func(i uint32) (uint32, error) {
		if int(i) >= m.VertexCount() {
			return 0, fmt.Errorf("index %d out of range", i)
		}
		p := go3mf.Point3D{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
		if math.IsNaN(float64(p[0])) || math.IsNaN(float64(p[1])) || math.IsNaN(float64(p[2])) {
			return 0, fmt.Errorf("vertex %d is not a number", i)
		}
		if j, ok := index[p]; ok {
			return j, nil
		}
		j := uint32(len(mesh.Vertices.Vertex))
		mesh.Vertices.Vertex = append(mesh.Vertices.Vertex, p)
		index[p] = j
		return j, nil
	}
	for t := 0; t < m.TriangleCount(); t++ {
		var v [3]uint32
		for c := 0; c < 3; c++ {
			if v[c], err = vertex(m.Indices[3*t+c]); err != nil {
				return nil, err
			}
		}
		if v[0] == v[1] || v[1] == v[2] || v[0] == v[2] {
			continue
		}
		mesh.Triangles.Triangle = append(mesh.Triangles.Triangle, go3mf.Triangle{V1: v[0], V2: v[1], V3: v[2]})
	}
	if len(mesh.Triangles.Triangle) == 0 {
		return nil, errors.New("mesh has only degenerate triangles")
	}

	model := &go3mf.Model{Units: units}
	model.Resources.Objects = append(model.Resources.Objects, &go3mf.Object{
		ID:   1,
		Name: m.Name,
		Mesh: mesh,
	})
	model.Build.Items = append(model.Build.Items, &go3mf.Item{ObjectID: 1})
	return model, nil
}

// Write exports m to path in units u. The package is written to a
// temporary file first, so a failed export leaves no file at path.
func Write(path string, m *kernel.Mesh, u Units) error {
	model, err := Model(m, u)
	if err != nil {
		return &Error{Kind: KindEncode, Path: path, Err: err}
	}
	tmp := path + ".partial"
	w, err := go3mf.CreateWriter(tmp)
	if err != nil {
		return &Error{Kind: KindIO, Path: path, Err: err}
	}
	if err := w.Encode(model); err != nil {
		w.Close()
		os.Remove(tmp)
		return &Error{Kind: KindEncode, Path: path, Err: err}
	}
	if err := w.Close(); err != nil {
		os.Remove(tmp)
		return &Error{Kind: KindIO, Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &Error{Kind: KindIO, Path: path, Err: err}
	}
	return nil
}

// Info summarises a package read back from disk.
type Info struct {
	Units     Units
	Bounds    r3.Box
	Vertices  int
	Triangles int
}

// Size is the extent of the bounds.
func (i Info) Size() r3.Vec { return r3.Sub(i.Bounds.Max, i.Bounds.Min) }

// Read re-imports a package written by Write.
func Read(path string) (Info, error) {
	r, err := go3mf.OpenReader(path)
	if err != nil {
		return Info{}, &Error{Kind: KindIO, Path: path, Err: err}
	}
	defer r.Close()
	var model go3mf.Model
	if err := r.Decode(&model); err != nil {
		return Info{}, &Error{Kind: KindEncode, Path: path, Err: err}
	}
	u, err := fromModel(model.Units)
	if err != nil {
		return Info{}, &Error{Kind: KindEncode, Path: path, Err: err}
	}

	info := Info{Units: u}
	inf := math.Inf(1)
	info.Bounds = r3.Box{Min: r3.Vec{X: inf, Y: inf, Z: inf}, Max: r3.Vec{X: -inf, Y: -inf, Z: -inf}}
	for _, obj := range model.Resources.Objects {
		if obj.Mesh == nil {
			continue
		}
		info.Triangles += len(obj.Mesh.Triangles.Triangle)
		for _, p := range obj.Mesh.Vertices.Vertex {
			info.Vertices++
			v := r3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
			info.Bounds.Min = r3.Vec{X: math.Min(info.Bounds.Min.X, v.X), Y: math.Min(info.Bounds.Min.Y, v.Y), Z: math.Min(info.Bounds.Min.Z, v.Z)}
			info.Bounds.Max = r3.Vec{X: math.Max(info.Bounds.Max.X, v.X), Y: math.Max(info.Bounds.Max.Y, v.Y), Z: math.Max(info.Bounds.Max.Z, v.Z)}
		}
	}
	if info.Vertices == 0 {
		return Info{}, &Error{Kind: KindEncode, Path: path, Err: errors.New("package contains no mesh")}
	}
	return info, nil
}
