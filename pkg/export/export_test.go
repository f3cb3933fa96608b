package export

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/spool/pkg/kernel"
)

// cube returns a unit cube scaled by s with unshared vertices, as the
// marching cubes tessellator emits them.
func cube(s float32) *kernel.Mesh {
	corners := [8][3]float32{
		{0, 0, 0}, {s, 0, 0}, {s, s, 0}, {0, s, 0},
		{0, 0, s}, {s, 0, s}, {s, s, s}, {0, s, s},
	}
	faces := [][3]int{
		{0, 2, 1}, {0, 3, 2}, {4, 5, 6}, {4, 6, 7},
		{0, 1, 5}, {0, 5, 4}, {1, 2, 6}, {1, 6, 5},
		{2, 3, 7}, {2, 7, 6}, {3, 0, 4}, {3, 4, 7},
	}
	m := &kernel.Mesh{Name: "cube"}
	for _, f := range faces {
		for _, c := range f {
			m.Indices = append(m.Indices, uint32(len(m.Vertices)/3))
			m.Vertices = append(m.Vertices, corners[c][0], corners[c][1], corners[c][2])
		}
	}
	return m
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in   string
		want Units
		ok   bool
	}{
		{"in", Inch, true},
		{"Inch", Inch, true},
		{"", Inch, true},
		{"mm", Millimeter, true},
		{"millimeter", Millimeter, true},
		{"furlong", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnits(tt.in)
			if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
				t.Errorf("ParseUnits(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
	if Millimeter.PerInch() != 25.4 || Inch.PerInch() != 1 {
		t.Error("PerInch")
	}
}

func TestModelWeldsVertices(t *testing.T) {
	m, err := Model(cube(2), Inch)
	if err != nil {
		t.Fatal(err)
	}
	mesh := m.Resources.Objects[0].Mesh
	if got := len(mesh.Vertices.Vertex); got != 8 {
		t.Errorf("vertices = %d, want 8", got)
	}
	if got := len(mesh.Triangles.Triangle); got != 12 {
		t.Errorf("triangles = %d, want 12", got)
	}
}

func TestModelRejectsBadMeshes(t *testing.T) {
	degenerate := &kernel.Mesh{Vertices: []float32{0, 0, 0, 0, 0, 0, 0, 0, 0}, Indices: []uint32{0, 1, 2}}
	outOfRange := &kernel.Mesh{Vertices: []float32{0, 0, 0}, Indices: []uint32{0, 1, 2}}
	for name, m := range map[string]*kernel.Mesh{
		"nil":          nil,
		"empty":        {},
		"degenerate":   degenerate,
		"out of range": outOfRange,
	} {
		if _, err := Model(m, Inch); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, u := range []Units{Inch, Millimeter} {
		t.Run(u.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cube.3mf")
			m := cube(float32(3 * u.PerInch()))
			if err := Write(path, m, u); err != nil {
				t.Fatal(err)
			}
			if _, err := os.Stat(path + ".partial"); !os.IsNotExist(err) {
				t.Error("temporary file left behind")
			}
			info, err := Read(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Units != u {
				t.Errorf("units = %v, want %v", info.Units, u)
			}
			want := 3 * u.PerInch()
			size := info.Size()
			for _, d := range []float64{size.X, size.Y, size.Z} {
				if math.Abs(d-want) > 1e-4 {
					t.Errorf("size = %v, want %g cube", size, want)
				}
			}
			if info.Triangles != 12 || info.Vertices != 8 {
				t.Errorf("info = %+v", info)
			}
		})
	}
}

func TestWriteErrorsAreTyped(t *testing.T) {
	dir := t.TempDir()

	err := Write(filepath.Join(dir, "empty.3mf"), &kernel.Mesh{}, Inch)
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindEncode {
		t.Errorf("empty mesh: err = %v, want encode error", err)
	}
	if IsIO(err) {
		t.Error("encode failure reported as I/O")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "empty.3mf")); !os.IsNotExist(statErr) {
		t.Error("failed export left a file")
	}

	err = Write(filepath.Join(dir, "missing", "dir", "cube.3mf"), cube(1), Inch)
	if !IsIO(err) {
		t.Errorf("missing directory: err = %v, want I/O error", err)
	}

	if _, err := Read(filepath.Join(dir, "nope.3mf")); !IsIO(err) {
		t.Errorf("Read missing file: err = %v, want I/O error", err)
	}
}
