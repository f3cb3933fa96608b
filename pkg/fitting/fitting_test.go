package fitting

import (
	"math"
	"testing"

	"github.com/chazu/spool/pkg/dims"
	"github.com/chazu/spool/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

func pipe(t *testing.T, nps, sch string) dims.Pipe {
	t.Helper()
	p, err := dims.PipeSize(nps, sch)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestEndNamesMatchConstructors(t *testing.T) {
	p := pipe(t, "4", "80")
	pf, _ := NewPipe(p, 480)
	el, _ := NewElbow(p, 6, 90)
	tee, _ := NewTee(p, p, 4.125, 4.125)
	cr, _ := NewCross(p, p, 4.125, 4.125)
	tests := []struct {
		name string
		topo Topology
	}{
		{"pipe", pf.Topology},
		{"elbow", el.Topology},
		{"tee", tee.Topology},
		{"cross", cr.Topology},
		{"flange", NewFlangeHub(4.5, 0.337, -2.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := EndNames(tt.topo.Kind)
			got := tt.topo.Names()
			if len(got) != len(want) {
				t.Fatalf("names = %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("names = %v, want %v", got, want)
				}
			}
			for _, e := range tt.topo.Ends {
				if math.Abs(r3.Norm(e.Direction)-1) > 1e-12 {
					t.Errorf("%s direction not unit: %v", e.Name, e.Direction)
				}
				if !DefaultTolerance.PositionMatches(e.Locator, e.Anchor) {
					t.Errorf("%s anchor %v does not satisfy its own locator", e.Name, e.Anchor)
				}
			}
		})
	}
}

func TestLocatorsSeparateEnds(t *testing.T) {
	p := pipe(t, "6", "40")
	cr, _ := NewCross(p, p, 5.625, 5.625)
	for _, a := range cr.Ends {
		for _, b := range cr.Ends {
			if a.Name == b.Name {
				continue
			}
			if DefaultTolerance.PositionMatches(a.Locator, b.Anchor) {
				t.Errorf("locator of %s accepts anchor of %s", a.Name, b.Name)
			}
		}
	}
	el, _ := NewElbow(p, 9, 90)
	e1, e2 := el.Ends[0], el.Ends[1]
	if DefaultTolerance.PositionMatches(e1.Locator, e2.Anchor) || DefaultTolerance.PositionMatches(e2.Locator, e1.Anchor) {
		t.Error("elbow ends must be distinguished by sweep angle")
	}
}

func TestSweepLocatorDeviation(t *testing.T) {
	l := SweepLocator{Axis: r3.Vec{Z: 1}, Ref: r3.Vec{X: 1}, Radius: 6, Angle: math.Pi / 4}
	at := r3.Vec{X: 6 * math.Cos(math.Pi/4), Y: 6 * math.Sin(math.Pi/4)}
	if d := l.Deviation(at); d > 1e-9 {
		t.Errorf("deviation at expected point = %g", d)
	}
	off := r3.Scale(6.05/6, at)
	if d := l.Deviation(off); math.Abs(d-0.05) > 1e-9 {
		t.Errorf("radial deviation = %g, want 0.05", d)
	}
}

func TestToleranceEdgeMatches(t *testing.T) {
	p := pipe(t, "4", "80")
	f, _ := NewPipe(p, 480)
	outlet, _ := f.End(Outlet)
	tests := []struct {
		name  string
		curve kernel.Curve
		want  bool
	}{
		{"exact", kernel.Curve{Kind: kernel.CurveCircle, Center: r3.Vec{Z: 480}, Radius: 2.25}, true},
		{"drifted center", kernel.Curve{Kind: kernel.CurveCircle, Center: r3.Vec{Z: 480.08}, Radius: 2.255}, true},
		{"bore circle", kernel.Curve{Kind: kernel.CurveCircle, Center: r3.Vec{Z: 480}, Radius: 1.913}, false},
		{"other end", kernel.Curve{Kind: kernel.CurveCircle, Center: r3.Vec{}, Radius: 2.25}, false},
		{"line", kernel.Curve{Kind: kernel.CurveLine, Radius: 2.25, Center: r3.Vec{Z: 480}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultTolerance.EdgeMatches(outlet, tt.curve); got != tt.want {
				t.Errorf("EdgeMatches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToleranceFaceMatches(t *testing.T) {
	e := End{OuterRadius: 2.25}
	if !DefaultTolerance.FaceMatches(e, kernel.Surface{Kind: kernel.SurfaceCylinder, Radius: 2.25}) {
		t.Error("outer cylinder should match")
	}
	if !DefaultTolerance.FaceMatches(e, kernel.Surface{Kind: kernel.SurfaceTorus, Radius: 2.25, MajorRadius: 6}) {
		t.Error("outer torus should match")
	}
	if DefaultTolerance.FaceMatches(e, kernel.Surface{Kind: kernel.SurfacePlane, Radius: 2.25}) {
		t.Error("end plane should not match")
	}
	if DefaultTolerance.FaceMatches(e, kernel.Surface{Kind: kernel.SurfaceCylinder, Radius: 2.25, Reversed: true}) {
		t.Error("bore should not match")
	}
}

func TestConstructorValidation(t *testing.T) {
	p := pipe(t, "4", "40")
	small := pipe(t, "2", "40")
	if _, err := NewPipe(p, 0); err == nil {
		t.Error("zero length pipe accepted")
	}
	if _, err := NewElbow(p, 6, 0); err == nil {
		t.Error("zero angle elbow accepted")
	}
	if _, err := NewElbow(p, 2, 90); err == nil {
		t.Error("elbow radius inside the pipe accepted")
	}
	if _, err := NewTee(small, p, 4, 4); err == nil {
		t.Error("branch larger than run accepted")
	}
}

func TestReducingTeeEndsCarryOwnWall(t *testing.T) {
	run, branch := pipe(t, "8", "40"), pipe(t, "4", "40")
	f, err := NewTee(run, branch, 7, 7)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := f.End(Branch)
	r, _ := f.End(RunInlet)
	if b.Wall != branch.Wall || b.OuterRadius != branch.OD/2 {
		t.Errorf("branch end = %+v", b)
	}
	if r.Wall != run.Wall || r.OuterRadius != run.OD/2 {
		t.Errorf("run end = %+v", r)
	}
	if len(f.Layout.Bores) != 2 || !f.Layout.Bores[0].Through || f.Layout.Bores[1].Through {
		t.Errorf("bores = %+v", f.Layout.Bores)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Pipe, Elbow, Tee, Cross, Flange} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("valve"); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestWarnings(t *testing.T) {
	ds := []Diagnostic{{Severity: Info}, {Severity: Warning}, {Severity: Error}}
	if got := len(Warnings(ds)); got != 2 {
		t.Errorf("Warnings = %d, want 2", got)
	}
}
