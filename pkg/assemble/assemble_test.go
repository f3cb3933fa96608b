package assemble

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/spool/pkg/dims"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/kernel"
	"github.com/chazu/spool/pkg/kernel/kerneltest"
	"github.com/chazu/spool/pkg/kernel/sdfx"
	"gonum.org/v1/gonum/spatial/r3"
)

func pipeSize(t *testing.T, nps, sch string) dims.Pipe {
	t.Helper()
	p, err := dims.PipeSize(nps, sch)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func circleCount(k kernel.Kernel, s kernel.Solid, r float64) int {
	n := 0
	for _, e := range k.Edges(s) {
		if c := e.Curve(); c.Kind == kernel.CurveCircle && math.Abs(c.Radius-r) < 1e-6 {
			n++
		}
	}
	return n
}

func TestHollowCylinder(t *testing.T) {
	k := sdfx.New()
	a := New(k, 1)
	s, err := a.HollowCylinder(kernel.WorldFrame, 4.5, 3.826, 12)
	if err != nil {
		t.Fatal(err)
	}
	if got := circleCount(k, s, 2.25); got != 2 {
		t.Errorf("outer circles = %d, want 2", got)
	}
	if got := circleCount(k, s, 1.913); got != 2 {
		t.Errorf("bore circles = %d, want 2", got)
	}
	if k.Contains(s, r3.Vec{Z: 6}) {
		t.Error("axis should be hollow")
	}
	if !k.Contains(s, r3.Vec{X: 2.1, Z: 6}) {
		t.Error("wall should be solid")
	}
	if _, err := a.HollowCylinder(kernel.WorldFrame, 4, 4, 1); err == nil {
		t.Error("zero wall accepted")
	}
}

func TestHollowTorus(t *testing.T) {
	k := sdfx.New()
	a := New(k, 1)
	s, err := a.HollowTorus(kernel.WorldFrame, 6, 4.5, 3.826, math.Pi/2)
	if err != nil {
		t.Fatal(err)
	}
	if got := circleCount(k, s, 2.25); got != 2 {
		t.Errorf("outer end circles = %d, want 2", got)
	}
	if got := circleCount(k, s, 1.913); got != 2 {
		t.Errorf("bore end circles = %d, want 2", got)
	}
	mid := r3.Vec{X: 6 * math.Cos(math.Pi/4), Y: 6 * math.Sin(math.Pi/4)}
	if k.Contains(s, mid) {
		t.Error("sweep centerline should be hollow")
	}
}

// A tee's bore must be clear through the junction along both axes.
func TestTeeBoreIsContinuous(t *testing.T) {
	tests := []struct {
		name, run, branch string
	}{
		{"equal", "6", "6"},
		{"reducing", "8", "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, branch := pipeSize(t, tt.run, "40"), pipeSize(t, tt.branch, "40")
			tee, err := dims.TeeSize(tt.run, tt.branch)
			if err != nil {
				t.Fatal(err)
			}
			f, err := fitting.NewTee(run, branch, tee.C, tee.M)
			if err != nil {
				t.Fatal(err)
			}
			k := sdfx.New()
			body, err := New(k, 1).Build(f.Layout)
			if err != nil {
				t.Fatal(err)
			}
			for x := -tee.C + 0.01; x < tee.C; x += 0.25 {
				if k.Contains(body, r3.Vec{X: x}) {
					t.Fatalf("run bore blocked at x=%f", x)
				}
			}
			for y := 0.0; y < tee.M; y += 0.25 {
				if k.Contains(body, r3.Vec{Y: y}) {
					t.Fatalf("branch bore blocked at y=%f", y)
				}
			}
			// Just inside the run bore below the branch, where the branch
			// wall would otherwise protrude.
			rb := branch.ID()/2 + branch.Wall/2
			if k.Contains(body, r3.Vec{X: rb, Y: run.ID()/4}) {
				t.Error("residual branch wall inside the run bore")
			}
			if !k.Contains(body, r3.Vec{X: -tee.C + 0.5, Y: run.OD/2 - run.Wall/2}) {
				t.Error("run wall missing")
			}
		})
	}
}

func TestBuildReportsKernelFailure(t *testing.T) {
	p := pipeSize(t, "6", "40")
	f, _ := fitting.NewTee(p, p, 5.625, 5.625)

	tests := []struct {
		name   string
		faulty func(k kernel.Kernel) *kerneltest.Faulty
		op     string
	}{
		{"segment bore", func(k kernel.Kernel) *kerneltest.Faulty {
			fk := kerneltest.Wrap(k)
			fk.FailDifferenceAt = 1
			return fk
		}, "difference"},
		{"fuse", func(k kernel.Kernel) *kerneltest.Faulty {
			fk := kerneltest.Wrap(k)
			fk.FailUnionAt = 1
			return fk
		}, "union"},
		{"clearing bore", func(k kernel.Kernel) *kerneltest.Faulty {
			fk := kerneltest.Wrap(k)
			fk.FailDifferenceAt = 3
			return fk
		}, "difference"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := tt.faulty(sdfx.New())
			_, err := New(k, 1).Build(f.Layout)
			var te *TopologyError
			if !errors.As(err, &te) {
				t.Fatalf("Build error = %v, want TopologyError", err)
			}
			if te.Op != tt.op {
				t.Errorf("Op = %q, want %q", te.Op, tt.op)
			}
		})
	}
}

func TestFuseNeedsBodies(t *testing.T) {
	if _, err := New(sdfx.New(), 1).Fuse(); err == nil {
		t.Error("empty fuse accepted")
	}
}
