package ringgroove

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/spool/pkg/bevel"
	"github.com/chazu/spool/pkg/classify"
	"github.com/chazu/spool/pkg/dims"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/kernel"
	"github.com/chazu/spool/pkg/kernel/sdfx"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// class600 returns the NPS 4 class 600 flange on schedule 80 pipe.
func class600(t *testing.T, s bevel.Spec) Params {
	t.Helper()
	f, err := dims.FlangeSize("4", 600)
	if err != nil {
		t.Fatal(err)
	}
	p, err := dims.PipeSize("4", "80")
	if err != nil {
		t.Fatal(err)
	}
	return FromFlange(f, p, s)
}

func mustProfile(t *testing.T, p Params) *Profile {
	t.Helper()
	pr, err := NewProfile(p)
	if err != nil {
		t.Fatal(err)
	}
	return pr
}

// --- Profile ---

func TestGrooveBottomAtBoltFace(t *testing.T) {
	tests := []struct {
		name     string
		k, j2, q float64
	}{
		{"table", 6.344, 5.406, 0.312},
		{"narrow", 6.0, 5.6, 0.15},
		{"wide", 6.7, 5.0, 0.312},
		{"shallow", 6.344, 5.406, 0.05},
		{"deep", 6.8, 4.0, 1.2},
		{"small ring", 4.6, 4.0, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := class600(t, bevel.Standard)
			p.K, p.J2, p.Q = tt.k, tt.j2, tt.q
			pr := mustProfile(t, p)

			if pr.GrooveBottomZ != p.T-p.Q {
				t.Errorf("groove bottom = %v, want T-Q = %v", pr.GrooveBottomZ, p.T-p.Q)
			}
			if pr.GrooveBottomZ != pr.BoltFaceZ {
				t.Errorf("groove bottom %v != bolt face %v", pr.GrooveBottomZ, pr.BoltFaceZ)
			}
			v := pr.Vertices
			for _, i := range []int{1, 2, 5, 6} {
				if v[i].Y != pr.BoltFaceZ {
					t.Errorf("vertex %d at z=%v, want %v", i, v[i].Y, pr.BoltFaceZ)
				}
			}
			if pr.Area() <= 0 {
				t.Errorf("area = %g, want positive (counter-clockwise)", pr.Area())
			}
			if !pr.Simple() {
				t.Error("profile self-intersects")
			}
			top, bottom := pr.GrooveWidth()
			if bottom <= 0 || bottom >= top {
				t.Errorf("groove width top %g bottom %g", top, bottom)
			}
		})
	}
}

func TestProfileStartsAtOutsideDiameter(t *testing.T) {
	pr := mustProfile(t, class600(t, bevel.Standard))
	if v := pr.Vertices[0]; v.X != pr.O/2 || v.Y != 0 {
		t.Errorf("first vertex = %v, want (O/2, 0)", v)
	}
}

func TestEveryTableRowBuildsAProfile(t *testing.T) {
	for _, f := range dims.FlangeSizes() {
		pipe, err := dims.PipeSizeNPS(f.NPS, "40")
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range []bevel.Spec{bevel.Standard, bevel.Square} {
			if _, err := NewProfile(FromFlange(f, pipe, s)); err != nil {
				t.Errorf("%s class %d %s: %v", f.NPS, f.Class, f.Ring, err)
			}
		}
	}
}

func TestProfileValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		field  string
	}{
		{"groove ID above OD", func(p *Params) { p.J2 = p.K + 0.1 }, "J2"},
		{"groove as deep as the flange", func(p *Params) { p.Q = p.T }, "Q"},
		{"walls meet", func(p *Params) { p.Q = 1.4; p.J2 = p.K - 0.5 }, "Q"},
		{"groove outside raised face", func(p *Params) { p.K = p.RaisedFace + 0.1 }, "K"},
		{"groove into bore", func(p *Params) { p.J2 = p.B - 0.1 }, "J2"},
		{"land thicker than hub wall", func(p *Params) { p.Land = 1 }, "Land"},
		{"bevel too steep", func(p *Params) { p.BevelAngle = 75 }, "BevelAngle"},
		{"neck too short", func(p *Params) { p.NeckLength = 0.01 }, "NeckLength"},
		{"hub shorter than plate", func(p *Params) { p.Y = p.T }, "Y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := class600(t, bevel.Standard)
			tt.mutate(&p)
			_, err := NewProfile(p)
			var pe *ProfileError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want ProfileError", err)
			}
			if pe.Field != tt.field {
				t.Errorf("field = %q, want %q (%v)", pe.Field, tt.field, pe)
			}
		})
	}
}

func TestSquareHubHasNoBevel(t *testing.T) {
	pr := mustProfile(t, class600(t, bevel.Square))
	if _, ok := pr.Cutters(0.05)["weld bevel"]; ok {
		t.Error("square hub should have no weld bevel cutter")
	}
	var corner bool
	for _, v := range pr.Vertices {
		if v.X == pr.A/2 && v.Y == pr.HubZ {
			corner = true
		}
	}
	if !corner {
		t.Error("square hub should have a corner at (A/2, hub end)")
	}
}

// --- Solid construction ---

func distanceToProfile(v []r2.Vec, q r2.Vec) float64 {
	d := math.Inf(1)
	for i := range v {
		a, b := v[i], v[(i+1)%len(v)]
		ab := r2.Sub(b, a)
		t := math.Max(0, math.Min(1, r2.Dot(r2.Sub(q, a), ab)/r2.Dot(ab, ab)))
		d = math.Min(d, r2.Norm(r2.Sub(q, r2.Add(a, r2.Scale(t, ab)))))
	}
	return d
}

// The layered build and the direct revolve must enclose the same material.
func TestLayeredBuildMatchesRevolve(t *testing.T) {
	for _, s := range []bevel.Spec{bevel.Standard, bevel.Square} {
		pr := mustProfile(t, class600(t, s))
		k := sdfx.New()
		layered, err := Build(k, pr, 1)
		if err != nil {
			t.Fatalf("angle %g: %v", s.Angle, err)
		}
		direct, err := Revolve(k, pr)
		if err != nil {
			t.Fatal(err)
		}

		const steps = 48
		zMin, zMax := pr.HubZ-0.1, pr.T+0.1
		mismatches := 0
		for i := 0; i <= steps; i++ {
			rho := float64(i) / steps * (pr.O/2 + 0.1)
			for j := 0; j <= steps; j++ {
				z := zMin + float64(j)/steps*(zMax-zMin)
				if distanceToProfile(pr.Vertices, r2.Vec{X: rho, Y: z}) < 2e-3 {
					continue
				}
				for _, phi := range []float64{0, 2.1, 4.2} {
					p := r3.Vec{X: rho * math.Cos(phi), Y: rho * math.Sin(phi), Z: z}
					if k.Contains(layered, p) != k.Contains(direct, p) {
						mismatches++
						if mismatches < 5 {
							t.Errorf("angle %g: layered and revolved differ at rho=%.3f z=%.3f", s.Angle, rho, z)
						}
					}
				}
			}
		}
		if mismatches > 0 {
			t.Errorf("angle %g: %d mismatched samples", s.Angle, mismatches)
		}
	}
}

func TestBuildCutsGrooveToBoltFace(t *testing.T) {
	pr := mustProfile(t, class600(t, bevel.Standard))
	k := sdfx.New()
	body, err := Build(k, pr, 1)
	if err != nil {
		t.Fatal(err)
	}
	pitch := (pr.K + pr.J2) / 4
	tests := []struct {
		name string
		p    r3.Vec
		want bool
	}{
		{"in the groove", r3.Vec{X: pitch, Z: pr.T - pr.Q/2}, false},
		{"under the groove bottom", r3.Vec{X: pitch, Z: pr.GrooveBottomZ - 0.01}, true},
		{"above the bolt face", r3.Vec{Y: (pr.RaisedFace + pr.O) / 4, Z: pr.BoltFaceZ + 0.01}, false},
		{"below the bolt face", r3.Vec{Y: (pr.RaisedFace + pr.O) / 4, Z: pr.BoltFaceZ - 0.01}, true},
		{"bore", r3.Vec{Z: pr.T / 2}, false},
		{"hub wall", r3.Vec{X: (pr.A + pr.B) / 4, Z: pr.NeckZ + 0.1}, true},
		{"bevel corner removed", r3.Vec{X: pr.A/2 - 0.01, Z: pr.HubZ + 0.01}, false},
		{"land kept", r3.Vec{X: pr.B/2 + pr.Land/2, Z: pr.HubZ + 0.005}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := k.Contains(body, tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestHubEndIsClassifiable(t *testing.T) {
	pr := mustProfile(t, class600(t, bevel.Square))
	k := sdfx.New()
	body, err := Build(k, pr, 1)
	if err != nil {
		t.Fatal(err)
	}
	hub := pr.Hub()
	targets, _, err := classify.Targets(hub, bevel.Ends{fitting.Hub: bevel.Standard})
	if err != nil {
		t.Fatal(err)
	}
	res := classify.New(fitting.DefaultTolerance, nil).Classify(k, body, targets)
	if len(res.Assignments) != 1 {
		t.Fatalf("assignments = %d (%v)", len(res.Assignments), res.Diagnostics)
	}
	a := res.Assignments[0]
	if a.Face.Surface().Kind != kernel.SurfaceCylinder {
		t.Errorf("hub reference face = %s, want cylinder", a.Face.Surface().Kind)
	}
	if math.Abs(a.Depth-(pr.Wall()-bevel.StandardLand)) > 1e-12 {
		t.Errorf("hub depth = %g", a.Depth)
	}
}
