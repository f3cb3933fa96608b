package dims

import (
	"errors"
	"math"
	"testing"
)

func TestParseNPS(t *testing.T) {
	tests := []struct {
		in   string
		want NPS
	}{
		{"4", 4},
		{"1-1/2", 1.5},
		{"1 1/2", 1.5},
		{"1.5", 1.5},
		{"1/2", 0.5},
		{"3/4\"", 0.75},
		{" 24 ", 24},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNPS(tt.in)
			if err != nil {
				t.Fatalf("ParseNPS(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseNPS(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	for _, bad := range []string{"", "abc", "1/0", "-2", "1-x/2"} {
		if _, err := ParseNPS(bad); err == nil {
			t.Errorf("ParseNPS(%q) should fail", bad)
		}
	}
}

func TestNPSString(t *testing.T) {
	for in, want := range map[NPS]string{0.5: "1/2", 1.5: "1-1/2", 4: "4", 2.5: "2-1/2", 0.75: "3/4"} {
		if got := in.String(); got != want {
			t.Errorf("NPS(%v).String() = %q, want %q", float64(in), got, want)
		}
	}
}

func TestPipeSize(t *testing.T) {
	tests := []struct {
		nps, sch string
		od, wall float64
	}{
		{"4", "80", 4.500, 0.337},
		{"4", "sch 40", 4.500, 0.237},
		{"6", "40", 6.625, 0.280},
		{"8", "80", 8.625, 0.500},
		{"12", "STD", 12.750, 0.375},
		{"10", "XS", 10.750, 0.500},
		{"2", "XS", 2.375, 0.218},
		{"1/2", "XXS", 0.840, 0.294},
	}
	for _, tt := range tests {
		t.Run(tt.nps+"/"+tt.sch, func(t *testing.T) {
			p, err := PipeSize(tt.nps, tt.sch)
			if err != nil {
				t.Fatalf("PipeSize error = %v", err)
			}
			if p.OD != tt.od || p.Wall != tt.wall {
				t.Errorf("PipeSize = %v, want OD %v wall %v", p, tt.od, tt.wall)
			}
		})
	}
}

func TestPipeSizeNotFound(t *testing.T) {
	for _, c := range []struct{ nps, sch string }{{"7", "40"}, {"3-1/2", "160"}, {"24", "XXS"}, {"4", "99"}} {
		_, err := PipeSize(c.nps, c.sch)
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("PipeSize(%s, %s) error = %v, want NotFoundError", c.nps, c.sch, err)
		}
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("PipeSize(%s, %s) error should match ErrNotFound", c.nps, c.sch)
		}
	}
}

// Every resolvable tuple has a positive bore.
func TestAllPipeSizesHavePositiveID(t *testing.T) {
	sizes := PipeSizes()
	if len(sizes) < 150 {
		t.Fatalf("only %d pipe sizes", len(sizes))
	}
	for _, p := range sizes {
		if p.ID() <= 0 {
			t.Errorf("%v has ID %f", p, p.ID())
		}
	}
}

func TestElbowCLR(t *testing.T) {
	tests := []struct {
		nps    string
		radius ElbowRadius
		want   float64
	}{
		{"4", LongRadius, 6},
		{"4", ShortRadius, 4},
		{"1/2", LongRadius, 1.5},
		{"3/4", LongRadius, 1.125},
		{"1-1/2", LongRadius, 2.25},
	}
	for _, tt := range tests {
		got, err := ElbowCLR(tt.nps, tt.radius)
		if err != nil {
			t.Fatalf("ElbowCLR(%s, %s) error = %v", tt.nps, tt.radius, err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ElbowCLR(%s, %s) = %v, want %v", tt.nps, tt.radius, got, tt.want)
		}
	}
	if _, err := ElbowCLR("1/2", ShortRadius); !errors.Is(err, ErrNotFound) {
		t.Errorf("short radius 1/2 elbow should not exist, got %v", err)
	}
}

func TestTeeSize(t *testing.T) {
	tee, err := TeeSize("6", "")
	if err != nil {
		t.Fatal(err)
	}
	if tee.C != 5.625 || tee.Branch != 6 {
		t.Errorf("TeeSize(6) = %+v", tee)
	}
	red, err := TeeSize("8", "4")
	if err != nil {
		t.Fatal(err)
	}
	if red.C != 7 || red.Branch != 4 {
		t.Errorf("TeeSize(8x4) = %+v", red)
	}
	if _, err := TeeSize("4", "8"); !errors.Is(err, ErrNotFound) {
		t.Errorf("outlet larger than run should fail, got %v", err)
	}
}

func TestFlangeRowsAreConsistent(t *testing.T) {
	rows := FlangeSizes()
	if len(rows) != 36 {
		t.Fatalf("flange rows = %d, want 36", len(rows))
	}
	for _, f := range rows {
		if f.GrooveOD() >= f.K {
			t.Errorf("%s cl%d: groove OD %f outside raised face %f", f.NPS, f.Class, f.GrooveOD(), f.K)
		}
		if f.E >= f.T {
			t.Errorf("%s cl%d: groove depth %f >= thickness %f", f.NPS, f.Class, f.E, f.T)
		}
		if f.X >= f.O || f.K >= f.O {
			t.Errorf("%s cl%d: hub or raised face exceeds OD", f.NPS, f.Class)
		}
		if f.Y <= f.T {
			t.Errorf("%s cl%d: hub length %f <= thickness %f", f.NPS, f.Class, f.Y, f.T)
		}
	}
}

func TestFlangeSize(t *testing.T) {
	f, err := FlangeSize("4", 600)
	if err != nil {
		t.Fatal(err)
	}
	if f.O != 10.75 || f.T != 1.5 || f.Ring != "R37" {
		t.Errorf("FlangeSize(4, 600) = %+v", f)
	}
	if _, err := FlangeSize("5", 600); !errors.Is(err, ErrNotFound) {
		t.Errorf("unlisted size should fail, got %v", err)
	}
	for in, want := range map[string]int{"600": 600, "600#": 600, "CL300": 300, "class 1500": 1500} {
		got, err := ParseClass(in)
		if err != nil || got != want {
			t.Errorf("ParseClass(%q) = %d, %v", in, got, err)
		}
	}
}
