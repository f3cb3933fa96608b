// Package fitting describes the shape and named ends of each fitting kind.
//
// A Fitting pairs a Topology (the End descriptors used for feature
// recognition and bevel binding) with a Layout (the hollow segments and
// clearing bores the assembler builds). Both are derived from the same
// numbers so the ends always describe the body that is built.
package fitting

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/spool/pkg/dims"
	"github.com/chazu/spool/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kind is the fitting variant.
type Kind int

const (
	Pipe Kind = iota
	Elbow
	Tee
	Cross
	Flange
)

var kindNames = map[Kind]string{
	Pipe:   "pipe",
	Elbow:  "elbow",
	Tee:    "tee",
	Cross:  "cross",
	Flange: "flange",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKind maps a name to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown fitting kind %q", s)
}

// End names.
const (
	Inlet     = "inlet"
	Outlet    = "outlet"
	End1      = "end1"
	End2      = "end2"
	RunInlet  = "run inlet"
	RunOutlet = "run outlet"
	Branch    = "branch"
	CrossEnd1 = "end1 (-X)"
	CrossEnd2 = "end2 (+X)"
	CrossEnd3 = "end3 (-Y)"
	CrossEnd4 = "end4 (+Y)"
	Hub       = "hub"
)

// EndNames lists the end names of a kind in descriptor order.
func EndNames(k Kind) []string {
	switch k {
	case Pipe:
		return []string{Inlet, Outlet}
	case Elbow:
		return []string{End1, End2}
	case Tee:
		return []string{RunInlet, RunOutlet, Branch}
	case Cross:
		return []string{CrossEnd1, CrossEnd2, CrossEnd3, CrossEnd4}
	case Flange:
		return []string{Hub}
	}
	return nil
}

// End describes one weldable end of a fitting.
type End struct {
	Name string
	// Direction is the outward unit axis of the end.
	Direction r3.Vec
	// Anchor is the center of the end circle.
	Anchor      r3.Vec
	OuterRadius float64
	Wall        float64
	Locator     Locator
}

// Topology is the kind plus its named ends.
type Topology struct {
	Kind Kind
	Ends []End
}

// End returns the end with the given name.
func (t Topology) End(name string) (End, bool) {
	for _, e := range t.Ends {
		if e.Name == name {
			return e, true
		}
	}
	return End{}, false
}

// Names returns the end names.
func (t Topology) Names() []string {
	out := make([]string, len(t.Ends))
	for i, e := range t.Ends {
		out[i] = e.Name
	}
	return out
}

// ---------------------------------------------------------------------------
// Layout
// ---------------------------------------------------------------------------

// Segment is a hollow tubular piece of a layout.
type Segment interface {
	segment()
}

// Straight is a hollow cylinder along its frame's Z axis.
type Straight struct {
	Frame  kernel.Frame
	OD, ID float64
	Length float64
}

// Swept is a hollow torus segment about its frame's Z axis, starting at
// the frame's X axis.
type Swept struct {
	Frame  kernel.Frame
	CLR    float64
	OD, ID float64
	Sweep  float64 // radians
}

func (Straight) segment() {}
func (Swept) segment()    {}

// Bore is a clearing cut along its frame's Z axis.
type Bore struct {
	Frame    kernel.Frame
	Diameter float64
	Length   float64
	// Through extends the cut past both ends, for run bores. Branch bores
	// start at the run axis and only overshoot the outer end.
	Through bool
}

// Layout is what the assembler builds.
type Layout struct {
	Segments []Segment
	Bores    []Bore
}

// Fitting is a buildable fitting.
type Fitting struct {
	Topology
	Layout Layout
	// Length is the overall length along the main axis, for reporting.
	Length float64
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

var (
	xAxis = r3.Vec{X: 1}
	yAxis = r3.Vec{Y: 1}
	zAxis = r3.Vec{Z: 1}
)

func neg(v r3.Vec) r3.Vec { return r3.Scale(-1, v) }

func axialEnd(name string, p dims.Pipe, axis r3.Vec, pos float64, outward r3.Vec) End {
	return End{
		Name:        name,
		Direction:   outward,
		Anchor:      r3.Scale(pos, axis),
		OuterRadius: p.OD / 2,
		Wall:        p.Wall,
		Locator:     AxialLocator{Axis: axis, Position: pos},
	}
}

// NewPipe lays out straight pipe along +Z from z=0 to z=length.
func NewPipe(p dims.Pipe, length float64) (Fitting, error) {
	if length <= 0 {
		return Fitting{}, fmt.Errorf("pipe length %g must be positive", length)
	}
	return Fitting{
		Topology: Topology{Kind: Pipe, Ends: []End{
			axialEnd(Inlet, p, zAxis, 0, neg(zAxis)),
			axialEnd(Outlet, p, zAxis, length, zAxis),
		}},
		Layout: Layout{Segments: []Segment{
			Straight{Frame: kernel.WorldFrame, OD: p.OD, ID: p.ID(), Length: length},
		}},
		Length: length,
	}, nil
}

// NewElbow lays out an elbow swept about +Z from the X axis through sweep
// degrees with the given center-line radius.
func NewElbow(p dims.Pipe, clr, sweep float64) (Fitting, error) {
	if sweep <= 0 || sweep > 180 {
		return Fitting{}, fmt.Errorf("elbow angle %g outside (0, 180]", sweep)
	}
	if clr <= p.OD/2 {
		return Fitting{}, fmt.Errorf("elbow radius %g does not clear OD %g", clr, p.OD)
	}
	theta := sweep * math.Pi / 180
	c, s := math.Cos(theta), math.Sin(theta)
	end := func(name string, angle float64, anchor, dir r3.Vec) End {
		return End{
			Name:        name,
			Direction:   dir,
			Anchor:      anchor,
			OuterRadius: p.OD / 2,
			Wall:        p.Wall,
			Locator:     SweepLocator{Axis: zAxis, Ref: xAxis, Radius: clr, Angle: angle},
		}
	}
	return Fitting{
		Topology: Topology{Kind: Elbow, Ends: []End{
			end(End1, 0, r3.Vec{X: clr}, neg(yAxis)),
			end(End2, theta, r3.Vec{X: clr * c, Y: clr * s}, r3.Vec{X: -s, Y: c}),
		}},
		Layout: Layout{Segments: []Segment{
			Swept{Frame: kernel.WorldFrame, CLR: clr, OD: p.OD, ID: p.ID(), Sweep: theta},
		}},
		Length: clr * theta,
	}, nil
}

// runFrame places the run along +X starting at x=-c.
func runFrame(c float64) kernel.Frame {
	return kernel.NewFrameX(r3.Vec{X: -c}, xAxis, yAxis)
}

func branchFrame(dir r3.Vec) kernel.Frame {
	return kernel.NewFrameX(r3.Vec{}, dir, xAxis)
}

func checkBranch(run, branch dims.Pipe, c, m float64) error {
	if branch.OD > run.OD {
		return fmt.Errorf("branch OD %g exceeds run OD %g", branch.OD, run.OD)
	}
	if c <= branch.OD/2 || m <= run.OD/2 {
		return fmt.Errorf("center-to-end %g/%g too short for %g x %g", c, m, run.OD, branch.OD)
	}
	return nil
}

// NewTee lays out a tee: run along X centered on the origin, branch along +Y.
func NewTee(run, branch dims.Pipe, c, m float64) (Fitting, error) {
	if err := checkBranch(run, branch, c, m); err != nil {
		return Fitting{}, err
	}
	return Fitting{
		Topology: Topology{Kind: Tee, Ends: []End{
			axialEnd(RunInlet, run, xAxis, -c, neg(xAxis)),
			axialEnd(RunOutlet, run, xAxis, c, xAxis),
			axialEnd(Branch, branch, yAxis, m, yAxis),
		}},
		Layout: Layout{
			Segments: []Segment{
				Straight{Frame: runFrame(c), OD: run.OD, ID: run.ID(), Length: 2 * c},
				Straight{Frame: branchFrame(yAxis), OD: branch.OD, ID: branch.ID(), Length: m},
			},
			Bores: []Bore{
				{Frame: runFrame(c), Diameter: run.ID(), Length: 2 * c, Through: true},
				{Frame: branchFrame(yAxis), Diameter: branch.ID(), Length: m},
			},
		},
		Length: 2 * c,
	}, nil
}

// NewCross lays out a cross: run along X, branches along -Y and +Y.
func NewCross(run, branch dims.Pipe, c, m float64) (Fitting, error) {
	if err := checkBranch(run, branch, c, m); err != nil {
		return Fitting{}, err
	}
	return Fitting{
		Topology: Topology{Kind: Cross, Ends: []End{
			axialEnd(CrossEnd1, run, xAxis, -c, neg(xAxis)),
			axialEnd(CrossEnd2, run, xAxis, c, xAxis),
			axialEnd(CrossEnd3, branch, yAxis, -m, neg(yAxis)),
			axialEnd(CrossEnd4, branch, yAxis, m, yAxis),
		}},
		Layout: Layout{
			Segments: []Segment{
				Straight{Frame: runFrame(c), OD: run.OD, ID: run.ID(), Length: 2 * c},
				Straight{Frame: branchFrame(neg(yAxis)), OD: branch.OD, ID: branch.ID(), Length: m},
				Straight{Frame: branchFrame(yAxis), OD: branch.OD, ID: branch.ID(), Length: m},
			},
			Bores: []Bore{
				{Frame: runFrame(c), Diameter: run.ID(), Length: 2 * c, Through: true},
				{Frame: branchFrame(neg(yAxis)), Diameter: branch.ID(), Length: m},
				{Frame: branchFrame(yAxis), Diameter: branch.ID(), Length: m},
			},
		},
		Length: 2 * c,
	}, nil
}

// NewFlangeHub describes the weld end of a flange hub whose end face lies
// at z = hubZ, facing -Z.
func NewFlangeHub(hubOD, wall, hubZ float64) Topology {
	return Topology{Kind: Flange, Ends: []End{{
		Name:        Hub,
		Direction:   neg(zAxis),
		Anchor:      r3.Vec{Z: hubZ},
		OuterRadius: hubOD / 2,
		Wall:        wall,
		Locator:     AxialLocator{Axis: zAxis, Position: hubZ},
	}}}
}
