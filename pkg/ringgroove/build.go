package ringgroove

import (
	"fmt"
	"math"

	"github.com/chazu/spool/pkg/assemble"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Layer is one concentric cylinder of the stacked body.
type Layer struct {
	Name   string
	Radius float64
	Z0, Z1 float64
}

// Layers returns the stack from the weld end up: neck, hub, back plate and
// raised face. Every layer shares the bore.
func (p *Profile) Layers() []Layer {
	ls := []Layer{
		{Name: "neck", Radius: p.A / 2, Z0: p.HubZ, Z1: p.NeckZ},
		{Name: "hub", Radius: p.X / 2, Z0: p.NeckZ, Z1: 0},
		{Name: "back", Radius: p.O / 2, Z0: 0, Z1: p.BoltFaceZ},
		{Name: "raised face", Radius: p.RaisedFace / 2, Z0: p.BoltFaceZ, Z1: p.T},
	}
	if p.X-p.A <= eps {
		ls[0].Z1 = 0
		ls = append(ls[:1], ls[2:]...)
	}
	return ls
}

// Hub returns the weld end descriptor of the flange.
func (p *Profile) Hub() fitting.Topology {
	return fitting.NewFlangeHub(p.A, p.Wall(), p.HubZ)
}

// Cutters returns the revolved profiles removed from the layer stack, each
// overshooting open faces by ov: the hub taper, the ring groove and, unless
// the hub end is square, the weld bevel.
func (p *Profile) Cutters(ov float64) map[string][]r2.Vec {
	out := make(map[string][]r2.Vec)
	if p.X-p.A > eps {
		out["hub taper"] = []r2.Vec{
			{X: p.A / 2, Y: p.NeckZ},
			{X: p.X/2 + ov, Y: p.NeckZ},
			{X: p.X/2 + ov, Y: 0},
			{X: p.X / 2, Y: 0},
		}
	}

	t := math.Tan(GrooveAngle * math.Pi / 180)
	in := p.grooveInset()
	out["ring groove"] = []r2.Vec{
		{X: p.J2/2 + in, Y: p.GrooveBottomZ},
		{X: p.K/2 - in, Y: p.GrooveBottomZ},
		{X: p.K/2 + ov*t, Y: p.T + ov},
		{X: p.J2/2 - ov*t, Y: p.T + ov},
	}

	if p.BevelAngle > 0 {
		a := p.BevelAngle * math.Pi / 180
		root := r2.Vec{X: p.B/2 + p.Land, Y: p.HubZ}
		top := p.HubZ + p.bevelHeight() + ov*math.Tan(a)
		out["weld bevel"] = []r2.Vec{
			{X: root.X - ov/math.Tan(a), Y: root.Y - ov},
			{X: p.A/2 + ov, Y: root.Y - ov},
			{X: p.A/2 + ov, Y: top},
		}
	}
	return out
}

// cutOrder fixes the order cuts are applied in.
var cutOrder = []string{"hub taper", "ring groove", "weld bevel"}

func axialFrame(z float64) kernel.Frame {
	return kernel.NewFrame(r3.Vec{Z: z}, r3.Vec{Z: 1})
}

// Build stacks the layers as hollow cylinders, fuses them, clears the bore
// and then cuts the hub taper, ring groove and weld bevel.
func Build(k kernel.Kernel, p *Profile, scale float64) (kernel.Solid, error) {
	a := assemble.New(k, scale)
	var parts []kernel.Solid
	for _, l := range p.Layers() {
		s, err := a.HollowCylinder(axialFrame(l.Z0), 2*l.Radius, p.B, l.Z1-l.Z0)
		if err != nil {
			return nil, fmt.Errorf("flange layer %s: %w", l.Name, err)
		}
		parts = append(parts, s)
	}
	body, err := a.Fuse(parts...)
	if err != nil {
		return nil, err
	}
	body, err = a.ClearBore(body, fitting.Bore{
		Frame:    axialFrame(p.HubZ),
		Diameter: p.B,
		Length:   p.T - p.HubZ,
		Through:  true,
	})
	if err != nil {
		return nil, err
	}

	cutters := p.Cutters(a.Overshoot)
	for _, name := range cutOrder {
		pts, ok := cutters[name]
		if !ok {
			continue
		}
		tool, err := k.Revolve(kernel.WorldFrame, pts)
		if err != nil {
			return nil, fmt.Errorf("flange %s cutter: %w", name, err)
		}
		if body, err = a.Cut(body, tool, name); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// Revolve builds the flange in one step from the full profile.
func Revolve(k kernel.Kernel, p *Profile) (kernel.Solid, error) {
	s, err := k.Revolve(kernel.WorldFrame, p.Vertices)
	if err != nil {
		return nil, fmt.Errorf("flange revolve: %w", err)
	}
	return s, nil
}
