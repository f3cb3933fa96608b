// Package assemble builds the gross shape of a fitting with the kernel:
// hollow segments fused into one body, followed by clearing cuts through
// the junctions.
package assemble

import (
	"fmt"
	"math"

	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/kernel"
)

const (
	// BoreOvershoot is how far inner cuts extend past the nominal ends so
	// that no cut face coincides with an end face.
	BoreOvershoot = 0.05
	// SweepOvershoot is the angular equivalent for toroidal bores, in
	// radians.
	SweepOvershoot = 0.02
)

// TopologyError reports a kernel operation that did not complete. The
// generation that issued it cannot continue.
type TopologyError struct {
	Op     string
	Detail string
	Err    error
}

func (e *TopologyError) Error() string {
	msg := "topology: " + e.Op + " did not complete"
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TopologyError) Unwrap() error { return e.Err }

// lastError is implemented by kernels that can explain a failure.
type lastError interface {
	LastError() error
}

func topologyError(k kernel.Kernel, op, detail string) error {
	te := &TopologyError{Op: op, Detail: detail}
	if le, ok := k.(lastError); ok {
		te.Err = le.LastError()
	}
	return te
}

// Assembler builds layouts with one kernel session.
type Assembler struct {
	k kernel.Kernel
	// Overshoot is BoreOvershoot in model units.
	Overshoot float64
}

// New returns an Assembler on k. scale converts the inch overshoot to model
// units.
func New(k kernel.Kernel, scale float64) *Assembler {
	if scale <= 0 {
		scale = 1
	}
	return &Assembler{k: k, Overshoot: BoreOvershoot * scale}
}

// HollowCylinder returns outer - inner along the frame's Z axis. The inner
// cylinder overshoots both ends.
func (a *Assembler) HollowCylinder(f kernel.Frame, od, id, length float64) (kernel.Solid, error) {
	if id <= 0 || id >= od {
		return nil, fmt.Errorf("hollow cylinder: need 0 < ID (%g) < OD (%g)", id, od)
	}
	outer, err := a.k.Cylinder(f, od/2, length)
	if err != nil {
		return nil, fmt.Errorf("hollow cylinder outer: %w", err)
	}
	inner, err := a.k.Cylinder(f.Offset(-a.Overshoot), id/2, length+2*a.Overshoot)
	if err != nil {
		return nil, fmt.Errorf("hollow cylinder inner: %w", err)
	}
	s, ok := a.k.Difference(outer, inner)
	if !ok {
		return nil, topologyError(a.k, "difference", "hollow cylinder bore")
	}
	return s, nil
}

// HollowTorus returns an elbow sweep: outer torus - inner torus, the inner
// sweep extended by SweepOvershoot at both ends.
func (a *Assembler) HollowTorus(f kernel.Frame, clr, od, id, sweep float64) (kernel.Solid, error) {
	if id <= 0 || id >= od {
		return nil, fmt.Errorf("hollow torus: need 0 < ID (%g) < OD (%g)", id, od)
	}
	outer, err := a.k.Torus(f, clr, od/2, sweep)
	if err != nil {
		return nil, fmt.Errorf("hollow torus outer: %w", err)
	}
	innerSweep := math.Min(sweep+2*SweepOvershoot, 2*math.Pi)
	inner, err := a.k.Torus(f.Rotated(-SweepOvershoot), clr, id/2, innerSweep)
	if err != nil {
		return nil, fmt.Errorf("hollow torus inner: %w", err)
	}
	s, ok := a.k.Difference(outer, inner)
	if !ok {
		return nil, topologyError(a.k, "difference", "hollow torus bore")
	}
	return s, nil
}

// Fuse unions bodies left to right.
func (a *Assembler) Fuse(bodies ...kernel.Solid) (kernel.Solid, error) {
	if len(bodies) == 0 {
		return nil, fmt.Errorf("fuse: no bodies")
	}
	acc := bodies[0]
	for i, b := range bodies[1:] {
		var ok bool
		acc, ok = a.k.Union(acc, b)
		if !ok {
			return nil, topologyError(a.k, "union", fmt.Sprintf("segment %d", i+2))
		}
	}
	return acc, nil
}

// Cut subtracts tool from body.
func (a *Assembler) Cut(body, tool kernel.Solid, detail string) (kernel.Solid, error) {
	s, ok := a.k.Difference(body, tool)
	if !ok {
		return nil, topologyError(a.k, "difference", detail)
	}
	return s, nil
}

// ClearBore re-cuts a bore through the fused body. Through bores overshoot
// both ends of the nominal length; branch bores start at the frame origin
// on the run axis and overshoot the outer end only.
func (a *Assembler) ClearBore(body kernel.Solid, b fitting.Bore) (kernel.Solid, error) {
	f, length := b.Frame, b.Length+a.Overshoot
	if b.Through {
		f = f.Offset(-a.Overshoot)
		length += a.Overshoot
	}
	tool, err := a.k.Cylinder(f, b.Diameter/2, length)
	if err != nil {
		return nil, fmt.Errorf("clearing bore: %w", err)
	}
	return a.Cut(body, tool, "clearing bore")
}

// Segment builds one hollow segment.
func (a *Assembler) Segment(s fitting.Segment) (kernel.Solid, error) {
	switch seg := s.(type) {
	case fitting.Straight:
		return a.HollowCylinder(seg.Frame, seg.OD, seg.ID, seg.Length)
	case fitting.Swept:
		return a.HollowTorus(seg.Frame, seg.CLR, seg.OD, seg.ID, seg.Sweep)
	}
	return nil, fmt.Errorf("assemble: unknown segment %T", s)
}

// Build assembles a layout: every segment hollowed, fused, then every bore
// cleared in order.
func (a *Assembler) Build(l fitting.Layout) (kernel.Solid, error) {
	if len(l.Segments) == 0 {
		return nil, fmt.Errorf("assemble: empty layout")
	}
	parts := make([]kernel.Solid, 0, len(l.Segments))
	for _, s := range l.Segments {
		p, err := a.Segment(s)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	body, err := a.Fuse(parts...)
	if err != nil {
		return nil, err
	}
	for _, b := range l.Bores {
		if body, err = a.ClearBore(body, b); err != nil {
			return nil, err
		}
	}
	return body, nil
}
