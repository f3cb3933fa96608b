package generate

import (
	"fmt"
	"strconv"

	"github.com/chazu/spool/pkg/assemble"
	"github.com/chazu/spool/pkg/dims"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/kernel"
	"github.com/chazu/spool/pkg/ringgroove"
)

// DefaultSchedule is used when a request names none.
const DefaultSchedule = "40"

func schedule(req Request) string {
	if req.Schedule == "" {
		return DefaultSchedule
	}
	return req.Schedule
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// layoutPlan wraps a fitting built by the assembler.
func layoutPlan(f fitting.Fitting, s float64, fields map[string]string, stem string) *plan {
	return &plan{
		kind:     f.Kind,
		topology: f.Topology,
		build: func(k kernel.Kernel) (kernel.Solid, error) {
			return assemble.New(k, s).Build(f.Layout)
		},
		fields: fields,
		stem:   stem,
	}
}

func resolvePipe(req Request, s float64) (*plan, error) {
	p, err := dims.PipeSize(req.NPS, schedule(req))
	if err != nil {
		return nil, err
	}
	if req.Length <= 0 {
		return nil, fmt.Errorf("pipe length %g must be positive", req.Length)
	}
	f, err := fitting.NewPipe(p.Scale(s), req.Length*s)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{
		"kind":     "pipe",
		"nps":      p.NPS.String(),
		"schedule": p.Schedule,
		"length":   num(req.Length),
	}
	return layoutPlan(f, s, fields, fmt.Sprintf("pipe-%s-sch%s-%s", p.NPS, p.Schedule, num(req.Length))), nil
}

func resolveElbow(req Request, s float64) (*plan, error) {
	p, err := dims.PipeSize(req.NPS, schedule(req))
	if err != nil {
		return nil, err
	}
	radius, ok := dims.ParseElbowRadius(req.Radius)
	if !ok {
		return nil, fmt.Errorf("unknown elbow radius %q", req.Radius)
	}
	clr, err := dims.ElbowCLRNPS(p.NPS, radius)
	if err != nil {
		return nil, err
	}
	angle := req.Angle
	if angle == 0 {
		angle = 90
	}
	f, err := fitting.NewElbow(p.Scale(s), clr*s, angle)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{
		"kind":     "elbow",
		"nps":      p.NPS.String(),
		"schedule": p.Schedule,
		"radius":   string(radius),
		"angle":    num(angle),
		"clr":      num(clr),
	}
	stem := fmt.Sprintf("elbow-%s-sch%s-%s-%s", p.NPS, p.Schedule, num(angle), radius)
	return layoutPlan(f, s, fields, stem), nil
}

// branchPlan resolves the run and outlet pipes and center-to-end sizes of a
// tee or cross.
func branchPlan(req Request, s float64, kind fitting.Kind,
	build func(run, branch dims.Pipe, c, m float64) (fitting.Fitting, error)) (*plan, error) {
	sch := schedule(req)
	tee, err := dims.TeeSize(req.NPS, req.Branch)
	if err != nil {
		return nil, err
	}
	run, err := dims.PipeSizeNPS(tee.Run, sch)
	if err != nil {
		return nil, err
	}
	branch, err := dims.PipeSizeNPS(tee.Branch, sch)
	if err != nil {
		return nil, err
	}
	f, err := build(run.Scale(s), branch.Scale(s), tee.C*s, tee.M*s)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{
		"kind":     kind.String(),
		"nps":      run.NPS.String(),
		"branch":   branch.NPS.String(),
		"schedule": run.Schedule,
		"c":        num(tee.C),
		"m":        num(tee.M),
	}
	stem := fmt.Sprintf("%s-%sx%s-sch%s", kind, run.NPS, branch.NPS, run.Schedule)
	return layoutPlan(f, s, fields, stem), nil
}

func resolveTee(req Request, s float64) (*plan, error) {
	return branchPlan(req, s, fitting.Tee, fitting.NewTee)
}

func resolveCross(req Request, s float64) (*plan, error) {
	return branchPlan(req, s, fitting.Cross, fitting.NewCross)
}

// resolveFlange draws the ring groove profile with a square hub end. The hub
// bevel goes through the same classify and chamfer path as every other end,
// so the neck is sized for the requested bevel but not cut here.
func resolveFlange(req Request, s float64) (*plan, error) {
	if req.Class == 0 {
		return nil, fmt.Errorf("flange class required (one of %v)", dims.Classes)
	}
	row, err := dims.FlangeSize(req.NPS, req.Class)
	if err != nil {
		return nil, err
	}
	pipe, err := dims.PipeSizeNPS(row.NPS, schedule(req))
	if err != nil {
		return nil, err
	}
	hub := req.Ends.For(fitting.Hub)
	hub.Land *= s
	params := ringgroove.FromFlange(row.Scale(s), pipe.Scale(s), hub)
	params.BevelAngle, params.Land = 0, 0
	profile, err := ringgroove.NewProfile(params)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{
		"kind":     "flange",
		"nps":      row.NPS.String(),
		"class":    strconv.Itoa(row.Class),
		"ring":     row.Ring,
		"schedule": pipe.Schedule,
		"t":        num(row.T),
		"q":        num(row.E),
	}
	return &plan{
		kind:     fitting.Flange,
		topology: profile.Hub(),
		build: func(k kernel.Kernel) (kernel.Solid, error) {
			return ringgroove.Build(k, profile, s)
		},
		fields: fields,
		stem:   fmt.Sprintf("flange-%s-cl%d-%s", row.NPS, row.Class, row.Ring),
	}, nil
}
