package dims

import (
	"fmt"
	"sort"
	"strings"
)

// Pipe is a resolved pipe dimension tuple.
type Pipe struct {
	NPS      NPS
	Schedule string
	OD       float64
	Wall     float64
}

// ID returns the inside diameter.
func (p Pipe) ID() float64 {
	return p.OD - 2*p.Wall
}

// Scale returns the tuple with lengths multiplied by f.
func (p Pipe) Scale(f float64) Pipe {
	p.OD *= f
	p.Wall *= f
	return p
}

func (p Pipe) String() string {
	return fmt.Sprintf("NPS %s SCH %s (OD %.3f, wall %.3f)", p.NPS, p.Schedule, p.OD, p.Wall)
}

type pipeRow struct {
	nps   NPS
	od    float64
	walls map[string]float64
}

// Schedules lists the supported schedule designations.
var Schedules = []string{"5S", "10", "10S", "40", "40S", "STD", "80", "80S", "XS", "160", "XXS"}

// pipeTable holds B36.10M/B36.19M outside diameters and wall thicknesses.
var pipeTable = []pipeRow{
	{0.5, 0.840, map[string]float64{"5S": 0.065, "10S": 0.083, "10": 0.083, "40": 0.109, "80": 0.147, "160": 0.188, "XXS": 0.294}},
	{0.75, 1.050, map[string]float64{"5S": 0.065, "10S": 0.083, "10": 0.083, "40": 0.113, "80": 0.154, "160": 0.219, "XXS": 0.308}},
	{1, 1.315, map[string]float64{"5S": 0.065, "10S": 0.109, "10": 0.109, "40": 0.133, "80": 0.179, "160": 0.250, "XXS": 0.358}},
	{1.25, 1.660, map[string]float64{"5S": 0.065, "10S": 0.109, "10": 0.109, "40": 0.140, "80": 0.191, "160": 0.250, "XXS": 0.382}},
	{1.5, 1.900, map[string]float64{"5S": 0.065, "10S": 0.109, "10": 0.109, "40": 0.145, "80": 0.200, "160": 0.281, "XXS": 0.400}},
	{2, 2.375, map[string]float64{"5S": 0.065, "10S": 0.109, "10": 0.109, "40": 0.154, "80": 0.218, "160": 0.344, "XXS": 0.436}},
	{2.5, 2.875, map[string]float64{"5S": 0.083, "10S": 0.120, "10": 0.120, "40": 0.203, "80": 0.276, "160": 0.375, "XXS": 0.552}},
	{3, 3.500, map[string]float64{"5S": 0.083, "10S": 0.120, "10": 0.120, "40": 0.216, "80": 0.300, "160": 0.438, "XXS": 0.600}},
	{3.5, 4.000, map[string]float64{"5S": 0.083, "10S": 0.120, "10": 0.120, "40": 0.226, "80": 0.318}},
	{4, 4.500, map[string]float64{"5S": 0.083, "10S": 0.120, "10": 0.120, "40": 0.237, "80": 0.337, "160": 0.531, "XXS": 0.674}},
	{5, 5.563, map[string]float64{"5S": 0.109, "10S": 0.134, "10": 0.134, "40": 0.258, "80": 0.375, "160": 0.625, "XXS": 0.750}},
	{6, 6.625, map[string]float64{"5S": 0.109, "10S": 0.134, "10": 0.134, "40": 0.280, "80": 0.432, "160": 0.719, "XXS": 0.864}},
	{8, 8.625, map[string]float64{"5S": 0.109, "10S": 0.148, "10": 0.148, "40": 0.322, "80": 0.500, "160": 0.906, "XXS": 0.875}},
	{10, 10.750, map[string]float64{"5S": 0.134, "10S": 0.165, "10": 0.165, "40": 0.365, "80": 0.594, "160": 1.125, "XXS": 1.000}},
	{12, 12.750, map[string]float64{"5S": 0.156, "10S": 0.180, "10": 0.180, "40": 0.406, "80": 0.688, "160": 1.312, "XXS": 1.000}},
	{14, 14.000, map[string]float64{"5S": 0.156, "10S": 0.188, "10": 0.250, "40": 0.438, "80": 0.750, "160": 1.406}},
	{16, 16.000, map[string]float64{"5S": 0.165, "10S": 0.188, "10": 0.250, "40": 0.500, "80": 0.844, "160": 1.594}},
	{18, 18.000, map[string]float64{"5S": 0.165, "10S": 0.188, "10": 0.250, "40": 0.562, "80": 0.938, "160": 1.781}},
	{20, 20.000, map[string]float64{"5S": 0.188, "10S": 0.218, "10": 0.250, "40": 0.594, "80": 1.031, "160": 1.969}},
	{24, 24.000, map[string]float64{"5S": 0.218, "10S": 0.250, "10": 0.250, "40": 0.688, "80": 1.219, "160": 2.344}},
}

// Standard weight and extra strong walls follow sch 40/80 up to a size and
// are fixed beyond it.
const (
	stdCap = 0.375
	xsCap  = 0.500
)

func (r pipeRow) wall(schedule string) (float64, bool) {
	if w, ok := r.walls[schedule]; ok {
		return w, true
	}
	switch schedule {
	case "STD", "40S":
		if r.nps <= 10 {
			return r.walls["40"], true
		}
		if schedule == "40S" && r.nps > 12 {
			return 0, false
		}
		return stdCap, true
	case "XS", "80S":
		if r.nps <= 8 {
			return r.walls["80"], true
		}
		if schedule == "80S" && r.nps > 12 {
			return 0, false
		}
		return xsCap, true
	}
	return 0, false
}

// NormalizeSchedule upper-cases and strips a "SCH" prefix.
func NormalizeSchedule(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "SCH")
	return strings.TrimSpace(s)
}

func pipeRowFor(nps NPS) (pipeRow, bool) {
	for _, r := range pipeTable {
		if r.nps.key() == nps.key() {
			return r, true
		}
	}
	return pipeRow{}, false
}

// PipeSize resolves an NPS and schedule to OD and wall.
func PipeSize(nps, schedule string) (Pipe, error) {
	n, err := ParseNPS(nps)
	if err != nil {
		return Pipe{}, err
	}
	return PipeSizeNPS(n, schedule)
}

// PipeSizeNPS is PipeSize for an already parsed size.
func PipeSizeNPS(n NPS, schedule string) (Pipe, error) {
	sch := NormalizeSchedule(schedule)
	row, ok := pipeRowFor(n)
	if !ok {
		return Pipe{}, notFound("pipe", "NPS %s", n)
	}
	w, ok := row.wall(sch)
	if !ok {
		return Pipe{}, notFound("pipe", "NPS %s schedule %s", n, schedule)
	}
	return Pipe{NPS: n, Schedule: sch, OD: row.od, Wall: w}, nil
}

// PipeSizes returns every (NPS, schedule) pair the table can resolve, in
// table order.
func PipeSizes() []Pipe {
	var out []Pipe
	for _, r := range pipeTable {
		schedules := append([]string(nil), Schedules...)
		sort.Strings(schedules)
		for _, s := range schedules {
			if w, ok := r.wall(s); ok {
				out = append(out, Pipe{NPS: r.nps, Schedule: s, OD: r.od, Wall: w})
			}
		}
	}
	return out
}
