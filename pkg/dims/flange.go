package dims

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Flange is a B16.5 ring-joint weld neck flange row.
//
//	O  flange outside diameter
//	T  thickness from the back of the plate to the raised face
//	X  hub diameter at the back of the plate
//	Y  length through hub
//	K  diameter of the raised portion
//	P  ring groove pitch diameter
//	E  ring groove depth
//	F  ring groove width at the face
type Flange struct {
	NPS   NPS
	Class int
	Ring  string
	O     float64
	T     float64
	X     float64
	Y     float64
	K     float64
	P     float64
	E     float64
	F     float64
}

// GrooveOD is the ring groove outer diameter at the face.
func (f Flange) GrooveOD() float64 { return f.P + f.F }

// GrooveID is the ring groove inner diameter at the face.
func (f Flange) GrooveID() float64 { return f.P - f.F }

// Scale returns the row with lengths multiplied by s.
func (f Flange) Scale(s float64) Flange {
	f.O *= s
	f.T *= s
	f.X *= s
	f.Y *= s
	f.K *= s
	f.P *= s
	f.E *= s
	f.F *= s
	return f
}

// Classes lists the supported pressure classes.
var Classes = []int{150, 300, 600, 900, 1500, 2500}

type flangeKey struct {
	nps   int
	class int
}

func fl(nps NPS, class int, ring string, o, t, x, y, k, p, e, f float64) Flange {
	return Flange{NPS: nps, Class: class, Ring: ring, O: o, T: t, X: x, Y: y, K: k, P: p, E: e, F: f}
}

var flangeTable = func() map[flangeKey]Flange {
	rows := []Flange{
		fl(1, 150, "R15", 4.25, 0.56, 1.94, 2.19, 2.50, 1.875, 0.250, 0.344),
		fl(2, 150, "R22", 6.00, 0.75, 3.06, 2.50, 4.00, 3.250, 0.250, 0.344),
		fl(3, 150, "R29", 7.50, 0.94, 4.25, 2.75, 5.25, 4.500, 0.250, 0.344),
		fl(4, 150, "R36", 9.00, 0.94, 5.31, 3.00, 6.75, 5.875, 0.250, 0.344),
		fl(6, 150, "R43", 11.00, 1.00, 7.56, 3.50, 8.50, 7.625, 0.250, 0.344),
		fl(8, 150, "R48", 13.50, 1.12, 9.69, 4.00, 11.50, 10.625, 0.250, 0.344),

		fl(1, 300, "R16", 4.88, 0.69, 2.12, 2.69, 2.75, 2.000, 0.250, 0.344),
		fl(2, 300, "R23", 6.50, 0.88, 3.31, 2.75, 4.25, 3.250, 0.312, 0.469),
		fl(3, 300, "R31", 8.25, 1.12, 4.62, 3.12, 5.75, 4.875, 0.312, 0.469),
		fl(4, 300, "R37", 10.00, 1.25, 5.75, 3.38, 6.88, 5.875, 0.312, 0.469),
		fl(6, 300, "R45", 12.50, 1.44, 8.12, 3.88, 9.50, 8.312, 0.312, 0.469),
		fl(8, 300, "R49", 15.00, 1.62, 10.25, 4.38, 11.88, 10.625, 0.312, 0.469),

		fl(1, 600, "R16", 4.88, 0.69, 2.12, 2.69, 2.75, 2.000, 0.250, 0.344),
		fl(2, 600, "R23", 6.50, 1.00, 3.31, 2.88, 4.25, 3.250, 0.312, 0.469),
		fl(3, 600, "R31", 8.25, 1.25, 4.62, 3.25, 5.75, 4.875, 0.312, 0.469),
		fl(4, 600, "R37", 10.75, 1.50, 6.00, 4.00, 6.88, 5.875, 0.312, 0.469),
		fl(6, 600, "R45", 14.00, 1.88, 8.75, 4.62, 9.50, 8.312, 0.312, 0.469),
		fl(8, 600, "R49", 16.50, 2.19, 10.75, 5.25, 11.88, 10.625, 0.312, 0.469),

		fl(1, 900, "R16", 5.88, 1.12, 2.06, 2.88, 2.81, 2.000, 0.250, 0.344),
		fl(2, 900, "R24", 8.50, 1.50, 4.12, 4.00, 4.88, 3.750, 0.312, 0.469),
		fl(3, 900, "R31", 9.50, 1.50, 5.00, 4.00, 6.12, 4.875, 0.312, 0.469),
		fl(4, 900, "R37", 11.50, 1.75, 6.25, 4.50, 7.12, 5.875, 0.312, 0.469),
		fl(6, 900, "R45", 15.00, 2.19, 9.25, 5.50, 9.81, 8.312, 0.312, 0.469),
		fl(8, 900, "R49", 18.50, 2.50, 11.75, 6.38, 12.12, 10.625, 0.375, 0.531),

		fl(1, 1500, "R16", 5.88, 1.12, 2.06, 2.88, 2.81, 2.000, 0.250, 0.344),
		fl(2, 1500, "R24", 8.50, 1.50, 4.12, 4.00, 4.88, 3.750, 0.312, 0.469),
		fl(3, 1500, "R35", 10.50, 1.88, 5.25, 4.62, 6.62, 5.375, 0.312, 0.469),
		fl(4, 1500, "R39", 12.25, 2.12, 6.38, 4.88, 7.62, 6.375, 0.312, 0.469),
		fl(6, 1500, "R46", 15.50, 3.25, 9.00, 6.75, 10.50, 9.000, 0.438, 0.656),
		fl(8, 1500, "R50", 19.00, 3.62, 11.50, 8.38, 12.75, 11.000, 0.562, 0.781),

		fl(1, 2500, "R18", 6.25, 1.38, 2.25, 3.50, 3.25, 2.375, 0.250, 0.344),
		fl(2, 2500, "R26", 9.25, 2.00, 3.75, 5.00, 5.25, 4.000, 0.312, 0.469),
		fl(3, 2500, "R32", 12.00, 2.62, 5.00, 6.62, 6.62, 5.000, 0.312, 0.469),
		fl(4, 2500, "R38", 14.00, 3.00, 6.50, 7.50, 8.00, 6.188, 0.438, 0.656),
		fl(6, 2500, "R47", 19.00, 4.25, 9.00, 10.00, 11.00, 9.000, 0.500, 0.781),
		fl(8, 2500, "R51", 21.75, 5.00, 11.25, 11.12, 13.25, 11.000, 0.562, 0.906),
	}
	m := make(map[flangeKey]Flange, len(rows))
	for _, r := range rows {
		m[flangeKey{r.NPS.key(), r.Class}] = r
	}
	return m
}()

// ParseClass accepts "600", "600#", "CL600" and "class 600".
func ParseClass(s string) (int, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	t = strings.TrimSuffix(t, "#")
	t = strings.TrimPrefix(t, "CLASS")
	t = strings.TrimPrefix(t, "CL")
	c, err := strconv.Atoi(strings.TrimSpace(t))
	if err != nil {
		return 0, fmt.Errorf("flange class %q: %w", s, err)
	}
	return c, nil
}

// FlangeSize resolves a ring-joint weld neck flange.
func FlangeSize(nps string, class int) (Flange, error) {
	n, err := ParseNPS(nps)
	if err != nil {
		return Flange{}, err
	}
	return FlangeSizeNPS(n, class)
}

// FlangeSizeNPS is FlangeSize for an already parsed size.
func FlangeSizeNPS(n NPS, class int) (Flange, error) {
	f, ok := flangeTable[flangeKey{n.key(), class}]
	if !ok {
		return Flange{}, notFound("flange", "NPS %s class %d", n, class)
	}
	return f, nil
}

// FlangeSizes returns every row ordered by class then size.
func FlangeSizes() []Flange {
	out := make([]Flange, 0, len(flangeTable))
	for _, f := range flangeTable {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].NPS < out[j].NPS
	})
	return out
}
