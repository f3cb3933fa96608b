package dims

import "strings"

// ElbowRadius selects long- or short-radius elbows.
type ElbowRadius string

const (
	LongRadius  ElbowRadius = "long"
	ShortRadius ElbowRadius = "short"
)

// ParseElbowRadius accepts "long"/"LR" and "short"/"SR".
func ParseElbowRadius(s string) (ElbowRadius, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "long", "lr":
		return LongRadius, true
	case "short", "sr":
		return ShortRadius, true
	}
	return "", false
}

// B16.9 long radius elbows have CLR = 1.5 x NPS except at 1/2 and 3/4.
var longRadiusOverrides = map[int]float64{
	NPS(0.5).key():  1.50,
	NPS(0.75).key(): 1.125,
}

// ElbowCLR returns the elbow center-line radius.
func ElbowCLR(nps string, radius ElbowRadius) (float64, error) {
	n, err := ParseNPS(nps)
	if err != nil {
		return 0, err
	}
	return ElbowCLRNPS(n, radius)
}

// ElbowCLRNPS is ElbowCLR for an already parsed size.
func ElbowCLRNPS(n NPS, radius ElbowRadius) (float64, error) {
	if _, ok := pipeRowFor(n); !ok {
		return 0, notFound("elbow", "NPS %s", n)
	}
	switch radius {
	case LongRadius:
		if clr, ok := longRadiusOverrides[n.key()]; ok {
			return clr, nil
		}
		return 1.5 * float64(n), nil
	case ShortRadius:
		if n < 1 {
			return 0, notFound("elbow", "NPS %s short radius", n)
		}
		return float64(n), nil
	}
	return 0, notFound("elbow", "NPS %s radius %q", n, radius)
}

// teeCenterToEnd is the B16.9 straight tee/cross center-to-end C.
var teeCenterToEnd = map[int]float64{
	NPS(0.5).key():  1.00,
	NPS(0.75).key(): 1.125,
	NPS(1).key():    1.50,
	NPS(1.25).key(): 1.875,
	NPS(1.5).key():  2.25,
	NPS(2).key():    2.50,
	NPS(2.5).key():  3.00,
	NPS(3).key():    3.375,
	NPS(3.5).key():  3.75,
	NPS(4).key():    4.125,
	NPS(5).key():    4.875,
	NPS(6).key():    5.625,
	NPS(8).key():    7.00,
	NPS(10).key():   8.50,
	NPS(12).key():   10.00,
	NPS(14).key():   11.00,
	NPS(16).key():   12.00,
	NPS(18).key():   13.50,
	NPS(20).key():   15.00,
	NPS(24).key():   17.00,
}

// Tee holds branch-fitting center-to-end dimensions: C along the run and M
// along the outlet.
type Tee struct {
	Run    NPS
	Branch NPS
	C      float64
	M      float64
}

// TeeSize returns center-to-end dimensions for a tee or cross. Reducing
// outlets take M = C of the run size; outlets larger than the run are not
// made.
func TeeSize(run, branch string) (Tee, error) {
	r, err := ParseNPS(run)
	if err != nil {
		return Tee{}, err
	}
	b := r
	if strings.TrimSpace(branch) != "" {
		if b, err = ParseNPS(branch); err != nil {
			return Tee{}, err
		}
	}
	return TeeSizeNPS(r, b)
}

// TeeSizeNPS is TeeSize for already parsed sizes.
func TeeSizeNPS(run, branch NPS) (Tee, error) {
	c, ok := teeCenterToEnd[run.key()]
	if !ok {
		return Tee{}, notFound("tee", "NPS %s", run)
	}
	if _, ok := pipeRowFor(branch); !ok || branch > run {
		return Tee{}, notFound("tee", "NPS %s x %s", run, branch)
	}
	return Tee{Run: run, Branch: branch, C: c, M: c}, nil
}
