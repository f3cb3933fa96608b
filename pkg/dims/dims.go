// Package dims resolves nominal size designations to physical dimensions.
//
// Tables follow ASME B36.10M/B36.19M (pipe), B16.9 (butt-weld fittings) and
// B16.5 (ring-joint weld neck flanges). All values are in inches.
package dims

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("designation not found")

// NotFoundError reports a designation absent from a table.
type NotFoundError struct {
	Table       string
	Designation string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no entry for %s", e.Table, e.Designation)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(table, format string, args ...any) error {
	return &NotFoundError{Table: table, Designation: fmt.Sprintf(format, args...)}
}

// NPS is a nominal pipe size in inches, e.g. 1.5 for "1-1/2".
type NPS float64

// ParseNPS accepts "4", "1-1/2", "1 1/2", "1.5", "1/2" and an optional
// trailing inch mark.
func ParseNPS(s string) (NPS, error) {
	t := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "\""))
	if t == "" {
		return 0, fmt.Errorf("nps: empty size")
	}
	var whole, frac string
	switch {
	case strings.Contains(t, "-"):
		parts := strings.SplitN(t, "-", 2)
		whole, frac = parts[0], parts[1]
	case strings.Contains(t, " "):
		parts := strings.Fields(t)
		if len(parts) != 2 {
			return 0, fmt.Errorf("nps: bad size %q", s)
		}
		whole, frac = parts[0], parts[1]
	case strings.Contains(t, "/"):
		frac = t
	default:
		whole = t
	}

	var v float64
	if whole != "" {
		w, err := strconv.ParseFloat(whole, 64)
		if err != nil {
			return 0, fmt.Errorf("nps: bad size %q: %w", s, err)
		}
		v = w
	}
	if frac != "" {
		num, den, ok := strings.Cut(frac, "/")
		if !ok {
			return 0, fmt.Errorf("nps: bad fraction in %q", s)
		}
		n, err1 := strconv.Atoi(num)
		d, err2 := strconv.Atoi(den)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, fmt.Errorf("nps: bad fraction in %q", s)
		}
		v += float64(n) / float64(d)
	}
	if v <= 0 {
		return 0, fmt.Errorf("nps: size %q must be positive", s)
	}
	return NPS(v), nil
}

// String formats the size the way it is written on drawings.
func (n NPS) String() string {
	v := float64(n)
	whole := int(v)
	rem := v - float64(whole)
	for _, f := range []struct {
		v float64
		s string
	}{{0.25, "1/4"}, {0.5, "1/2"}, {0.75, "3/4"}} {
		if abs(rem-f.v) < 1e-9 {
			if whole == 0 {
				return f.s
			}
			return fmt.Sprintf("%d-%s", whole, f.s)
		}
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (n NPS) key() int {
	return int(float64(n)*1000 + 0.5)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
