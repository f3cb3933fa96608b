// Package kerneltest provides kernel wrappers for exercising failure paths.
package kerneltest

import (
	"github.com/chazu/spool/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Faulty)(nil)

// Faulty wraps a kernel and reports failure from selected operations while
// still returning the wrapped kernel's result.
type Faulty struct {
	kernel.Kernel

	// FailUnionAt fails the n-th Union call (1-based). Zero disables.
	FailUnionAt int
	// FailDifferenceAt fails the n-th Difference call (1-based).
	FailDifferenceAt int
	// FailChamfer makes every Chamfer call report failure and return the
	// input solid.
	FailChamfer bool

	unions, differences, chamfers int
}

// Wrap returns a Faulty around k with no faults enabled.
func Wrap(k kernel.Kernel) *Faulty {
	return &Faulty{Kernel: k}
}

func (f *Faulty) Union(a, b kernel.Solid) (kernel.Solid, bool) {
	f.unions++
	s, ok := f.Kernel.Union(a, b)
	if f.unions == f.FailUnionAt {
		return s, false
	}
	return s, ok
}

func (f *Faulty) Difference(a, b kernel.Solid) (kernel.Solid, bool) {
	f.differences++
	s, ok := f.Kernel.Difference(a, b)
	if f.differences == f.FailDifferenceAt {
		return s, false
	}
	return s, ok
}

func (f *Faulty) Chamfer(s kernel.Solid, reqs []kernel.ChamferRequest) (kernel.Solid, bool) {
	f.chamfers++
	if f.FailChamfer {
		return s, false
	}
	return f.Kernel.Chamfer(s, reqs)
}

// Calls returns how many unions, differences and chamfers were issued.
func (f *Faulty) Calls() (unions, differences, chamfers int) {
	return f.unions, f.differences, f.chamfers
}
