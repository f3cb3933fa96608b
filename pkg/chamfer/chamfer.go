// Package chamfer applies classified weld bevels to a body in one batch.
package chamfer

import (
	"fmt"
	"math"

	"github.com/chazu/spool/pkg/classify"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/kernel"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Outcome is the result of applying a batch. Body is always usable: on
// failure it is the body that was passed in.
type Outcome struct {
	Body        kernel.Solid
	Applied     []classify.Assignment
	Diagnostics []fitting.Diagnostic
}

// Beveled reports whether any bevel was cut.
func (o Outcome) Beveled() bool { return len(o.Applied) > 0 }

// Request converts an assignment into a kernel chamfer request.
func Request(a classify.Assignment) kernel.ChamferRequest {
	return kernel.ChamferRequest{
		Edge:     a.Edge,
		Face:     a.Face,
		Distance: a.Depth,
		Angle:    a.Angle * math.Pi / 180,
	}
}

// Apply cuts every assignment with a positive angle in a single kernel
// chamfer call. If the kernel does not complete the batch, the input body
// is returned with a warning and no bevel is applied.
func Apply(k kernel.Kernel, body kernel.Solid, assignments []classify.Assignment, log *zap.Logger) Outcome {
	if log == nil {
		log = zap.NewNop()
	}
	batch := lo.Filter(assignments, func(a classify.Assignment, _ int) bool { return a.Angle > 0 })
	if len(batch) == 0 {
		return Outcome{Body: body}
	}

	out, ok := k.Chamfer(body, lo.Map(batch, func(a classify.Assignment, _ int) kernel.ChamferRequest {
		return Request(a)
	}))
	if !ok {
		ends := lo.Map(batch, func(a classify.Assignment, _ int) string { return a.End })
		msg := fmt.Sprintf("chamfer of %d end(s) did not complete; ends left square cut", len(batch))
		if le, ok := k.(interface{ LastError() error }); ok && le.LastError() != nil {
			msg += ": " + le.LastError().Error()
		}
		log.Warn("chamfer failed, keeping square-cut body", zap.Strings("ends", ends), zap.String("reason", msg))
		return Outcome{
			Body: body,
			Diagnostics: []fitting.Diagnostic{{
				Severity: fitting.Warning,
				Code:     fitting.CodeChamferFailed,
				Message:  msg,
			}},
		}
	}
	log.Debug("chamfers applied", zap.Int("count", len(batch)))
	return Outcome{Body: out, Applied: batch}
}
