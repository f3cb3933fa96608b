package generate

import (
	"fmt"

	"github.com/chazu/spool/pkg/classify"
	"github.com/chazu/spool/pkg/export"
	"github.com/chazu/spool/pkg/fitting"
)

var resolvers = map[fitting.Kind]resolver{
	fitting.Pipe:   resolvePipe,
	fitting.Elbow:  resolveElbow,
	fitting.Tee:    resolveTee,
	fitting.Cross:  resolveCross,
	fitting.Flange: resolveFlange,
}

// Check resolves a request without touching the kernel: dimensions, bevel
// bindings and, for flanges, the ring groove profile. It returns the
// diagnostics a generation would start with, or the configuration error it
// would abort on.
func Check(kind fitting.Kind, req Request, units export.Units) ([]fitting.Diagnostic, error) {
	resolve, ok := resolvers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown fitting kind %s", ErrConfig, kind)
	}
	if req.Units != "" {
		u, err := export.ParseUnits(req.Units)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		units = u
	}
	s := units.PerInch()
	p, err := resolve(req, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	_, diags, err := classify.Targets(p.topology, scaleEnds(req.Ends, s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return diags, nil
}
