// Package tessellate walks a catalog and produces preview triangle meshes.
// One mesh is produced per job, laid out side by side along +X.
package tessellate

import (
	"context"
	"fmt"

	"github.com/chazu/spool/pkg/catalog"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/generate"
	"github.com/chazu/spool/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultGap is the spacing between laid-out bodies, in model units.
const DefaultGap = 2.0

// Generator builds one fitting. *generate.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, kind fitting.Kind, req generate.Request) generate.Result
}

// layout accumulates placement offsets while walking the catalog.
type layout struct {
	gap    float64
	cursor float64
}

// place moves m so that its bounds start at the cursor on X and are
// centred on the X axis, then advances the cursor past it.
func (l *layout) place(m *kernel.Mesh) {
	b := m.Bounds()
	m.Translate(r3.Vec{
		X: l.cursor - b.Min.X,
		Y: -(b.Min.Y + b.Max.Y) / 2,
		Z: -(b.Min.Z + b.Max.Z) / 2,
	})
	l.cursor += b.Max.X - b.Min.X + l.gap
}

// Tessellate builds every job of c without writing files and returns one
// mesh per job, named after the job. The tessellator is read-only and
// never mutates the catalog. A job that fails to build aborts the walk.
func Tessellate(ctx context.Context, g Generator, c *catalog.Catalog, gap float64) ([]*kernel.Mesh, error) {
	if c == nil {
		return nil, nil
	}
	if gap <= 0 {
		gap = DefaultGap
	}

	l := &layout{gap: gap}
	var meshes []*kernel.Mesh
	for _, j := range c.Jobs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := tessellateJob(ctx, g, j)
		if err != nil {
			return nil, fmt.Errorf("tessellate: job %s: %w", j.Name, err)
		}
		l.place(m)
		meshes = append(meshes, m)
	}
	return meshes, nil
}

func tessellateJob(ctx context.Context, g Generator, j *catalog.Job) (*kernel.Mesh, error) {
	req := j.Request
	req.DryRun = true
	req.Preview = true

	res := g.Generate(ctx, j.Kind, req)
	if !res.Success {
		if res.Err != nil {
			return nil, res.Err
		}
		return nil, fmt.Errorf("%s", res.Message)
	}
	if res.Mesh == nil || res.Mesh.IsEmpty() {
		return nil, fmt.Errorf("empty mesh")
	}
	res.Mesh.Name = j.Name
	return res.Mesh, nil
}
