// Package catalog defines the catalog of generation jobs a script produces.
// A catalog is built once per evaluation and is not mutated afterwards;
// each evaluation produces a new catalog.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/generate"
)

// JobID is a content hash of a job's kind and request. Two jobs that would
// produce the same file have the same ID.
type JobID string

// ZeroID is the empty ID.
const ZeroID JobID = ""

// IsZero reports whether id is unset.
func (id JobID) IsZero() bool { return id == ZeroID }

// Short returns the first 8 hex digits, for messages.
func (id JobID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// hashed is the canonical form a JobID is computed from. The job name and
// output path are excluded: they label a job but do not change the body.
type hashed struct {
	Kind     string      `json:"kind"`
	NPS      string      `json:"nps"`
	Schedule string      `json:"schedule"`
	Branch   string      `json:"branch,omitempty"`
	Class    int         `json:"class,omitempty"`
	Radius   string      `json:"radius,omitempty"`
	Angle    float64     `json:"angle,omitempty"`
	Length   float64     `json:"length,omitempty"`
	Units    string      `json:"units,omitempty"`
	Ends     []hashedEnd `json:"ends,omitempty"`
}

type hashedEnd struct {
	Name  string  `json:"name"`
	Angle float64 `json:"angle"`
	Land  float64 `json:"land"`
}

// NewJobID hashes a job.
func NewJobID(kind fitting.Kind, req generate.Request) JobID {
	h := hashed{
		Kind:     kind.String(),
		NPS:      req.NPS,
		Schedule: req.Schedule,
		Branch:   req.Branch,
		Class:    req.Class,
		Radius:   req.Radius,
		Angle:    req.Angle,
		Length:   req.Length,
		Units:    req.Units,
	}
	for name, s := range req.Ends {
		h.Ends = append(h.Ends, hashedEnd{Name: name, Angle: s.Angle, Land: s.Land})
	}
	sort.Slice(h.Ends, func(i, j int) bool { return h.Ends[i].Name < h.Ends[j].Name })
	b, _ := json.Marshal(h)
	sum := sha256.Sum256(b)
	return JobID(hex.EncodeToString(sum[:]))
}

// Job is one fitting to generate.
type Job struct {
	ID      JobID            `json:"id"`
	Name    string           `json:"name"`
	Kind    fitting.Kind     `json:"kind"`
	Request generate.Request `json:"request"`
}

func (j *Job) String() string {
	return fmt.Sprintf("%s %s (%s)", j.Kind, j.Name, j.ID.Short())
}

// Defaults are catalog-wide settings applied to jobs that leave them unset.
type Defaults struct {
	Units     string `json:"units,omitempty"`
	Schedule  string `json:"schedule,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`
}

// Catalog is the ordered list of jobs produced by one evaluation.
type Catalog struct {
	Name      string         `json:"name"`
	Jobs      []*Job         `json:"jobs"`
	NameIndex map[string]int `json:"name_index"`
	Defaults  Defaults       `json:"defaults"`
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{NameIndex: make(map[string]int)}
}

// Add appends a job. A job without a name is named after its kind and
// position. Duplicate names are kept so that validation can report them.
func (c *Catalog) Add(j *Job) *Job {
	if j.Name == "" {
		j.Name = fmt.Sprintf("%s-%d", j.Kind, len(c.Jobs)+1)
	}
	j.Request.Name = j.Name
	if _, dup := c.NameIndex[j.Name]; !dup {
		c.NameIndex[j.Name] = len(c.Jobs)
	}
	c.Jobs = append(c.Jobs, j)
	return j
}

// Seal applies the catalog defaults to jobs that leave them unset and
// computes every job ID. It is called once evaluation has finished, so a
// (catalog ...) form may appear anywhere in a script.
func (c *Catalog) Seal() *Catalog {
	for _, j := range c.Jobs {
		if j.Request.Schedule == "" {
			j.Request.Schedule = c.Defaults.Schedule
		}
		if j.Request.Units == "" {
			j.Request.Units = c.Defaults.Units
		}
		j.ID = NewJobID(j.Kind, j.Request)
	}
	return c
}

// Lookup returns the first job with the given name, or nil.
func (c *Catalog) Lookup(name string) *Job {
	i, ok := c.NameIndex[name]
	if !ok {
		return nil
	}
	return c.Jobs[i]
}

// Len returns the number of jobs.
func (c *Catalog) Len() int {
	return len(c.Jobs)
}

// OfKind returns the jobs of one kind in catalog order.
func (c *Catalog) OfKind(k fitting.Kind) []*Job {
	var out []*Job
	for _, j := range c.Jobs {
		if j.Kind == k {
			out = append(out, j)
		}
	}
	return out
}
