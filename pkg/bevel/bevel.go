// Package bevel converts weld bevel requests into chamfer geometry.
package bevel

import (
	"fmt"
	"math"
)

const (
	// WeldAngle is the standard butt-weld bevel angle in degrees.
	WeldAngle = 37.5
	// StandardLand is the usual root face thickness, 1/16 inch.
	StandardLand = 0.0625
	// MaxAngle bounds requested bevel angles in degrees.
	MaxAngle = 60.0
)

// ConfigError reports a bevel configuration that cannot be cut.
type ConfigError struct {
	End    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.End == "" {
		return "bevel: " + e.Reason
	}
	return fmt.Sprintf("bevel %q: %s", e.End, e.Reason)
}

// Spec is the bevel requested at one end. An Angle of zero means a square
// cut. Angle is in degrees; Land is in model units.
type Spec struct {
	Angle float64 `yaml:"angle" json:"angle"`
	Land  float64 `yaml:"land" json:"land"`
}

// Square is the square-cut bevel.
var Square = Spec{}

// Standard is the 37.5 degree bevel with a 1/16 land.
var Standard = Spec{Angle: WeldAngle, Land: StandardLand}

// SquareCut reports whether the bevel is a square cut.
func (s Spec) SquareCut() bool {
	return s.Angle <= 0
}

// Validate checks the bevel on its own, without a wall thickness.
func (s Spec) Validate() error {
	switch {
	case math.IsNaN(s.Angle) || math.IsNaN(s.Land):
		return &ConfigError{Reason: "angle and land must be numbers"}
	case s.Angle < 0 || s.Angle > MaxAngle:
		return &ConfigError{Reason: fmt.Sprintf("angle %g outside [0, %g] degrees", s.Angle, MaxAngle)}
	case s.Land < 0:
		return &ConfigError{Reason: fmt.Sprintf("land %g is negative", s.Land)}
	}
	return nil
}

// Radians returns the angle in radians.
func (s Spec) Radians() float64 {
	return s.Angle * math.Pi / 180
}

// Depth returns the chamfer depth for an end of the given wall thickness:
// zero for a square cut, otherwise wall - land. A land thicker than the
// wall is a configuration error; the depth is never clamped.
func Depth(wall, angle, land float64) (float64, error) {
	if angle <= 0 {
		return 0, nil
	}
	d := wall - land
	if d < 0 {
		return d, &ConfigError{Reason: fmt.Sprintf("land %g exceeds wall %g", land, wall)}
	}
	return d, nil
}

// SpecDepth validates s and returns its depth for the given wall.
func SpecDepth(end string, s Spec, wall float64) (float64, error) {
	if err := s.Validate(); err != nil {
		err.(*ConfigError).End = end
		return 0, err
	}
	d, err := Depth(wall, s.Angle, s.Land)
	if err != nil {
		err.(*ConfigError).End = end
		return 0, err
	}
	return d, nil
}

// Setback is the axial length of a bevel of the given depth and angle
// (degrees) measured from the end plane.
func Setback(depth, angle float64) float64 {
	if angle <= 0 {
		return 0
	}
	return depth * math.Tan(angle*math.Pi/180)
}

// Ends binds bevel specs to end names.
type Ends map[string]Spec

// Uniform applies one spec to every named end.
func Uniform(s Spec, names ...string) Ends {
	e := make(Ends, len(names))
	for _, n := range names {
		e[n] = s
	}
	return e
}

// For returns the bevel bound to name, or a square cut.
func (e Ends) For(name string) Spec {
	if s, ok := e[name]; ok {
		return s
	}
	return Square
}
