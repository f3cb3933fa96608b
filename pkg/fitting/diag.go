package fitting

import "fmt"

// Severity distinguishes advisory notes from conditions that degraded the
// result.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic codes.
const (
	CodeSquareCut     = "square-cut"
	CodeNoMatch       = "no-match"
	CodeAmbiguous     = "ambiguous"
	CodeFaceFallback  = "face-fallback"
	CodeNoFace        = "no-face"
	CodeChamferFailed = "chamfer-failed"
)

// Diagnostic is a non-fatal condition reported during generation.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	End      string   `json:"end,omitempty"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.End == "" {
		return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s %s [%s]: %s", d.Severity, d.Code, d.End, d.Message)
}

// Warnings filters diagnostics of Warning severity or worse.
func Warnings(ds []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range ds {
		if d.Severity >= Warning {
			out = append(out, d)
		}
	}
	return out
}
