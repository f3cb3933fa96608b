package catalog

import (
	"fmt"

	"github.com/chazu/spool/pkg/export"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/generate"
)

// ValidationSeverity indicates whether a finding blocks generation or is
// merely advisory.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks generation
	SeverityWarning                           // advisory
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Job      string             // job name (empty if catalog-level)
	JobID    JobID              // job content hash
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Job == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] job %s: %s", e.Severity, e.Job, e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory) from
// all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the Tier 1 structural checks and returns their findings.
// It never mutates the catalog.
func Validate(c *Catalog) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNames(c)...)
	errs = append(errs, validateDuplicateJobs(c)...)
	errs = append(errs, validateOutputs(c)...)
	return errs
}

// ValidateAll runs every tier (structural, then configuration checks against
// the dimension tables and bevel rules) and separates errors from warnings.
// units is the default when neither the job nor the catalog names one.
func ValidateAll(c *Catalog, units export.Units) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(c) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	// Tier 2: configuration.
	errs, warnings := validateConfiguration(c, units)
	result.Errors = append(result.Errors, errs...)
	result.Warnings = append(result.Warnings, warnings...)
	return result
}

// ---------------------------------------------------------------------------
// Tier 1: Structure
// ---------------------------------------------------------------------------

// validateNames reports jobs sharing a name. Names key the manifest and the
// default file names, so duplicates would overwrite each other.
func validateNames(c *Catalog) []ValidationError {
	var errs []ValidationError
	first := make(map[string]int)
	for i, j := range c.Jobs {
		if prev, ok := first[j.Name]; ok {
			errs = append(errs, ValidationError{
				Job:      j.Name,
				JobID:    j.ID,
				Message:  fmt.Sprintf("duplicate job name (first defined as job %d)", prev+1),
				Severity: SeverityError,
			})
			continue
		}
		first[j.Name] = i
	}
	return errs
}

// validateDuplicateJobs warns about differently named jobs that would build
// identical bodies.
func validateDuplicateJobs(c *Catalog) []ValidationError {
	var errs []ValidationError
	seen := make(map[JobID]string)
	for _, j := range c.Jobs {
		if j.ID.IsZero() {
			continue
		}
		if prev, ok := seen[j.ID]; ok && prev != j.Name {
			errs = append(errs, ValidationError{
				Job:      j.Name,
				JobID:    j.ID,
				Message:  fmt.Sprintf("identical to job %s", prev),
				Severity: SeverityWarning,
			})
			continue
		}
		seen[j.ID] = j.Name
	}
	return errs
}

// validateOutputs reports jobs writing to the same explicit path.
func validateOutputs(c *Catalog) []ValidationError {
	var errs []ValidationError
	owner := make(map[string]string)
	for _, j := range c.Jobs {
		out := j.Request.Output
		if out == "" {
			continue
		}
		if prev, ok := owner[out]; ok {
			errs = append(errs, ValidationError{
				Job:      j.Name,
				JobID:    j.ID,
				Message:  fmt.Sprintf("output %s already written by job %s", out, prev),
				Severity: SeverityError,
			})
			continue
		}
		owner[out] = j.Name
	}
	return errs
}

// ---------------------------------------------------------------------------
// Tier 2: Configuration
// ---------------------------------------------------------------------------

// validateConfiguration resolves every job without building it. A job that
// would abort is an error; square-cut ends are advisory.
func validateConfiguration(c *Catalog, units export.Units) ([]ValidationError, []ValidationError) {
	var errs, warnings []ValidationError
	for _, j := range c.Jobs {
		diags, err := generate.Check(j.Kind, j.Request, units)
		if err != nil {
			errs = append(errs, ValidationError{
				Job:      j.Name,
				JobID:    j.ID,
				Message:  err.Error(),
				Severity: SeverityError,
			})
			continue
		}
		for _, d := range diags {
			if d.Code != fitting.CodeSquareCut {
				continue
			}
			warnings = append(warnings, ValidationError{
				Job:      j.Name,
				JobID:    j.ID,
				Message:  fmt.Sprintf("%s is square cut", d.End),
				Severity: SeverityWarning,
			})
		}
	}
	return errs, warnings
}
