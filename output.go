package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chazu/spool/pkg/batch"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/generate"
	"github.com/fatih/color"
)

func statusLabel(r generate.Result) string {
	switch {
	case !r.Success:
		return color.New(color.FgRed).Sprint("FAIL")
	case len(r.Warnings()) > 0:
		return color.New(color.FgYellow).Sprint("WARN")
	default:
		return color.New(color.FgGreen).Sprint("OK  ")
	}
}

func severityLabel(s fitting.Severity) string {
	switch s {
	case fitting.Error:
		return color.New(color.FgRed).Sprint(s)
	case fitting.Warning:
		return color.New(color.FgYellow).Sprint(s)
	default:
		return color.New(color.FgCyan).Sprint(s)
	}
}

// printResult writes one result as a status line followed by its
// diagnostics.
func printResult(w io.Writer, name string, r generate.Result) {
	fmt.Fprintf(w, "%s %s: %s\n", statusLabel(r), name, r.Message)
	if r.Filename != "" {
		fmt.Fprintf(w, "       file: %s\n", r.Filename)
	}
	for _, d := range r.Diagnostics {
		if d.End != "" {
			fmt.Fprintf(w, "       %s %s [%s] %s\n", severityLabel(d.Severity), d.Code, d.End, d.Message)
		} else {
			fmt.Fprintf(w, "       %s %s %s\n", severityLabel(d.Severity), d.Code, d.Message)
		}
	}
}

func printReport(w io.Writer, rep *batch.Report) {
	for _, it := range rep.Items {
		printResult(w, it.Job.Name, it.Result)
	}
	summary := fmt.Sprintf("%d succeeded, %d failed, %d warnings in %s",
		rep.Succeeded(), rep.Failed(), rep.Warnings(), rep.Duration.Round(1e6))
	if rep.Failed() > 0 {
		summary = color.New(color.FgRed).Sprint(summary)
	}
	fmt.Fprintf(w, "\n%s: %s\n", rep.Catalog, summary)
}

func printFindings(w io.Writer, ev EvalResult) {
	for _, e := range ev.Errors {
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgRed).Sprint("error:"), finding(e))
	}
	for _, e := range ev.Warnings {
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgYellow).Sprint("warning:"), finding(e))
	}
}

func finding(e EvalErrorData) string {
	switch {
	case e.Job != "":
		return fmt.Sprintf("job %s: %s", e.Job, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Message)
	default:
		return e.Message
	}
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode", err)
	}
	fmt.Fprintln(os.Stdout, string(b))
}
