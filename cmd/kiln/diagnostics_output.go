package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"kiln/internal/diag"
)

var (
	errorLabel   = color.New(color.FgRed, color.Bold)
	warningLabel = color.New(color.FgYellow, color.Bold)
	infoLabel    = color.New(color.FgCyan)
	noteLabel    = color.New(color.FgBlue)
)

func severityLabel(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return errorLabel.Sprint(sev.Label())
	case diag.SevWarning:
		return warningLabel.Sprint(sev.Label())
	default:
		return infoLabel.Sprint(sev.Label())
	}
}

// printDiagnostics writes one line per diagnostic plus its notes. Paths are
// shown relative to baseDir.
func printDiagnostics(out io.Writer, diags []diag.Diagnostic, baseDir string, quiet bool) error {
	for _, d := range diags {
		if quiet && d.Severity < diag.SevError {
			continue
		}
		loc := diag.FormatLocation(d.Primary, baseDir)
		if _, err := fmt.Fprintf(out, "%s: %s[%s]: %s\n", loc, severityLabel(d.Severity), d.Code.ID(), diag.Clean(d.Message)); err != nil {
			return err
		}
		for _, n := range d.Notes {
			nloc := ""
			if !n.Loc.IsZero() {
				nloc = " " + diag.FormatLocation(n.Loc, baseDir) + ":"
			}
			if _, err := fmt.Fprintf(out, "  %s%s %s\n", noteLabel.Sprint("note:"), nloc, diag.Clean(n.Msg)); err != nil {
				return err
			}
		}
	}
	return nil
}
