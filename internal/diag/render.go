package diag

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FormatShort renders diagnostics one per line in insertion order:
//
//	error CMP3002 src/main.kl:1:1 duplicate source file "src/main.kl"
//
// Notes follow their diagnostic as "note" lines when includeNotes is set.
// Paths are made relative to baseDir when possible.
func FormatShort(diags []Diagnostic, baseDir string, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s %s %s", d.Severity.Label(), d.Code.ID(), relLocation(d.Primary, baseDir), sanitizeMessage(d.Message))
		if !includeNotes {
			continue
		}
		for _, note := range d.Notes {
			fmt.Fprintf(&b, "\nnote %s %s %s", d.Code.ID(), relLocation(note.Loc, baseDir), sanitizeMessage(note.Msg))
		}
	}
	return b.String()
}

// FormatLocation renders loc with its file made relative to baseDir.
func FormatLocation(loc Location, baseDir string) string {
	return relLocation(loc, baseDir)
}

// Clean flattens msg onto one line.
func Clean(msg string) string {
	return sanitizeMessage(msg)
}

func relLocation(loc Location, baseDir string) string {
	if loc.File == "" || baseDir == "" || !filepath.IsAbs(loc.File) {
		loc.File = normalizePath(loc.File)
		return loc.String()
	}
	if rel, err := filepath.Rel(baseDir, loc.File); err == nil && !strings.HasPrefix(rel, "..") {
		loc.File = rel
	}
	loc.File = normalizePath(loc.File)
	return loc.String()
}

func normalizePath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return p
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
