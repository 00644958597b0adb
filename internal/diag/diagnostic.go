package diag

import (
	"fmt"

	"fortio.org/safecast"
)

// Location points at a position inside a project file. A zero Location means
// the diagnostic is not tied to a file (project-level findings).
type Location struct {
	File   string
	Line   uint32
	Column uint32
}

// NewLocation converts 1-based line/column ints into a Location.
func NewLocation(file string, line, column int) (Location, error) {
	l, err := safecast.Conv[uint32](line)
	if err != nil {
		return Location{}, fmt.Errorf("line %d: %w", line, err)
	}
	c, err := safecast.Conv[uint32](column)
	if err != nil {
		return Location{}, fmt.Errorf("column %d: %w", column, err)
	}
	return Location{File: file, Line: l, Column: c}, nil
}

// IsZero reports whether the location is unset.
func (l Location) IsZero() bool {
	return l == Location{}
}

func (l Location) String() string {
	switch {
	case l.File == "":
		return "<project>"
	case l.Line == 0:
		return l.File
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

type Note struct {
	Loc Location
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}
