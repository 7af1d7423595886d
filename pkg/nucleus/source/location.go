// Package source carries the minimal position information attached to
// IR instructions and surfaced in diagnostics.
package source

import "fmt"

// Location names a point in a source file, used for diagnostics only;
// the nucleus never reads the file back.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	if l.Line > 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return l.File
}

// IsZero reports whether no location information was recorded.
func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Column == 0
}
