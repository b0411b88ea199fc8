// File: internal/markup/errors.go
package markup

import "fmt"

// StructuralError reports a tag mismatch or other structural problem found
// under strict parsing. HTML-recovery mode never produces one; malformed
// input degrades into a best-effort tree instead.
type StructuralError struct {
	Msg    string
	Tag    string
	Offset int
}

func (e *StructuralError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("markup: %s at offset %d", e.Msg, e.Offset)
	}
	return fmt.Sprintf("markup: %s: %q at offset %d", e.Msg, e.Tag, e.Offset)
}

func structural(offset int, tag, msg string) *StructuralError {
	return &StructuralError{Msg: msg, Tag: tag, Offset: offset}
}
