package syntax

import "fmt"

// SyntaxError reports a problem reading source text.
type SyntaxError struct {
	Name string
	Line int
	Col  int
	Msg  string

	// Prev is an earlier error in the same read, if any.
	Prev *SyntaxError
}

func (e *SyntaxError) Error() string {
	at := fmt.Sprintf("%d:%d", e.Line, e.Col)
	if e.Name != "" {
		at = e.Name + ":" + at
	}
	return at + ": syntax error: " + e.Msg
}

// Unwrap exposes the earlier error.
func (e *SyntaxError) Unwrap() error {
	if e.Prev == nil {
		return nil
	}
	return e.Prev
}
