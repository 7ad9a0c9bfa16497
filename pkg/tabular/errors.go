package tabular

import (
	"fmt"
	"strings"
)

// InputError means the input file as a whole cannot be used. Nothing was
// processed when it is returned.
type InputError struct {
	Path    string
	Reason  string
	Missing []string
	Err     error

	// Suggestions maps a missing column to a similar header that is present.
	Suggestions map[string]string
}

func (e *InputError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "input %s: %s", e.Path, e.Reason)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Missing, ", "))
		for _, col := range e.Missing {
			if s, ok := e.Suggestions[col]; ok {
				fmt.Fprintf(&b, " (did you mean %q for %s?)", s, col)
			}
		}
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputError(path, reason string, err error) *InputError {
	return &InputError{Path: path, Reason: reason, Err: err}
}
