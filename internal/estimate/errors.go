package estimate

import "fmt"

// FormatError reports an income bracket label that matches no bound rule.
// It signals a schema problem in the income table and aborts the run.
type FormatError struct {
	Label  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("estimate: unexpected income bracket format %q: %s", e.Label, e.Reason)
}
