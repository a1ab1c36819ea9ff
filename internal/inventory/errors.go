package inventory

import "fmt"

// ParseError is returned when a campaign or drop record is malformed.
// The offending record is skipped; it never fails a whole inventory refresh.
type ParseError struct {
	Kind string // "campaign" or "drop"
	ID   string
	Err  error
}

func (e *ParseError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("parse %s %s: %v", e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
