package types

import "fmt"

// ValidationError reports a record that is missing a required field or
// carries a value outside its allowed set. Rejected at upsert time; never
// silently defaulted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}
