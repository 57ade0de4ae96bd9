package vault

import "errors"

// Error kinds reported by store operations. Callers match them with
// errors.Is; the wrapped message carries the offending id or value.
var (
	// ErrInvalidReference means a mutation named an id that does not
	// exist in the store at call time.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidArgument means a supplied value violates a structural
	// precondition (empty name, non-positive expiry, unknown enum value).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound means a query asked about an id absent from the store.
	ErrNotFound = errors.New("not found")
)
