package entry

import "errors"

// Error kinds returned by the core. Services wrap these with context via
// fmt.Errorf("%w: ...", ...); the api module translates kinds to HTTP status
// codes. The core never swallows them.
var (
	// ErrValidation marks malformed input the caller can fix.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when a referenced entry does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrForbidden is returned when an authenticated caller is not
	// authorized for the requested entry or scope.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned to the loser of a concurrent update race.
	ErrConflict = errors.New("conflicting update")
	// ErrStoreUnavailable is returned when the durable store cannot be
	// reached. Retryable by the caller.
	ErrStoreUnavailable = errors.New("store unavailable")
)
