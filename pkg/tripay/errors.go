package tripay

import "errors"

var (
	// ErrConfigIncomplete means one of the credential settings is missing.
	ErrConfigIncomplete = errors.New("TRIPAY_CONFIG_INCOMPLETE")
	// ErrUnavailable covers network failures, non-2xx responses and
	// success:false envelopes.
	ErrUnavailable = errors.New("TRIPAY_UNAVAILABLE")
	ErrTimeout     = errors.New("TRIPAY_TIMEOUT")
	// ErrNotFound is returned when a channel or fee quote is absent. Callers
	// may proceed with a fallback channel.
	ErrNotFound = errors.New("TRIPAY_NOT_FOUND")
)
