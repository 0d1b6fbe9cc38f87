package reviewsapi

import "errors"

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid reviews api config")

	// ErrNotFound is returned for 404 responses
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when the backend rejects the payload (4xx)
	ErrValidation = errors.New("rejected by backend")

	// ErrNetwork covers transport failures and 5xx responses; callers may retry
	ErrNetwork = errors.New("network error")
)

// IsRetryable reports whether a later attempt can succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork)
}
