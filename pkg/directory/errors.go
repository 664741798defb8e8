package directory

import "errors"

var (
	// ErrUserNotFound means the identifier has no directory record. Permanent, not retryable.
	ErrUserNotFound = errors.New("directory: user not found")

	// ErrUnavailable means the directory service could not be reached or
	// returned an unusable response. Transient, retryable by the caller.
	ErrUnavailable = errors.New("directory: service unavailable")

	// ErrEmptyUserID is returned for blank identifiers.
	ErrEmptyUserID = errors.New("directory: empty user id")

	// ErrMissingBaseURL means the client was constructed without a service URL.
	ErrMissingBaseURL = errors.New("directory: base URL is not configured")
)
