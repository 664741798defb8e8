package fanout

import "errors"

var (
	// ErrHubClosed is returned when operations are attempted on a closed hub.
	ErrHubClosed = errors.New("fanout: hub is closed")

	// ErrPublishFailed wraps backbone transport failures during Emit.
	ErrPublishFailed = errors.New("fanout: failed to publish event")
)
