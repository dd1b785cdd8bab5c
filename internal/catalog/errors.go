package catalog

import "errors"

// Sentinel errors returned by the client after retry handling.
var (
	// ErrUnavailable marks transient transport failures that persisted
	// through the retry policy.
	ErrUnavailable = errors.New("catalog: service unavailable")

	// ErrQueryRejected marks search or listing requests the service
	// refused. These are never retried.
	ErrQueryRejected = errors.New("catalog: query rejected")

	// ErrSubmissionRejected marks order submissions the service refused.
	ErrSubmissionRejected = errors.New("catalog: order submission rejected")
)
