package services

import "errors"

// Sentinel errors returned by the services. Controllers map these onto HTTP
// status codes with errors.Is; anything else is a server-side failure.
var (
	// ErrNotFound means a referenced payment or refund request does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness or state-machine rule was violated:
	// a second refund request for the same payment, or a decision on a
	// request that already left pending.
	ErrConflict = errors.New("conflict")

	// ErrInvalidArgument means a required field is missing or malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstream means the payment processor could not be reached or
	// answered with an error. The caller may retry by resubmitting the same
	// reference; the reference uniqueness makes that safe.
	ErrUpstream = errors.New("upstream failure")
)
