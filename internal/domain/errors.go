package domain

import "errors"

// Domain errors represent error conditions in the modelstation domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrPromptTimeout is returned when the console prompt does not appear
	// within the synchronization budget. No identity was obtained, so the
	// port remains eligible for retry on a later poll cycle.
	ErrPromptTimeout = errors.New("modelstation: timed out waiting for console prompt")

	// ErrIdentityParse is returned when the "id" response contains no
	// well-formed device identity. The port remains retriable.
	ErrIdentityParse = errors.New("modelstation: no device identity in response")

	// ErrVerificationMismatch is returned when "model get" does not confirm
	// the programmed model number. The identity is still marked processed
	// (fail-once) and is not retried within the run.
	ErrVerificationMismatch = errors.New("modelstation: model verification mismatch")

	// ErrSessionState is returned when a console session operation is
	// attempted from a state that does not permit it.
	ErrSessionState = errors.New("modelstation: invalid session state")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("modelstation: invalid configuration")
)
