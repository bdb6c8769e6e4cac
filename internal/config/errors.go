package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Sentinel errors allow callers to use errors.Is while keeping the
// messages human-readable; these are all fatal before any network
// request is made.
var (
	// ErrNoRootURL is returned when no root URL argument was given.
	ErrNoRootURL = errors.New("no root URL specified")

	// ErrInvalidRootURL is returned when the root URL is not an
	// absolute http or https URL.
	ErrInvalidRootURL = errors.New("invalid root URL: must be absolute http(s)")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidMaxPages is returned when the page limit is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidJitter is returned when the jitter is negative.
	ErrInvalidJitter = errors.New("invalid jitter: must be non-negative")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidSaveEvery is returned when the checkpoint cadence is not
	// positive.
	ErrInvalidSaveEvery = errors.New("invalid save-every: must be positive")

	// ErrInvalidMaxBodySize is returned when the body size limit is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
