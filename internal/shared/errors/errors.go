package errors

import "errors"

// Domain errors
var (
	// Target errors
	ErrEmptyTarget   = errors.New("target cannot be empty")
	ErrInvalidTarget = errors.New("invalid target")
	ErrInvalidPort   = errors.New("port must be between 1 and 65535")

	// Connectivity errors
	ErrNoReachablePort = errors.New("no reachable port among candidates")

	// Evaluation errors
	ErrNoProbes       = errors.New("no probes configured")
	ErrUnknownProfile = errors.New("unknown evaluation profile")

	// Rating errors
	ErrEmptyBands    = errors.New("rating bands cannot be empty")
	ErrBandOrder     = errors.New("rating band thresholds must be strictly ascending")
	ErrBandRating    = errors.New("rating band values must be within 1..5 and non-increasing")
	ErrUnknownPreset = errors.New("unknown rating preset")

	// Lookup errors
	ErrNoARecord      = errors.New("no A record found")
	ErrNoOrganization = errors.New("organization not found in response")
	ErrNoReplies      = errors.New("no echo replies received")

	// Validation errors
	ErrValidation   = errors.New("validation error")
	ErrInvalidInput = errors.New("invalid input")
)
