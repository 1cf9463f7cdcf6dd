// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication (bad credentials, unknown token subject).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken indicates a bearer token that failed verification (signature, format, expiry).
	ErrInvalidToken = errors.New("invalid token")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates a request that is well-formed transport-wise but semantically invalid.
	ErrValidation = errors.New("validation failed")

	// ErrCorruptRecord indicates a stored row that does not fit the domain model.
	ErrCorruptRecord = errors.New("corrupt record")
)
