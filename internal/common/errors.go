// Package common defines shared constants and sentinel errors used across
// the engine, its remote adapters and the sync gateway. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Lookup errors.
	ErrNotFound = errors.New("not found")

	// Remote errors. ErrUnavailable and ErrUnauthorized are transient from the
	// engine's point of view; ErrRejected means the remote refused the payload
	// itself and retrying it unchanged will not help.
	ErrUnavailable  = errors.New("remote unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRejected     = errors.New("rejected by remote")

	// Media errors.
	ErrNoPayload = errors.New("media payload not available")

	// Validation errors.
	ErrUnknownQuestion   = errors.New("unknown checklist question")
	ErrValueTypeMismatch = errors.New("value type does not match question")
	ErrInvalidValue      = errors.New("invalid value")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidTransition = errors.New("invalid status transition")

	// Gateway auth.
	ErrInvalidAccessToken = errors.New("invalid token")
)
