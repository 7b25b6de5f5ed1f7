package domain

import "errors"

// Sentinel errors returned by the core. The HTTP facade (internal/transport/http) is the
// only layer that translates these into status codes.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrTrialExpired      = errors.New("trial expired")
	ErrInternal          = errors.New("internal error")
)
