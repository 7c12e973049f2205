package service

import "errors"

var (
	// ErrValidation marks malformed or inconsistent input; maps to 400.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a request that is well-formed but impossible in the
	// current state (nothing to settle, inactive member); maps to 409.
	ErrConflict = errors.New("conflict")
)
