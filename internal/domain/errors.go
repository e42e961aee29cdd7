package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidState      = errors.New("action not valid in current state")
	ErrForbidden         = errors.New("actor not permitted")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrValidation        = errors.New("invalid input")
	ErrRateLimited       = errors.New("rate limited")
	ErrLockHeld          = errors.New("lock already held")
)
