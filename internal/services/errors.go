package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrExpired        = errors.New("expired")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrInvalidInput   = errors.New("invalid input")
	ErrDeliveryFailed = errors.New("delivery failed")

	// Confirmation failures. Callers facing the public must only expose the
	// wrapped sentinel.
	ErrInvalidLink   = fmt.Errorf("%w: invalid confirmation link", ErrNotFound)
	ErrUnknownAdmin  = fmt.Errorf("%w: unknown administrator", ErrUnauthorized)
	ErrWrongPassword = fmt.Errorf("%w: wrong password", ErrUnauthorized)
)
