package domain

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrNegativeSpend      = errors.New("spend amount must be non-negative")
	ErrLogClosed          = errors.New("conversation log is closed")
	ErrProfileNotFound    = errors.New("session profile not found")
	ErrSecretNotFound     = errors.New("secret not found")
	ErrCredentialNotFound = errors.New("generation credential not found")
	ErrInvalidSecretKey   = errors.New("invalid credential key")
)
