package service

import "errors"

// Spin protocol outcomes. Handlers map these to wire slugs.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrCodeNotFound        = errors.New("code not found")
	ErrAlreadyUsed         = errors.New("code already used")
	ErrExpired             = errors.New("code expired")
	ErrUsernameMismatch    = errors.New("username does not match code")
	ErrInvalidOrStaleToken = errors.New("invalid or stale spin token")
	ErrNoPrizeAvailable    = errors.New("no prize available for tier")
)
