package model

import "errors"

// ErrNotFound is returned by stores when no record matches.
var ErrNotFound = errors.New("record not found")

// Domain failures surfaced by the auth service. Transport layers map
// ErrEmailTaken to a conflict, ErrNotFound to not-found, and the rest to
// unauthorized.
var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOtp         = errors.New("invalid or expired OTP")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidResetTicket = errors.New("invalid or expired reset ticket")
)
