package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OtpDuration is how long an issued code stays valid.
const OtpDuration = time.Minute * 10

// OtpPurpose names the flow a code was issued for.
type OtpPurpose string

const (
	PurposeSignup        OtpPurpose = "signup"
	PurposePasswordReset OtpPurpose = "password-reset"
)

// Valid reports whether the purpose is one of the known values.
func (p OtpPurpose) Valid() bool {
	return p == PurposeSignup || p == PurposePasswordReset
}

// OtpStore persists one-time passcodes.
//
// Replace must remove every prior code for the (email, purpose) pair and
// insert the new one atomically, so at most one pending code exists per pair.
// Consume must claim the matching unused, unexpired code with a single
// conditional write and report whether exactly one row was claimed.
type OtpStore interface {
	Replace(ctx context.Context, otp Otp) error
	Consume(ctx context.Context, email, code string, purpose OtpPurpose, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Otp describes a stored one-time passcode.
type Otp struct {
	ID        uuid.UUID
	Email     string
	Code      string
	Purpose   OtpPurpose
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
}
