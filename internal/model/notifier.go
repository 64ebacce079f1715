package model

import "context"

// Notifier delivers account emails. Delivery failures are logged and
// swallowed by callers: the code stays valid and resend is available, so
// a failed send never rolls back OTP or user state.
type Notifier interface {
	SendOtp(ctx context.Context, email, code string, purpose OtpPurpose) error
	SendWelcome(ctx context.Context, email, name string) error
}
