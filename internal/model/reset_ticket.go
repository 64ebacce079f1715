package model

import (
	"context"
	"time"
)

// ResetTicketDuration is how long a password-reset ticket stays valid
// after OTP verification.
const ResetTicketDuration = time.Minute * 10

// ResetTicketStore persists single-use password-reset tickets. Consume
// must claim the ticket with one conditional write so that a ticket can
// authorize at most one password change.
type ResetTicketStore interface {
	Create(ctx context.Context, ticket ResetTicket) error
	Consume(ctx context.Context, ticket, email string, now time.Time) (bool, error)
}

// ResetTicket proves a recent OTP verification for a password-reset flow.
// It binds the change-password call to the email the OTP was verified for.
type ResetTicket struct {
	Ticket    string
	Email     string
	ExpiresAt time.Time
	Consumed  bool
	CreatedAt time.Time
}
