package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionDuration is how long a session stays valid after login.
const SessionDuration = time.Hour * 24

// SessionStore persists login sessions.
//
// Create must deactivate every active session of the same user before
// inserting the new one, and both steps must run under a per-user
// serialization scope so concurrent logins cannot leave zero or two
// active sessions. Touch refreshes last activity with a single conditional
// write and reports whether the token named an active, unexpired session.
type SessionStore interface {
	Create(ctx context.Context, session Session) (Session, error)
	GetByToken(ctx context.Context, token string) (Session, error)
	Touch(ctx context.Context, token string, now time.Time) (bool, error)
	DeactivateByToken(ctx context.Context, token string) error
	DeactivateByID(ctx context.Context, id uuid.UUID) error
	DeactivateAllByUser(ctx context.Context, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)
	Stats(ctx context.Context, userID uuid.UUID, now time.Time) (SessionStats, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// Session describes one device login.
type Session struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Token          string
	DeviceInfo     string
	IPAddress      string
	UserAgent      string
	IsActive       bool
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
}

// SessionStats summarizes a user's sessions for self-service UIs.
type SessionStats struct {
	ActiveSessions int
	TotalSessions  int
	LastLogin      *time.Time
}
