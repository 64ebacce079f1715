package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atplgurukul/gurukul-auth/internal/logger"
	"github.com/atplgurukul/gurukul-auth/internal/model"
)

// Fallbacks recorded when the client supplied no device metadata.
const (
	unknownDevice    = "Unknown Device"
	unknownIP        = "Unknown IP"
	unknownUserAgent = "Unknown User Agent"
)

// Session enforces the single-active-session-per-user policy and owns
// every session lifecycle mutation.
type Session struct {
	store  model.SessionStore
	logger *logger.Logger
	now    func() time.Time
}

func NewSession(store model.SessionStore, logger *logger.Logger) *Session {
	return &Session{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Create deactivates every active session of the user before inserting
// the new one — login is exclusive across devices by design. The store
// runs both steps under a per-user serialization scope so concurrent
// logins cannot leave zero or two active sessions.
func (s *Session) Create(ctx context.Context, userID uuid.UUID, token, deviceInfo, ipAddress, userAgent string) (model.Session, error) {
	if deviceInfo == "" {
		deviceInfo = unknownDevice
	}
	if ipAddress == "" {
		ipAddress = unknownIP
	}
	if userAgent == "" {
		userAgent = unknownUserAgent
	}

	now := s.now()
	session := model.Session{
		ID:             uuid.New(),
		UserID:         userID,
		Token:          token,
		DeviceInfo:     deviceInfo,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		IsActive:       true,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(model.SessionDuration),
	}

	created, err := s.store.Create(ctx, session)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Session service: session created",
		"user_id", userID,
		"session_id", created.ID)

	return created, nil
}

// Validate is the request-authorization gate: true iff the token names an
// active, unexpired session. On success the session's last activity is
// refreshed in the same conditional write.
func (s *Session) Validate(ctx context.Context, token string) (bool, error) {
	ok, err := s.store.Touch(ctx, token, s.now())
	if err != nil {
		return false, fmt.Errorf("failed to validate session: %w", err)
	}
	return ok, nil
}

// Deactivate ends the session holding the token. Deactivating an already
// inactive session is a no-op.
func (s *Session) Deactivate(ctx context.Context, token string) error {
	if err := s.store.DeactivateByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	return nil
}

// ForceLogoutDevice ends one session by ID, idempotently.
func (s *Session) ForceLogoutDevice(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.store.DeactivateByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to force logout device: %w", err)
	}
	return nil
}

// ForceLogoutAllDevices ends every session of the user, idempotently.
func (s *Session) ForceLogoutAllDevices(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.DeactivateAllByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to force logout all devices: %w", err)
	}
	return nil
}

// AllForUser returns the user's sessions, newest first.
func (s *Session) AllForUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	sessions, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// StatsForUser reports active and total session counts plus the most
// recent login time.
func (s *Session) StatsForUser(ctx context.Context, userID uuid.UUID) (model.SessionStats, error) {
	stats, err := s.store.Stats(ctx, userID, s.now())
	if err != nil {
		return model.SessionStats{}, fmt.Errorf("failed to get session stats: %w", err)
	}
	return stats, nil
}

// CleanupExpired marks past-expiry sessions inactive. It only transitions
// active to inactive, so it is safe to run concurrently with logins.
func (s *Session) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("Session service: expired sessions deactivated", "count", n)
	}
	return n, nil
}
