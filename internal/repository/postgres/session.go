package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/atplgurukul/gurukul-auth/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db *Connection
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{
		db: db,
	}
}

// Create deactivates the user's active sessions and inserts the new one
// inside one transaction. A per-user advisory lock serializes concurrent
// logins for the same account, so the single-active-session invariant
// holds even when two logins race.
func (r *SessionRepository) Create(ctx context.Context, session model.Session) (model.Session, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, session.UserID)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to acquire user lock: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE sessions SET is_active = FALSE WHERE user_id = $1 AND is_active = TRUE`,
		session.UserID,
	)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to deactivate prior sessions: %w", err)
	}

	var saved model.Session
	err = tx.QueryRow(ctx,
		`INSERT INTO sessions (id, user_id, token, device_info, ip_address, user_agent, is_active, created_at, last_activity_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, user_id, token, device_info, ip_address, user_agent, is_active, created_at, last_activity_at, expires_at`,
		session.ID, session.UserID, session.Token, session.DeviceInfo, session.IPAddress,
		session.UserAgent, session.IsActive, session.CreatedAt, session.LastActivityAt, session.ExpiresAt,
	).Scan(
		&saved.ID, &saved.UserID, &saved.Token, &saved.DeviceInfo, &saved.IPAddress,
		&saved.UserAgent, &saved.IsActive, &saved.CreatedAt, &saved.LastActivityAt, &saved.ExpiresAt,
	)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to insert session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Session{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return saved, nil
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (model.Session, error) {
	var session model.Session
	query := `SELECT id, user_id, token, device_info, ip_address, user_agent, is_active, created_at, last_activity_at, expires_at
			  FROM sessions WHERE token = $1`

	err := r.db.QueryRow(ctx, query, token).Scan(
		&session.ID, &session.UserID, &session.Token, &session.DeviceInfo, &session.IPAddress,
		&session.UserAgent, &session.IsActive, &session.CreatedAt, &session.LastActivityAt, &session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session by token: %w", err)
	}

	return session, nil
}

// Touch refreshes last activity iff the token names an active, unexpired
// session. Expiry is checked here at read time, so a stale is_active flag
// never authorizes a request.
func (r *SessionRepository) Touch(ctx context.Context, token string, now time.Time) (bool, error) {
	query := `UPDATE sessions SET last_activity_at = $2
			  WHERE token = $1 AND is_active = TRUE AND expires_at > $2`

	tag, err := r.db.Exec(ctx, query, token, now)
	if err != nil {
		return false, fmt.Errorf("failed to touch session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepository) DeactivateByToken(ctx context.Context, token string) error {
	query := `UPDATE sessions SET is_active = FALSE WHERE token = $1 AND is_active = TRUE`

	if _, err := r.db.Exec(ctx, query, token); err != nil {
		return fmt.Errorf("failed to deactivate session by token: %w", err)
	}

	return nil
}

func (r *SessionRepository) DeactivateByID(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE sessions SET is_active = FALSE WHERE id = $1 AND is_active = TRUE`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to deactivate session by id: %w", err)
	}

	return nil
}

func (r *SessionRepository) DeactivateAllByUser(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE sessions SET is_active = FALSE WHERE user_id = $1 AND is_active = TRUE`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to deactivate sessions by user: %w", err)
	}

	return nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	query := `SELECT id, user_id, token, device_info, ip_address, user_agent, is_active, created_at, last_activity_at, expires_at
			  FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by user: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var s model.Session
		err := rows.Scan(
			&s.ID, &s.UserID, &s.Token, &s.DeviceInfo, &s.IPAddress,
			&s.UserAgent, &s.IsActive, &s.CreatedAt, &s.LastActivityAt, &s.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

func (r *SessionRepository) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (model.SessionStats, error) {
	var stats model.SessionStats
	query := `SELECT
				COUNT(*) FILTER (WHERE is_active = TRUE AND expires_at > $2),
				COUNT(*),
				MAX(created_at)
			  FROM sessions WHERE user_id = $1`

	err := r.db.QueryRow(ctx, query, userID, now).Scan(
		&stats.ActiveSessions, &stats.TotalSessions, &stats.LastLogin,
	)
	if err != nil {
		return model.SessionStats{}, fmt.Errorf("failed to get session stats: %w", err)
	}

	return stats, nil
}

// DeactivateExpired only transitions active to inactive, so the sweep is
// idempotent and safe to run concurrently with logins and logouts.
func (r *SessionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE sessions SET is_active = FALSE WHERE is_active = TRUE AND expires_at <= $1`

	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}
