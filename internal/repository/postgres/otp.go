package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/atplgurukul/gurukul-auth/internal/model"
)

var _ model.OtpStore = (*OtpRepository)(nil)

type OtpRepository struct {
	db *Connection
}

func NewOtpRepository(db *Connection) *OtpRepository {
	return &OtpRepository{
		db: db,
	}
}

// Replace purges every code for the (email, purpose) pair and inserts the
// new one in a single transaction, keeping at most one pending code per
// pair.
func (r *OtpRepository) Replace(ctx context.Context, otp model.Otp) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM otps WHERE email = $1 AND purpose = $2`, otp.Email, otp.Purpose)
	if err != nil {
		return fmt.Errorf("failed to delete prior otps: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO otps (id, email, code, purpose, expires_at, is_used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		otp.ID, otp.Email, otp.Code, otp.Purpose, otp.ExpiresAt, otp.IsUsed, otp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert otp: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Consume claims the matching unused, unexpired code. The conditional
// update closes the double-spend race: of two concurrent verifiers at
// most one sees a row claimed.
func (r *OtpRepository) Consume(ctx context.Context, email, code string, purpose model.OtpPurpose, now time.Time) (bool, error) {
	query := `UPDATE otps SET is_used = TRUE
			  WHERE email = $1 AND code = $2 AND purpose = $3 AND is_used = FALSE AND expires_at > $4`

	tag, err := r.db.Exec(ctx, query, email, code, purpose, now)
	if err != nil {
		return false, fmt.Errorf("failed to consume otp: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *OtpRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM otps WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otps: %w", err)
	}

	return tag.RowsAffected(), nil
}
