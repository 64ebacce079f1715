package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/atplgurukul/gurukul-auth/internal/logger"
	"github.com/atplgurukul/gurukul-auth/internal/model"
)

// Otp manages the one-time passcode lifecycle for (email, purpose) pairs:
// issue supersedes any pending code, verify consumes at most once.
type Otp struct {
	store    model.OtpStore
	notifier model.Notifier
	logger   *logger.Logger
	now      func() time.Time
}

func NewOtp(store model.OtpStore, notifier model.Notifier, logger *logger.Logger) *Otp {
	return &Otp{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Issue purges any prior code for the pair, persists a fresh six-digit
// code with a ten-minute expiry, and asks the notifier to deliver it.
// The code is returned for internal and test use only; production callers
// rely on the notifier side-channel so codes never reach logs.
func (s *Otp) Issue(ctx context.Context, email string, purpose model.OtpPurpose) (string, error) {
	if !purpose.Valid() {
		return "", fmt.Errorf("unknown otp purpose: %q", purpose)
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate otp code: %w", err)
	}

	now := s.now()
	otp := model.Otp{
		ID:        uuid.New(),
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(model.OtpDuration),
		CreatedAt: now,
	}

	if err := s.store.Replace(ctx, otp); err != nil {
		return "", fmt.Errorf("failed to store otp: %w", err)
	}

	// Delivery failure does not roll back the code: it stays valid and
	// resend is available.
	if err := s.notifier.SendOtp(ctx, email, code, purpose); err != nil {
		s.logger.Error("Otp service: failed to deliver otp",
			"email", email,
			"purpose", string(purpose),
			"error", err.Error())
	}

	s.logger.Info("Otp service: otp issued",
		"email", email,
		"purpose", string(purpose))

	return code, nil
}

// Verify succeeds only for a matching unused, unexpired code and marks it
// used in the same conditional write, so concurrent verifiers race for a
// single win and re-verification always fails.
func (s *Otp) Verify(ctx context.Context, email, code string, purpose model.OtpPurpose) (bool, error) {
	ok, err := s.store.Consume(ctx, email, code, purpose, s.now())
	if err != nil {
		return false, fmt.Errorf("failed to consume otp: %w", err)
	}
	return ok, nil
}

// Resend supersedes any pending code for the pair with a fresh one.
func (s *Otp) Resend(ctx context.Context, email string, purpose model.OtpPurpose) error {
	_, err := s.Issue(ctx, email, purpose)
	return err
}

// CleanupExpired removes codes past their expiry. Read-time expiry checks
// stay authoritative; this only bounds table growth.
func (s *Otp) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otps: %w", err)
	}
	return n, nil
}

// generateCode draws a uniformly random six-digit code from
// [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
