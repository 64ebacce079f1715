package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/atplgurukul/gurukul-auth/internal/model"
)

// UserStore is a mock implementation of model.UserStore.
type UserStore struct {
	mock.Mock
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *UserStore) SetEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	args := m.Called(ctx, id, verified)
	return args.Error(0)
}

// OtpStore is a mock implementation of model.OtpStore.
type OtpStore struct {
	mock.Mock
}

func (m *OtpStore) Replace(ctx context.Context, otp model.Otp) error {
	args := m.Called(ctx, otp)
	return args.Error(0)
}

func (m *OtpStore) Consume(ctx context.Context, email, code string, purpose model.OtpPurpose, now time.Time) (bool, error) {
	args := m.Called(ctx, email, code, purpose, now)
	return args.Bool(0), args.Error(1)
}

func (m *OtpStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// SessionStore is a mock implementation of model.SessionStore.
type SessionStore struct {
	mock.Mock
}

func (m *SessionStore) Create(ctx context.Context, session model.Session) (model.Session, error) {
	args := m.Called(ctx, session)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *SessionStore) GetByToken(ctx context.Context, token string) (model.Session, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *SessionStore) Touch(ctx context.Context, token string, now time.Time) (bool, error) {
	args := m.Called(ctx, token, now)
	return args.Bool(0), args.Error(1)
}

func (m *SessionStore) DeactivateByToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *SessionStore) DeactivateByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *SessionStore) DeactivateAllByUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *SessionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Session), args.Error(1)
}

func (m *SessionStore) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (model.SessionStats, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(model.SessionStats), args.Error(1)
}

func (m *SessionStore) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// ResetTicketStore is a mock implementation of model.ResetTicketStore.
type ResetTicketStore struct {
	mock.Mock
}

func (m *ResetTicketStore) Create(ctx context.Context, ticket model.ResetTicket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *ResetTicketStore) Consume(ctx context.Context, ticket, email string, now time.Time) (bool, error) {
	args := m.Called(ctx, ticket, email, now)
	return args.Bool(0), args.Error(1)
}
