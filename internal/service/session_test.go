package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/atplgurukul/gurukul-auth/internal/mocks"
	"github.com/atplgurukul/gurukul-auth/internal/model"
	"github.com/atplgurukul/gurukul-auth/internal/testutil"
)

func TestSession_Create_FillsDefaults(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	userID := uuid.New()

	var created model.Session
	store.On("Create", mock.Anything, mock.MatchedBy(func(s model.Session) bool {
		created = s
		return s.UserID == userID && s.Token == "tok"
	})).Return(model.Session{ID: uuid.New(), UserID: userID, Token: "tok"}, nil)

	s := NewSession(store, testutil.MakeNoopLogger())

	_, err := s.Create(ctx, userID, "tok", "", "", "")
	require.NoError(t, err)

	assert.Equal(t, "Unknown Device", created.DeviceInfo)
	assert.Equal(t, "Unknown IP", created.IPAddress)
	assert.Equal(t, "Unknown User Agent", created.UserAgent)
	assert.True(t, created.IsActive)
	assert.WithinDuration(t, time.Now().Add(model.SessionDuration), created.ExpiresAt, time.Minute)
}

func TestSession_Create_KeepsClientMetadata(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	userID := uuid.New()

	var created model.Session
	store.On("Create", mock.Anything, mock.MatchedBy(func(s model.Session) bool {
		created = s
		return true
	})).Return(model.Session{}, nil)

	s := NewSession(store, testutil.MakeNoopLogger())

	_, err := s.Create(ctx, userID, "tok", "iPhone 15", "10.0.0.1", "Safari")
	require.NoError(t, err)
	assert.Equal(t, "iPhone 15", created.DeviceInfo)
	assert.Equal(t, "10.0.0.1", created.IPAddress)
	assert.Equal(t, "Safari", created.UserAgent)
}

func TestSession_Validate(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("Touch", mock.Anything, "live", mock.Anything).Return(true, nil)
	store.On("Touch", mock.Anything, "stale", mock.Anything).Return(false, nil)

	s := NewSession(store, testutil.MakeNoopLogger())

	ok, err := s.Validate(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Validate(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_TerminationPaths(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	userID := uuid.New()
	sessionID := uuid.New()

	store.On("DeactivateByToken", mock.Anything, "tok").Return(nil)
	store.On("DeactivateByID", mock.Anything, sessionID).Return(nil)
	store.On("DeactivateAllByUser", mock.Anything, userID).Return(nil)

	s := NewSession(store, testutil.MakeNoopLogger())

	require.NoError(t, s.Deactivate(ctx, "tok"))
	require.NoError(t, s.ForceLogoutDevice(ctx, sessionID))
	require.NoError(t, s.ForceLogoutAllDevices(ctx, userID))

	// Idempotent: repeating a termination is a no-op, not an error.
	require.NoError(t, s.Deactivate(ctx, "tok"))
	require.NoError(t, s.ForceLogoutAllDevices(ctx, userID))
}

func TestSession_StatsForUser(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	userID := uuid.New()
	lastLogin := time.Now().Add(-time.Hour)

	store.On("Stats", mock.Anything, userID, mock.Anything).Return(model.SessionStats{
		ActiveSessions: 1,
		TotalSessions:  4,
		LastLogin:      &lastLogin,
	}, nil)

	s := NewSession(store, testutil.MakeNoopLogger())

	stats, err := s.StatsForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveSessions)
	assert.Equal(t, 4, stats.TotalSessions)
	require.NotNil(t, stats.LastLogin)
	assert.Equal(t, lastLogin, *stats.LastLogin)
}

func TestSession_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	store := &mocks.SessionStore{}
	store.On("DeactivateExpired", mock.Anything, mock.Anything).Return(int64(2), nil)

	s := NewSession(store, testutil.MakeNoopLogger())

	n, err := s.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
