//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/atplgurukul/gurukul-auth/internal/model"
	repo "github.com/atplgurukul/gurukul-auth/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "gurukul_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/gurukul_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func createUser(t *testing.T, conn *repo.Connection, email string) model.User {
	t.Helper()
	ur := repo.NewUserRepository(conn)
	now := time.Now()
	u, err := ur.Create(context.Background(), model.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
		Role:         model.RoleStudent,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return u
}

func TestRepositories(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	t.Run("user_repository", func(t *testing.T) {
		ur := repo.NewUserRepository(conn)
		u := createUser(t, conn, "user@example.com")

		byEmail, err := ur.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)

		byID, err := ur.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, byID.Email)

		_, err = ur.GetByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, model.ErrNotFound)

		require.NoError(t, ur.UpdatePassword(ctx, u.ID, "new-digest"))
		updated, err := ur.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "new-digest", updated.PasswordHash)

		require.NoError(t, ur.SetEmailVerified(ctx, u.ID, true))
		verified, err := ur.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, verified.IsEmailVerified)
	})

	t.Run("session_single_active_invariant", func(t *testing.T) {
		sr := repo.NewSessionRepository(conn)
		u := createUser(t, conn, "sessions@example.com")
		now := time.Now()

		mkSession := func(token string) model.Session {
			return model.Session{
				ID:             uuid.New(),
				UserID:         u.ID,
				Token:          token,
				DeviceInfo:     "device",
				IPAddress:      "127.0.0.1",
				UserAgent:      "agent",
				IsActive:       true,
				CreatedAt:      now,
				LastActivityAt: now,
				ExpiresAt:      now.Add(model.SessionDuration),
			}
		}

		_, err := sr.Create(ctx, mkSession("token-a"))
		require.NoError(t, err)
		_, err = sr.Create(ctx, mkSession("token-b"))
		require.NoError(t, err)

		// Second login deactivated the first session.
		ok, err := sr.Touch(ctx, "token-a", time.Now())
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = sr.Touch(ctx, "token-b", time.Now())
		require.NoError(t, err)
		require.True(t, ok)

		stats, err := sr.Stats(ctx, u.ID, time.Now())
		require.NoError(t, err)
		require.Equal(t, 1, stats.ActiveSessions)
		require.Equal(t, 2, stats.TotalSessions)
		require.NotNil(t, stats.LastLogin)

		sessions, err := sr.ListByUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
	})

	t.Run("session_expiry", func(t *testing.T) {
		sr := repo.NewSessionRepository(conn)
		u := createUser(t, conn, "expiry@example.com")
		now := time.Now()

		_, err := sr.Create(ctx, model.Session{
			ID:             uuid.New(),
			UserID:         u.ID,
			Token:          "expired-token",
			DeviceInfo:     "device",
			IPAddress:      "127.0.0.1",
			UserAgent:      "agent",
			IsActive:       true,
			CreatedAt:      now.Add(-2 * model.SessionDuration),
			LastActivityAt: now.Add(-2 * model.SessionDuration),
			ExpiresAt:      now.Add(-model.SessionDuration),
		})
		require.NoError(t, err)

		// Active flag alone is not enough once expires_at has passed.
		ok, err := sr.Touch(ctx, "expired-token", now)
		require.NoError(t, err)
		require.False(t, ok)

		n, err := sr.DeactivateExpired(ctx, now)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, int64(1))

		// Sweep is idempotent.
		n, err = sr.DeactivateExpired(ctx, now)
		require.NoError(t, err)
		require.Equal(t, int64(0), n)
	})

	t.Run("otp_replace_and_double_spend", func(t *testing.T) {
		or := repo.NewOtpRepository(conn)
		now := time.Now()

		mkOtp := func(code string) model.Otp {
			return model.Otp{
				ID:        uuid.New(),
				Email:     "otp@example.com",
				Code:      code,
				Purpose:   model.PurposeSignup,
				ExpiresAt: now.Add(model.OtpDuration),
				CreatedAt: now,
			}
		}

		require.NoError(t, or.Replace(ctx, mkOtp("111111")))
		require.NoError(t, or.Replace(ctx, mkOtp("222222")))

		// The first code was superseded.
		ok, err := or.Consume(ctx, "otp@example.com", "111111", model.PurposeSignup, now)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = or.Consume(ctx, "otp@example.com", "222222", model.PurposeSignup, now)
		require.NoError(t, err)
		require.True(t, ok)

		// Single use.
		ok, err = or.Consume(ctx, "otp@example.com", "222222", model.PurposeSignup, now)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("otp_expiry", func(t *testing.T) {
		or := repo.NewOtpRepository(conn)
		now := time.Now()

		require.NoError(t, or.Replace(ctx, model.Otp{
			ID:        uuid.New(),
			Email:     "stale@example.com",
			Code:      "333333",
			Purpose:   model.PurposePasswordReset,
			ExpiresAt: now.Add(-time.Minute),
			CreatedAt: now.Add(-model.OtpDuration),
		}))

		ok, err := or.Consume(ctx, "stale@example.com", "333333", model.PurposePasswordReset, now)
		require.NoError(t, err)
		require.False(t, ok)

		n, err := or.DeleteExpired(ctx, now)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, int64(1))
	})

	t.Run("reset_ticket_single_use", func(t *testing.T) {
		rr := repo.NewResetTicketRepository(conn)
		now := time.Now()
		ticket := uuid.NewString()

		require.NoError(t, rr.Create(ctx, model.ResetTicket{
			Ticket:    ticket,
			Email:     "reset@example.com",
			ExpiresAt: now.Add(model.ResetTicketDuration),
			CreatedAt: now,
		}))

		// Bound to the email it was minted for.
		ok, err := rr.Consume(ctx, ticket, "other@example.com", now)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = rr.Consume(ctx, ticket, "reset@example.com", now)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = rr.Consume(ctx, ticket, "reset@example.com", now)
		require.NoError(t, err)
		require.False(t, ok)
	})
}
