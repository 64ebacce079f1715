package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atplgurukul/gurukul-auth/internal/logger"
	"github.com/atplgurukul/gurukul-auth/internal/model"
)

// LogoutNotice is returned with every successful login to make the
// single-active-session policy explicit to the client.
const LogoutNotice = "Login successful. All other devices have been logged out."

// SignupParams carries the fields of a registration request.
type SignupParams struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// LoginParams carries credentials plus optional device metadata.
type LoginParams struct {
	Email      string
	Password   string
	DeviceInfo string
	IPAddress  string
	UserAgent  string
}

// LoginResult is the successful login response.
type LoginResult struct {
	AccessToken string
	User        model.User
	Notice      string
}

// LogoutParams selects one of the three logout modes. AllDevices wins
// over SessionID; with neither set only the caller's session ends.
type LogoutParams struct {
	AllDevices bool
	SessionID  uuid.UUID
}

// SessionInfo is the self-service session management view.
type SessionInfo struct {
	Sessions []model.Session
	Stats    model.SessionStats
}

// Auth orchestrates signup, login, logout, password reset, and email
// verification by composing the hasher, token manager, OTP and session
// services. It never mutates session or OTP rows directly.
type Auth struct {
	users        model.UserStore
	resetTickets model.ResetTicketStore
	hasher       model.PasswordHasher
	tokenManager model.TokenManager
	otpService   *Otp
	sessions     *Session
	notifier     model.Notifier
	logger       *logger.Logger
	now          func() time.Time
}

func NewAuth(
	users model.UserStore,
	resetTickets model.ResetTicketStore,
	hasher model.PasswordHasher,
	tokenManager model.TokenManager,
	otpService *Otp,
	sessions *Session,
	notifier model.Notifier,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		users:        users,
		resetTickets: resetTickets,
		hasher:       hasher,
		tokenManager: tokenManager,
		otpService:   otpService,
		sessions:     sessions,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// Signup registers a new unverified account and issues a signup OTP.
// Returns model.ErrEmailTaken when the email is already registered.
func (a *Auth) Signup(ctx context.Context, params SignupParams) (model.User, error) {
	email := normalizeEmail(params.Email)

	a.logger.Debug("Auth service: starting signup", "email", email)

	_, err := a.users.GetByEmail(ctx, email)
	if err == nil {
		a.logger.Info("Auth service: signup rejected, email taken", "email", email)
		return model.User{}, model.ErrEmailTaken
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	digest, err := a.hasher.Hash(params.Password)
	if err != nil {
		// Never fall back to storing plaintext.
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	role := params.Role
	if role == "" {
		role = model.RoleStudent
	}
	if !role.Valid() {
		return model.User{}, fmt.Errorf("unknown role: %q", role)
	}

	now := a.now()
	user := model.User{
		ID:              uuid.New(),
		Name:            params.Name,
		Email:           email,
		PasswordHash:    digest,
		Role:            role,
		IsEmailVerified: false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	saved, err := a.users.Create(ctx, user)
	if err != nil {
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := a.otpService.Issue(ctx, email, model.PurposeSignup); err != nil {
		return model.User{}, fmt.Errorf("failed to issue signup otp: %w", err)
	}

	a.logger.Info("Auth service: signup completed", "email", email, "user_id", saved.ID)

	return saved.Redacted(), nil
}

// Login verifies credentials, issues a bearer token, and creates the
// exclusive session. Unknown email and wrong password fail identically
// with model.ErrInvalidCredentials so accounts cannot be enumerated.
func (a *Auth) Login(ctx context.Context, params LoginParams) (LoginResult, error) {
	email := normalizeEmail(params.Email)

	a.logger.Debug("Auth service: starting login", "email", email)

	user, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return LoginResult{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !a.hasher.Verify(params.Password, user.PasswordHash) {
		a.logger.Info("Auth service: login rejected", "email", email)
		return LoginResult{}, model.ErrInvalidCredentials
	}

	accessToken, err := a.tokenManager.Generate(model.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to issue token: %w", err)
	}

	if _, err := a.sessions.Create(ctx, user.ID, accessToken, params.DeviceInfo, params.IPAddress, params.UserAgent); err != nil {
		return LoginResult{}, fmt.Errorf("failed to create session: %w", err)
	}

	a.logger.Info("Auth service: login completed", "email", email, "user_id", user.ID)

	return LoginResult{
		AccessToken: accessToken,
		User:        user.Redacted(),
		Notice:      LogoutNotice,
	}, nil
}

// ForgotPassword starts the password-reset flow. Unlike login, this path
// legitimately reports model.ErrNotFound for unknown emails: it is
// initiated by the account owner and proof arrives via email delivery.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := a.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	if _, err := a.otpService.Issue(ctx, email, model.PurposePasswordReset); err != nil {
		return fmt.Errorf("failed to issue password-reset otp: %w", err)
	}

	a.logger.Info("Auth service: password reset requested", "email", email)

	return nil
}

// VerifyOtp checks a password-reset code and, on success, mints the
// single-use reset ticket ChangePassword must present. Wrong and expired
// codes are indistinguishable to the caller.
func (a *Auth) VerifyOtp(ctx context.Context, email, code string) (string, error) {
	email = normalizeEmail(email)

	ok, err := a.otpService.Verify(ctx, email, code, model.PurposePasswordReset)
	if err != nil {
		return "", fmt.Errorf("failed to verify otp: %w", err)
	}
	if !ok {
		return "", model.ErrInvalidOtp
	}

	now := a.now()
	ticket := model.ResetTicket{
		Ticket:    uuid.NewString(),
		Email:     email,
		ExpiresAt: now.Add(model.ResetTicketDuration),
		CreatedAt: now,
	}
	if err := a.resetTickets.Create(ctx, ticket); err != nil {
		return "", fmt.Errorf("failed to create reset ticket: %w", err)
	}

	a.logger.Info("Auth service: password-reset otp verified", "email", email)

	return ticket.Ticket, nil
}

// ChangePassword consumes the reset ticket minted by VerifyOtp and
// persists the new password digest. Without a live ticket for this email
// the call fails with model.ErrInvalidResetTicket.
func (a *Auth) ChangePassword(ctx context.Context, email, newPassword, ticket string) error {
	email = normalizeEmail(email)

	ok, err := a.resetTickets.Consume(ctx, ticket, email, a.now())
	if err != nil {
		return fmt.Errorf("failed to consume reset ticket: %w", err)
	}
	if !ok {
		return model.ErrInvalidResetTicket
	}

	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	digest, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := a.users.UpdatePassword(ctx, user.ID, digest); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	a.logger.Info("Auth service: password changed", "email", email, "user_id", user.ID)

	return nil
}

// VerifyEmailOtp checks a signup code, marks the account verified, and
// triggers the welcome notification. Notification failure is logged and
// dropped, never surfaced.
func (a *Auth) VerifyEmailOtp(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)

	ok, err := a.otpService.Verify(ctx, email, code, model.PurposeSignup)
	if err != nil {
		return fmt.Errorf("failed to verify otp: %w", err)
	}
	if !ok {
		return model.ErrInvalidOtp
	}

	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := a.users.SetEmailVerified(ctx, user.ID, true); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	if err := a.notifier.SendWelcome(ctx, email, user.Name); err != nil {
		a.logger.Error("Auth service: failed to send welcome notification",
			"email", email,
			"error", err.Error())
	}

	a.logger.Info("Auth service: email verified", "email", email, "user_id", user.ID)

	return nil
}

// ResendOtp re-issues a code for an existing account, superseding any
// pending one for the same purpose.
func (a *Auth) ResendOtp(ctx context.Context, email string, purpose model.OtpPurpose) error {
	email = normalizeEmail(email)

	if _, err := a.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := a.otpService.Resend(ctx, email, purpose); err != nil {
		return fmt.Errorf("failed to resend otp: %w", err)
	}

	return nil
}

// Logout ends sessions in one of three mutually exclusive modes: every
// device, one named session, or the caller's own session.
func (a *Auth) Logout(ctx context.Context, token string, params LogoutParams) error {
	switch {
	case params.AllDevices:
		claims, err := a.tokenManager.Parse(token)
		if err != nil {
			return model.ErrInvalidToken
		}
		if err := a.sessions.ForceLogoutAllDevices(ctx, claims.UserID); err != nil {
			return err
		}
		a.logger.Info("Auth service: logged out all devices", "user_id", claims.UserID)
	case params.SessionID != uuid.Nil:
		if err := a.sessions.ForceLogoutDevice(ctx, params.SessionID); err != nil {
			return err
		}
		a.logger.Info("Auth service: logged out device", "session_id", params.SessionID)
	default:
		if err := a.sessions.Deactivate(ctx, token); err != nil {
			return err
		}
		a.logger.Info("Auth service: logged out current session")
	}
	return nil
}

// SessionInfo returns the user's session list and stats for self-service
// session management.
func (a *Auth) SessionInfo(ctx context.Context, userID uuid.UUID) (SessionInfo, error) {
	sessions, err := a.sessions.AllForUser(ctx, userID)
	if err != nil {
		return SessionInfo{}, err
	}

	stats, err := a.sessions.StatsForUser(ctx, userID)
	if err != nil {
		return SessionInfo{}, err
	}

	return SessionInfo{Sessions: sessions, Stats: stats}, nil
}

// Authorize is the per-request gate: the token must carry a valid
// signature and name an active, unexpired session. Every failure maps to
// model.ErrInvalidToken.
func (a *Auth) Authorize(ctx context.Context, token string) (model.Claims, error) {
	claims, err := a.tokenManager.Parse(token)
	if err != nil {
		return model.Claims{}, model.ErrInvalidToken
	}

	ok, err := a.sessions.Validate(ctx, token)
	if err != nil {
		return model.Claims{}, fmt.Errorf("failed to validate session: %w", err)
	}
	if !ok {
		return model.Claims{}, model.ErrInvalidToken
	}

	return claims, nil
}

// Profile returns the authenticated caller's account, digest excluded.
func (a *Auth) Profile(ctx context.Context, token string) (model.User, error) {
	claims, err := a.Authorize(ctx, token)
	if err != nil {
		return model.User{}, err
	}

	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user.Redacted(), nil
}

// CleanupExpired runs the expiry sweeps for codes and sessions. Errors from
// one sweep do not prevent the other from running.
func (a *Auth) CleanupExpired(ctx context.Context) error {
	var errs []error

	if n, err := a.otpService.CleanupExpired(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to clean up expired otps: %w", err))
	} else if n > 0 {
		a.logger.Info("Auth service: cleaned up expired otps", "count", n)
	}

	if n, err := a.sessions.CleanupExpired(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to clean up expired sessions: %w", err))
	} else if n > 0 {
		a.logger.Info("Auth service: cleaned up expired sessions", "count", n)
	}

	return errors.Join(errs...)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
