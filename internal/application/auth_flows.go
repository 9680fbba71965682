package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/radityabs/huddle-backend/internal/domain/entity"
	"github.com/radityabs/huddle-backend/internal/domain/repository"
	"github.com/radityabs/huddle-backend/pkg/helpers"
)

type RegisterInput struct {
	FullName string
	DOB      string // YYYY-MM-DD
	Email    string
}

// Register creates an unverified user and hands a verification token to the
// email collaborator. The response carries no sensitive data.
func (s *Service) Register(ctx context.Context, in RegisterInput) *FlowError {
	fullName := strings.TrimSpace(in.FullName)
	email := strings.TrimSpace(in.Email)
	dobStr := strings.TrimSpace(in.DOB)
	if fullName == "" || email == "" || dobStr == "" {
		return flowErr(KindValidation, "all fields are required")
	}
	dob, err := time.Parse("2006-01-02", dobStr)
	if err != nil {
		return flowErr(KindValidation, "date of birth must be in YYYY-MM-DD format")
	}

	// Fast-path check; the unique constraint below is the source of truth.
	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return flowErr(KindConflict, "user with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return internalErr("user lookup failed", err)
	}

	u := &entity.User{Email: email, FullName: fullName, DOB: dob, IsVerified: false}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return flowErr(KindConflict, "user with this email already exists")
		}
		return internalErr("user creation failed", err)
	}

	token, exp, err := s.Tokens.Generate(helpers.TokenEmailVerify, u.ID)
	if err != nil {
		return internalErr("failed to generate verification token", err)
	}
	u.EmailVerifyToken = token
	u.EmailVerifyTokenExpiry = exp
	if err := s.Users.UpdateAuthState(ctx, u); err != nil {
		return internalErr("failed to store verification token", err)
	}

	if s.Mail != nil {
		if err := s.Mail.SendVerification(ctx, u.Email, u.FullName, token, exp); err != nil {
			s.warn(err, "failed to enqueue verification email", logrus.Fields{"user_id": u.ID})
		}
	}
	return nil
}

type VerifyEmailResult struct {
	AlreadyVerified bool
	AccessToken     string
	AccessExpiry    time.Time
}

// VerifyEmail consumes an email verification token. Verifying an already
// verified account succeeds idempotently without issuing a new cookie.
func (s *Service) VerifyEmail(ctx context.Context, token string) (VerifyEmailResult, *FlowError) {
	if strings.TrimSpace(token) == "" {
		return VerifyEmailResult{}, flowErr(KindValidation, "verification token is required")
	}
	claims, err := s.Tokens.Parse(helpers.TokenEmailVerify, token)
	if err != nil {
		return VerifyEmailResult{}, flowErr(KindUnauthorized, "invalid or expired verification token")
	}

	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return VerifyEmailResult{}, flowErr(KindNotFound, "user not found")
		}
		return VerifyEmailResult{}, internalErr("user lookup failed", err)
	}

	if u.IsVerified {
		return VerifyEmailResult{AlreadyVerified: true}, nil
	}

	// The token must be the one currently stored and still within its stored
	// expiry; a consumed or superseded token cannot be replayed.
	if u.EmailVerifyToken != token || !u.EmailVerifyTokenExpiry.After(time.Now()) {
		return VerifyEmailResult{}, flowErr(KindUnauthorized, "invalid or expired verification token")
	}

	u.IsVerified = true
	u.EmailVerifyToken = ""
	u.EmailVerifyTokenExpiry = time.Time{}
	if err := s.Users.UpdateAuthState(ctx, u); err != nil {
		return VerifyEmailResult{}, internalErr("failed to mark user verified", err)
	}

	access, aexp, err := s.Tokens.Generate(helpers.TokenAccess, u.ID)
	if err != nil {
		return VerifyEmailResult{}, internalErr("failed to generate access token", err)
	}
	return VerifyEmailResult{AccessToken: access, AccessExpiry: aexp}, nil
}

type LoginInput struct {
	Identifier string // email or username
	Password   string
}

type LoginResult struct {
	// Requires2FA is set when the account has TOTP enabled; the caller must
	// complete the challenge with PendingToken before any cookies are set.
	Requires2FA  bool
	PendingToken string

	User    *SanitizedUser
	Pair    TokenPair
	Session *entity.Session
}

// Login authenticates by email or username plus password, creates a device
// session bound to a fresh refresh token, and either returns a full token
// pair or a short-lived 2FA challenge.
func (s *Service) Login(ctx context.Context, in LoginInput, device entity.Device) (LoginResult, *FlowError) {
	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" || in.Password == "" {
		return LoginResult{}, flowErr(KindValidation, "email/username and password are required")
	}

	u, err := s.Users.GetByEmail(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		u, err = s.Users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, flowErr(KindNotFound, "user not found")
		}
		return LoginResult{}, internalErr("user lookup failed", err)
	}

	if !u.IsVerified {
		return LoginResult{}, flowErr(KindForbidden, "please verify your email before logging in")
	}
	if !u.HasPassword() || !helpers.CompareHashAndPassword(u.PasswordHash, in.Password) {
		return LoginResult{}, flowErr(KindUnauthorized, "invalid credentials")
	}

	refresh, rexp, err := s.Tokens.Generate(helpers.TokenRefresh, u.ID)
	if err != nil {
		return LoginResult{}, internalErr("failed to generate refresh token", err)
	}
	sess, err := s.Sessions.Create(ctx, u.ID, device, refresh)
	if err != nil {
		return LoginResult{}, internalErr("failed to create session", err)
	}
	u.RefreshToken = refresh
	if err := s.Users.UpdateAuthState(ctx, u); err != nil {
		return LoginResult{}, internalErr("failed to persist refresh token", err)
	}

	// The alert tracks the password check, not the 2FA challenge: the owner
	// hears about a stolen password even when the challenge is never answered.
	if s.Mail != nil {
		if err := s.Mail.SendLoginAlert(ctx, u.Email, u.FullName, device.IP, device.UserAgent, time.Now()); err != nil {
			s.warn(err, "failed to enqueue login alert", logrus.Fields{"user_id": u.ID})
		}
	}

	if u.TwoFactorEnabled {
		pending, _, err := s.Tokens.Generate(helpers.TokenTwoFAPend, u.ID)
		if err != nil {
			return LoginResult{}, internalErr("failed to generate 2fa token", err)
		}
		return LoginResult{Requires2FA: true, PendingToken: pending, Session: sess}, nil
	}

	access, aexp, err := s.Tokens.Generate(helpers.TokenAccess, u.ID)
	if err != nil {
		return LoginResult{}, internalErr("failed to generate access token", err)
	}

	return LoginResult{
		User:    sanitize(u),
		Session: sess,
		Pair: TokenPair{
			AccessToken: access, AccessTokenExpiry: aexp,
			RefreshToken: refresh, RefreshTokenExpiry: rexp,
		},
	}, nil
}

// LoginWith2FA completes the challenge started by Login with the strict
// zero-drift code check and issues the full token pair. The device session
// from the initial Login call stays bound to its original refresh token.
func (s *Service) LoginWith2FA(ctx context.Context, userID, code string) (LoginResult, *FlowError) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, flowErr(KindNotFound, "user not found")
		}
		return LoginResult{}, internalErr("user lookup failed", err)
	}
	if !u.TwoFactorEnabled || u.TwoFactorSecret == "" {
		return LoginResult{}, flowErr(KindUnauthorized, "two-factor authentication is not enabled")
	}

	ok, err := helpers.VerifyTOTP(u.TwoFactorSecret, code, loginSkew, time.Now())
	if err != nil {
		return LoginResult{}, internalErr("2fa verification failed", err)
	}
	if !ok {
		return LoginResult{}, flowErr(KindUnauthorized, "invalid two-factor code")
	}

	pair, ferr := s.issuePair(u.ID)
	if ferr != nil {
		return LoginResult{}, ferr
	}
	u.RefreshToken = pair.RefreshToken
	if err := s.Users.UpdateAuthState(ctx, u); err != nil {
		return LoginResult{}, internalErr("failed to persist refresh token", err)
	}

	return LoginResult{User: sanitize(u), Pair: pair}, nil
}

// Refresh rotates the token pair. The presented token must verify, match a
// live session for its subject, and equal the user's currently stored
// refresh token; any mismatch is treated as replay.
func (s *Service) Refresh(ctx context.Context, presented string) (TokenPair, string, *FlowError) {
	if presented == "" {
		return TokenPair{}, "", flowErr(KindUnauthorized, "missing refresh token")
	}
	claims, err := s.Tokens.Parse(helpers.TokenRefresh, presented)
	if err != nil {
		return TokenPair{}, "", flowErr(KindUnauthorized, "invalid refresh token")
	}

	if _, err := s.Sessions.FindByUserAndRefreshToken(ctx, claims.UserID, presented); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, "", flowErr(KindUnauthorized, "invalid refresh token")
		}
		return TokenPair{}, "", internalErr("session lookup failed", err)
	}

	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, "", flowErr(KindNotFound, "user not found")
		}
		return TokenPair{}, "", internalErr("user lookup failed", err)
	}
	if u.RefreshToken != presented {
		return TokenPair{}, "", flowErr(KindUnauthorized, "refresh token has been rotated or revoked")
	}

	pair, ferr := s.issuePair(u.ID)
	if ferr != nil {
		return TokenPair{}, "", ferr
	}
	u.RefreshToken = pair.RefreshToken
	if err := s.Users.UpdateAuthState(ctx, u); err != nil {
		return TokenPair{}, "", internalErr("failed to persist refresh token", err)
	}
	return pair, u.ID, nil
}

// Logout clears the user's stored refresh token and removes every device
// session. Safe to call repeatedly.
func (s *Service) Logout(ctx context.Context, userID string) *FlowError {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return internalErr("user lookup failed", err)
	}
	if u != nil && u.RefreshToken != "" {
		u.RefreshToken = ""
		if err := s.Users.UpdateAuthState(ctx, u); err != nil {
			return internalErr("failed to clear refresh token", err)
		}
	}
	if err := s.Sessions.DeleteAllForUser(ctx, userID); err != nil {
		return internalErr("failed to delete sessions", err)
	}
	return nil
}
