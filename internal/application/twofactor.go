package application

import (
	"context"
	"errors"
	"time"

	"github.com/radityabs/huddle-backend/internal/domain/repository"
	"github.com/radityabs/huddle-backend/pkg/helpers"
)

// TwoFactorEnrollment is the material the client renders as a QR code.
type TwoFactorEnrollment struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

// BeginTwoFactorEnrollment moves the account from Disabled to Pending:
// a fresh secret is stored with the enabled flag off. Calling again while
// Pending overwrites the previous secret.
func (s *Service) BeginTwoFactorEnrollment(ctx context.Context, userID string) (*TwoFactorEnrollment, *FlowError) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, flowErr(KindNotFound, "user not found")
		}
		return nil, internalErr("user lookup failed", err)
	}
	if u.TwoFactorEnabled {
		return nil, flowErr(KindConflict, "two-factor authentication is already enabled")
	}

	secret, err := helpers.GenerateTOTPSecret()
	if err != nil {
		return nil, internalErr("failed to generate 2fa secret", err)
	}
	u.TwoFactorSecret = secret
	u.TwoFactorEnabled = false
	if err := s.Users.UpdateAuthState(ctx, u); err != nil {
		return nil, internalErr("failed to store 2fa secret", err)
	}

	return &TwoFactorEnrollment{
		Secret: secret,
		URI:    helpers.TOTPProvisionURI(s.TOTPIssuer, u.Email, secret),
	}, nil
}

// ConfirmTwoFactorEnrollment moves Pending to Enabled when the submitted
// code verifies within the enrollment drift window. On failure the account
// stays Pending.
func (s *Service) ConfirmTwoFactorEnrollment(ctx context.Context, userID, code string) *FlowError {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return flowErr(KindNotFound, "user not found")
		}
		return internalErr("user lookup failed", err)
	}
	if u.TwoFactorSecret == "" {
		return flowErr(KindValidation, "two-factor enrollment has not been started")
	}
	if u.TwoFactorEnabled {
		return nil // already enabled, nothing to confirm
	}

	ok, err := helpers.VerifyTOTP(u.TwoFactorSecret, code, enrollSkew, time.Now())
	if err != nil {
		return internalErr("2fa verification failed", err)
	}
	if !ok {
		return flowErr(KindUnauthorized, "invalid two-factor code")
	}

	u.TwoFactorEnabled = true
	if err := s.Users.UpdateAuthState(ctx, u); err != nil {
		return internalErr("failed to enable 2fa", err)
	}
	return nil
}
