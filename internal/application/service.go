package application

import (
	"context"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sirupsen/logrus"

	"github.com/radityabs/huddle-backend/internal/domain/entity"
	"github.com/radityabs/huddle-backend/internal/domain/repository"
	"github.com/radityabs/huddle-backend/pkg/helpers"
)

// Enrollment confirmation tolerates one step of clock drift either way; the
// login-time check accepts the current step only. The asymmetry is the
// documented product behavior, do not unify silently.
const (
	enrollSkew = 1
	loginSkew  = 0
)

// VerificationMailer delivers account emails. Implementations enqueue rather
// than send inline; failures are logged, never surfaced to the caller.
type VerificationMailer interface {
	SendVerification(ctx context.Context, to, name, token string, expiresAt time.Time) error
	SendLoginAlert(ctx context.Context, to, name, ip, userAgent string, at time.Time) error
}

// AvatarStore persists uploaded profile pictures and returns a public URL.
type AvatarStore interface {
	Upload(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error)
}

// Service orchestrates the registration, verification, login, 2FA, refresh
// and logout flows. It is the only component that talks to collaborators.
type Service struct {
	Users    repository.UserRepository
	Sessions repository.SessionRegistry
	Tokens   *helpers.TokenManager
	Avatars  AvatarStore
	Mail     VerificationMailer
	Logger   *logrus.Logger

	ES           *elasticsearch.Client
	ESUsersIndex string

	TOTPIssuer string
}

func NewService(
	users repository.UserRepository,
	sessions repository.SessionRegistry,
	tokens *helpers.TokenManager,
	avatars AvatarStore,
	mail VerificationMailer,
	logger *logrus.Logger,
	es *elasticsearch.Client,
	esUsersIndex string,
	totpIssuer string,
) *Service {
	return &Service{
		Users:        users,
		Sessions:     sessions,
		Tokens:       tokens,
		Avatars:      avatars,
		Mail:         mail,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		TOTPIssuer:   totpIssuer,
	}
}

// SanitizedUser is the user shape returned to clients: no password hash, no
// refresh token, no verification or 2FA secrets.
type SanitizedUser struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	DOB              string    `json:"dob,omitempty"`
	Username         string    `json:"username,omitempty"`
	Bio              string    `json:"bio,omitempty"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	IsVerified       bool      `json:"is_verified"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func sanitize(u *entity.User) *SanitizedUser {
	out := &SanitizedUser{
		ID:               u.ID,
		Email:            u.Email,
		FullName:         u.FullName,
		Username:         u.Username,
		Bio:              u.Bio,
		AvatarURL:        u.AvatarURL,
		IsVerified:       u.IsVerified,
		TwoFactorEnabled: u.TwoFactorEnabled,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	if !u.DOB.IsZero() {
		out.DOB = u.DOB.Format("2006-01-02")
	}
	return out
}

// TokenPair is a freshly minted access/refresh pair.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func (s *Service) issuePair(userID string) (TokenPair, *FlowError) {
	access, aexp, err := s.Tokens.Generate(helpers.TokenAccess, userID)
	if err != nil {
		return TokenPair{}, internalErr("failed to generate tokens", err)
	}
	refresh, rexp, err := s.Tokens.Generate(helpers.TokenRefresh, userID)
	if err != nil {
		return TokenPair{}, internalErr("failed to generate tokens", err)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *Service) warn(err error, msg string, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	e := s.Logger.WithFields(fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Warn(msg)
}
