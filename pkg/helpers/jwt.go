package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind selects which secret and TTL a token is signed with. Each kind has
// an independent secret, so a token of one kind never verifies as another.
type TokenKind string

const (
	TokenAccess      TokenKind = "access"
	TokenRefresh     TokenKind = "refresh"
	TokenEmailVerify TokenKind = "email_verification"
	TokenTwoFAPend   TokenKind = "twofa_pending"
)

var (
	// ErrTokenExpired is returned when a structurally valid token is past exp.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every other verification failure: bad signature,
	// malformed token, wrong kind, unexpected signing method.
	ErrTokenInvalid = errors.New("token invalid")
)

type kindConfig struct {
	secret []byte
	ttl    time.Duration
}

// TokenManager signs and verifies the four bearer token kinds with HS256.
// Verification is pure: no side effects, no store access.
type TokenManager struct {
	kinds map[TokenKind]kindConfig
}

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	EmailSecret   string
	TwoFASecret   string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	EmailTTL      time.Duration
	TwoFATTL      time.Duration
}

func NewTokenManager(cfg TokenConfig) *TokenManager {
	return &TokenManager{
		kinds: map[TokenKind]kindConfig{
			TokenAccess:      {secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL},
			TokenRefresh:     {secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
			TokenEmailVerify: {secret: []byte(cfg.EmailSecret), ttl: cfg.EmailTTL},
			TokenTwoFAPend:   {secret: []byte(cfg.TwoFASecret), ttl: cfg.TwoFATTL},
		},
	}
}

// Claims carried by every token: subject user ID plus the kind it was minted
// as, alongside registered iat/exp.
type Claims struct {
	UserID string `json:"uid"`
	Kind   string `json:"knd"`
	jwt.RegisteredClaims
}

// Generate mints a token of the given kind with the kind's configured TTL.
func (m *TokenManager) Generate(kind TokenKind, userID string) (string, time.Time, error) {
	kc, ok := m.kinds[kind]
	if !ok {
		return "", time.Time{}, ErrTokenInvalid
	}
	return m.generate(kind, kc, userID, kc.ttl)
}

// GenerateWithTTL mints a token with an explicit TTL overriding the default.
func (m *TokenManager) GenerateWithTTL(kind TokenKind, userID string, ttl time.Duration) (string, time.Time, error) {
	kc, ok := m.kinds[kind]
	if !ok {
		return "", time.Time{}, ErrTokenInvalid
	}
	return m.generate(kind, kc, userID, ttl)
}

func (m *TokenManager) generate(kind TokenKind, kc kindConfig, userID string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID: userID,
		Kind:   string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(kc.secret)
	return s, exp, err
}

// Parse verifies the token against the expected kind's secret. It returns
// ErrTokenExpired for exp failures and ErrTokenInvalid for everything else,
// including a token minted as a different kind.
func (m *TokenManager) Parse(kind TokenKind, tokenStr string) (*Claims, error) {
	kc, ok := m.kinds[kind]
	if !ok {
		return nil, ErrTokenInvalid
	}
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return kc.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tkn.Valid || claims.Kind != string(kind) || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// TTL reports the configured default TTL for a kind.
func (m *TokenManager) TTL(kind TokenKind) time.Duration {
	return m.kinds[kind].ttl
}
