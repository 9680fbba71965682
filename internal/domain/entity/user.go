package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in PasswordHash.
//
// A user is created at registration with only full name, date of birth and
// email; username, password, bio and avatar arrive later through profile
// completion. Optional columns are mapped to zero values, never pointers.
type User struct {
	ID       string
	Email    string
	FullName string
	DOB      time.Time

	Username     string // empty until profile completion; unique once set
	PasswordHash string // empty until profile completion
	Bio          string
	AvatarURL    string

	IsVerified             bool
	EmailVerifyToken       string
	EmailVerifyTokenExpiry time.Time // zero when no token is outstanding

	TwoFactorSecret  string // base32, set while enrollment is pending or enabled
	TwoFactorEnabled bool

	// RefreshToken is the most recently issued refresh token. Presenting any
	// other token during refresh is treated as replay.
	RefreshToken string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reports whether the user finished profile completion and can
// authenticate with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
