package entity

import "time"

// Device describes the origin of a session. Fingerprint is a hex sha256 over
// client IP + user agent, computed by the transport layer and stored verbatim.
type Device struct {
	IP          string `json:"ip"`
	UserAgent   string `json:"user_agent"`
	Fingerprint string `json:"fingerprint"`
}

// Session is one authenticated device for one user. Sessions are immutable
// once created; a new login creates a new session rather than updating one.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Device       Device    `json:"device"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its TTL. Reads must treat an
// expired session as nonexistent even if the backing record is still present.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Sanitized returns a copy safe for listing in device-management responses:
// the bound refresh token is never exposed.
func (s *Session) Sanitized() Session {
	out := *s
	out.RefreshToken = ""
	return out
}
