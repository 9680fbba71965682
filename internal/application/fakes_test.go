package application

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/radityabs/huddle-backend/internal/domain/entity"
	"github.com/radityabs/huddle-backend/internal/domain/repository"
	"github.com/radityabs/huddle-backend/pkg/helpers"
)

// In-memory collaborators mirroring the store semantics the flows rely on:
// unique email/username, copy-on-read, session index per user.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*entity.User{}}
}

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.users {
		if ex.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username != "" && u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.users {
		if id != u.ID && u.Username != "" && other.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	ex.FullName = u.FullName
	ex.Username = u.Username
	ex.PasswordHash = u.PasswordHash
	ex.Bio = u.Bio
	ex.AvatarURL = u.AvatarURL
	ex.UpdatedAt = time.Now()
	return nil
}

func (r *memUserRepo) UpdateAuthState(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	ex.IsVerified = u.IsVerified
	ex.EmailVerifyToken = u.EmailVerifyToken
	ex.EmailVerifyTokenExpiry = u.EmailVerifyTokenExpiry
	ex.TwoFactorSecret = u.TwoFactorSecret
	ex.TwoFactorEnabled = u.TwoFactorEnabled
	ex.RefreshToken = u.RefreshToken
	ex.UpdatedAt = time.Now()
	return nil
}

type memSessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
	ttl      time.Duration
}

func newMemSessionRegistry() *memSessionRegistry {
	return &memSessionRegistry{sessions: map[string]*entity.Session{}, ttl: 30 * 24 * time.Hour}
}

func (r *memSessionRegistry) Create(_ context.Context, userID string, device entity.Device, refreshToken string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	s := &entity.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Device:       device,
		RefreshToken: refreshToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(r.ttl),
	}
	r.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (r *memSessionRegistry) GetByID(_ context.Context, sessionID string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.Expired(time.Now()) {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRegistry) FindByUserAndRefreshToken(_ context.Context, userID, refreshToken string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID && s.RefreshToken == refreshToken && !s.Expired(time.Now()) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memSessionRegistry) ListByUser(_ context.Context, userID string) ([]entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Session
	for _, s := range r.sessions {
		if s.UserID == userID && !s.Expired(time.Now()) {
			out = append(out, s.Sanitized())
		}
	}
	return out, nil
}

func (r *memSessionRegistry) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *memSessionRegistry) DeleteAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

type sentMail struct {
	To    string
	Name  string
	Token string
	Kind  string // "verification" or "login_alert"
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) SendVerification(_ context.Context, to, name, token string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Name: name, Token: token, Kind: "verification"})
	return nil
}

func (m *fakeMailer) SendLoginAlert(_ context.Context, to, name, _, _ string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Name: name, Kind: "login_alert"})
	return nil
}

func (m *fakeMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

type fakeAvatarStore struct{}

func (fakeAvatarStore) Upload(_ context.Context, userID string, r io.Reader, _, _ string) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	return "https://storage.googleapis.com/test-bucket/avatars/" + userID + "/avatar.png", nil
}

type testEnv struct {
	svc      *Service
	users    *memUserRepo
	sessions *memSessionRegistry
	mail     *fakeMailer
	tokens   *helpers.TokenManager
}

func newTestEnv() *testEnv {
	users := newMemUserRepo()
	sessions := newMemSessionRegistry()
	mail := &fakeMailer{}
	tokens := helpers.NewTokenManager(helpers.TokenConfig{
		AccessSecret:  "test-access",
		RefreshSecret: "test-refresh",
		EmailSecret:   "test-email",
		TwoFASecret:   "test-twofa",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    30 * 24 * time.Hour,
		EmailTTL:      24 * time.Hour,
		TwoFATTL:      5 * time.Minute,
	})
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := NewService(users, sessions, tokens, fakeAvatarStore{}, mail, logger, nil, "", "Huddle")
	return &testEnv{svc: svc, users: users, sessions: sessions, mail: mail, tokens: tokens}
}

func testDevice() entity.Device {
	ip, ua := "203.0.113.7", "Mozilla/5.0"
	return entity.Device{IP: ip, UserAgent: ua, Fingerprint: helpers.DeviceFingerprint(ip, ua)}
}

// registerVerified provisions a verified user ready to log in.
func (e *testEnv) registerVerified(ctx context.Context, email, password string) *entity.User {
	hash, _ := helpers.HashPassword(password)
	u := &entity.User{
		Email:        email,
		FullName:     "Test User",
		DOB:          time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		PasswordHash: hash,
		IsVerified:   true,
	}
	_ = e.users.Create(ctx, u)
	return u
}
