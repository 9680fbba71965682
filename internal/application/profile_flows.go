package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/radityabs/huddle-backend/internal/domain/entity"
	"github.com/radityabs/huddle-backend/internal/domain/repository"
	"github.com/radityabs/huddle-backend/pkg/helpers"
)

type CompleteProfileInput struct {
	Username string
	Password string
	Bio      string

	Avatar            io.Reader
	AvatarFilename    string
	AvatarContentType string
}

// CompleteProfile finalizes username, password, bio and avatar. For an
// unverified user the call succeeds without mutating anything; callers that
// want the stricter behavior must check is_verified in the returned user.
func (s *Service) CompleteProfile(ctx context.Context, userID string, in CompleteProfileInput) (*SanitizedUser, *FlowError) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, flowErr(KindNotFound, "user not found")
		}
		return nil, internalErr("user lookup failed", err)
	}

	username := strings.TrimSpace(in.Username)
	bio := strings.TrimSpace(in.Bio)
	if username == "" || in.Password == "" || bio == "" || in.Avatar == nil {
		return nil, flowErr(KindValidation, "username, password, bio and profile picture are required")
	}

	// Fast-path check; the partial unique index is the source of truth.
	if existing, err := s.Users.GetByUsername(ctx, username); err == nil && existing.ID != u.ID {
		return nil, flowErr(KindConflict, "username is already taken")
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, internalErr("username lookup failed", err)
	}

	if !u.IsVerified {
		// Historical behavior: the update is silently skipped instead of
		// failing with forbidden.
		s.warn(nil, "profile completion skipped for unverified user", logrus.Fields{"user_id": u.ID})
		return sanitize(u), nil
	}

	avatarURL, err := s.Avatars.Upload(ctx, u.ID, in.Avatar, in.AvatarFilename, in.AvatarContentType)
	if err != nil {
		return nil, internalErr("avatar upload failed", err)
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, internalErr("password hashing failed", err)
	}

	u.Username = username
	u.PasswordHash = hash
	u.Bio = bio
	u.AvatarURL = avatarURL
	if err := s.Users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, flowErr(KindConflict, "username is already taken")
		}
		return nil, internalErr("profile update failed", err)
	}

	_ = s.indexUser(ctx, u)
	return sanitize(u), nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*SanitizedUser, *FlowError) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, flowErr(KindNotFound, "user not found")
		}
		return nil, internalErr("user lookup failed", err)
	}
	return sanitize(u), nil
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"username":   u.Username,
		"full_name":  u.FullName,
		"avatar_url": u.AvatarURL,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.warn(err, "es index failed", logrus.Fields{"user_id": u.ID})
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.warn(nil, "es index response error", logrus.Fields{"status": res.Status(), "user_id": u.ID})
	}
	return nil
}

// SearchUsers performs a simple multi_match search on email, username and
// full name.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, *FlowError) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "username^2", "full_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESUsersIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, internalErr("search failed", err)
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, internalErr("search decode failed", err)
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
