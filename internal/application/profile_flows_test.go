package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/radityabs/huddle-backend/pkg/helpers"
)

func completeInput(username string) CompleteProfileInput {
	return CompleteProfileInput{
		Username:          username,
		Password:          "password123",
		Bio:               "hello there",
		Avatar:            strings.NewReader("png-bytes"),
		AvatarFilename:    "avatar.png",
		AvatarContentType: "image/png",
	}
}

func TestCompleteProfile(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	u := env.registerVerified(ctx, "ada@example.com", "old-password")

	out, ferr := env.svc.CompleteProfile(ctx, u.ID, completeInput("ada"))
	require.Nil(t, ferr)
	require.Equal(t, "ada", out.Username)
	require.Equal(t, "hello there", out.Bio)
	require.Contains(t, out.AvatarURL, "avatars/"+u.ID)

	stored, _ := env.users.GetByID(ctx, u.ID)
	require.True(t, helpers.CompareHashAndPassword(stored.PasswordHash, "password123"))
	require.False(t, helpers.CompareHashAndPassword(stored.PasswordHash, "old-password"))
}

func TestCompleteProfile_Validation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	u := env.registerVerified(ctx, "ada@example.com", "password123")

	in := completeInput("ada")
	in.Bio = ""
	_, ferr := env.svc.CompleteProfile(ctx, u.ID, in)
	require.NotNil(t, ferr)
	require.Equal(t, KindValidation, ferr.Kind)

	in = completeInput("ada")
	in.Avatar = nil
	_, ferr = env.svc.CompleteProfile(ctx, u.ID, in)
	require.NotNil(t, ferr)
	require.Equal(t, KindValidation, ferr.Kind)
}

func TestCompleteProfile_UsernameTaken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a := env.registerVerified(ctx, "ada@example.com", "password123")
	b := env.registerVerified(ctx, "bob@example.com", "password123")

	_, ferr := env.svc.CompleteProfile(ctx, a.ID, completeInput("shared"))
	require.Nil(t, ferr)

	_, ferr = env.svc.CompleteProfile(ctx, b.ID, completeInput("shared"))
	require.NotNil(t, ferr)
	require.Equal(t, KindConflict, ferr.Kind)
}

func TestCompleteProfile_UnverifiedIsSilentNoop(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.Nil(t, env.svc.Register(ctx, RegisterInput{FullName: "Ada", DOB: "1990-01-01", Email: "ada@example.com"}))
	u, _ := env.users.GetByEmail(ctx, "ada@example.com")

	out, ferr := env.svc.CompleteProfile(ctx, u.ID, completeInput("ada"))
	require.Nil(t, ferr)
	require.False(t, out.IsVerified)
	require.Empty(t, out.Username)

	stored, _ := env.users.GetByID(ctx, u.ID)
	require.Empty(t, stored.Username)
	require.Empty(t, stored.PasswordHash)
}

func TestCompleteProfile_UnknownUser(t *testing.T) {
	env := newTestEnv()

	_, ferr := env.svc.CompleteProfile(context.Background(), "missing-id", completeInput("ada"))
	require.NotNil(t, ferr)
	require.Equal(t, KindNotFound, ferr.Kind)
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	u := env.registerVerified(ctx, "ada@example.com", "password123")

	out, ferr := env.svc.GetProfile(ctx, u.ID)
	require.Nil(t, ferr)
	require.Equal(t, u.ID, out.ID)
	require.Equal(t, "ada@example.com", out.Email)
	require.Equal(t, "1990-01-01", out.DOB)

	_, ferr = env.svc.GetProfile(ctx, "missing-id")
	require.NotNil(t, ferr)
	require.Equal(t, KindNotFound, ferr.Kind)
}
