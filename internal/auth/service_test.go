package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hikari-shop/hikari/internal/shared"
)

type memoryRepo struct {
	byEmail map[string]*User
	byID    map[string]*User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byEmail: make(map[string]*User), byID: make(map[string]*User)}
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindByID(ctx context.Context, id string) (*User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, user User) error {
	u := user
	r.byEmail[u.Email] = &u
	r.byID[u.ID] = &u
	return nil
}

func (r *memoryRepo) CountUsers(ctx context.Context) (int, error) {
	return len(r.byID), nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newMemoryRepo()
	return NewService(repo, NewTokenStore(client, time.Hour)), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Misa@Example.com", "Misa Amane", "supersecret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "misa@example.com", user.Email)
	require.False(t, user.IsAdmin)

	_, _, err = svc.Register(ctx, "misa@example.com", "Misa Amane", "supersecret")
	require.ErrorIs(t, err, shared.ErrEmailTaken)

	logged, token2, err := svc.Login(ctx, "misa@example.com", "supersecret")
	require.NoError(t, err)
	require.Equal(t, user.ID, logged.ID)
	require.NotEqual(t, token, token2)

	_, _, err = svc.Login(ctx, "misa@example.com", "wrongpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestIdentifyDerivesIdentityPerCall(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "light@example.com", "Light Yagami", "supersecret")
	require.NoError(t, err)

	identity, err := svc.Identify(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, identity.UserID)
	require.False(t, identity.IsAdmin)

	// Flipping the admin flag in storage must be visible on the next call.
	repo.byID[user.ID].IsAdmin = true
	identity, err = svc.Identify(ctx, token)
	require.NoError(t, err)
	require.True(t, identity.IsAdmin)

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.Identify(ctx, token)
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestIdentifyRejectsInactiveUser(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "rem@example.com", "Rem", "supersecret")
	require.NoError(t, err)

	repo.byID[user.ID].IsActive = false
	_, err = svc.Identify(ctx, token)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
