package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
)

type emailRepo struct {
	Repository
	users map[string]*User
}

func (r emailRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	if u, ok := r.users[email]; ok {
		return u, nil
	}
	return nil, errUserNotFound
}

func newTestService(t *testing.T, lockout *Lockout) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := emailRepo{users: map[string]*User{
		"ines@trainhub.io": {ID: 7, Email: "ines@trainhub.io", Role: authz.RoleInstructor, PasswordHash: string(hash), IsActive: true},
	}}
	svc := NewService(repo, lockout, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.hashCost = bcrypt.MinCost
	return svc
}

func TestAuthenticateUnknownEmailComparesDecoyHash(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Authenticate(context.Background(), "ines@trainhub.io", "secret1")
	require.NoError(t, err)
	assert.Nil(t, svc.dummyHash, "known accounts never need the decoy")

	_, err = svc.Authenticate(context.Background(), "nobody@trainhub.io", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.NotNil(t, svc.dummyHash)
	cost, err := bcrypt.Cost(svc.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	_, err = svc.Authenticate(context.Background(), "nobody@trainhub.io", "trainhub-decoy-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLockoutFailArmsWindowAtomically(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	lockout := NewLockout(client, 2, time.Minute)
	ctx := context.Background()
	key := lockout.key("ines@trainhub.io")

	count, err := lockout.Fail(ctx, "ines@trainhub.io")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(20 * time.Second)
	count, err = lockout.Fail(ctx, "ines@trainhub.io")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 40*time.Second, mr.TTL(key), "later failures keep the original window")

	locked, err := lockout.Locked(ctx, "ines@trainhub.io")
	require.NoError(t, err)
	assert.True(t, locked)

	mr.FastForward(41 * time.Second)
	locked, err = lockout.Locked(ctx, "ines@trainhub.io")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestLockoutFailsWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	lockout := NewLockout(client, 2, time.Minute)
	mr.Close()

	_, err := lockout.Fail(context.Background(), "ines@trainhub.io")
	assert.Error(t, err)

	count, err := (*Lockout)(nil).Fail(context.Background(), "ines@trainhub.io")
	require.NoError(t, err)
	assert.Zero(t, count)
}
