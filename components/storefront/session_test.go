package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	result   AuthResult
	loginErr error
	me       Record
	meErr    error
	meCalls  int
}

func (s *stubAuth) Login(context.Context, string, string) (AuthResult, error) {
	if s.loginErr != nil {
		return AuthResult{}, s.loginErr
	}
	return s.result, nil
}

func (s *stubAuth) Me(context.Context) (Record, error) {
	s.meCalls++
	if s.meErr != nil {
		return nil, s.meErr
	}
	return s.me, nil
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSessionLoginPersistsAndBroadcasts(t *testing.T) {
	storage := NewInMemoryStorage()
	auth := &stubAuth{result: AuthResult{
		User:   Record{"email": "ana@example.com", "is_staff": true},
		Access: "opaque-token",
	}}
	session, err := NewSession(context.Background(), SessionOptions{Storage: storage, Auth: auth})
	require.NoError(t, err)

	updates, cancel := session.Subscribe()
	defer cancel()

	user, err := session.Login(context.Background(), " ana@example.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.String("email"))
	assert.True(t, session.Authenticated())
	assert.True(t, session.Staff())
	assert.NoError(t, session.RequireStaff())

	state := <-updates
	assert.Equal(t, "opaque-token", state.Token)

	token, ok, err := storage.Get(context.Background(), TokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "opaque-token", token)

	restored, err := NewSession(context.Background(), SessionOptions{Storage: storage})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", restored.User().String("email"))
}

func TestSessionSubscriberHoldsLatestState(t *testing.T) {
	session, err := NewSession(context.Background(), SessionOptions{})
	require.NoError(t, err)
	updates, cancel := session.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				assert.NoError(t, session.Logout(context.Background()))
				return
			}
			user := Record{"email": fmt.Sprintf("user%d@example.com", i)}
			assert.NoError(t, session.Set(context.Background(), user, fmt.Sprintf("token-%d", i)))
		}(i)
	}
	wg.Wait()

	state := <-updates
	assert.Equal(t, session.Token(), state.Token)
	assert.Equal(t, session.User().String("email"), state.User.String("email"))
}

func TestSessionLoginFailureKeepsLoggedOut(t *testing.T) {
	auth := &stubAuth{loginErr: userMessageErr("Credenciales inválidas")}
	session, err := NewSession(context.Background(), SessionOptions{Auth: auth})
	require.NoError(t, err)

	_, err = session.Login(context.Background(), "a@b.c", "bad")
	require.Error(t, err)
	assert.Equal(t, "Credenciales inválidas", MessageFor(err, "login failed"))
	assert.False(t, session.Authenticated())
	assert.ErrorIs(t, session.RequireAuth(), ErrUnauthenticated)
}

func TestSessionLoginRequiresAccessToken(t *testing.T) {
	auth := &stubAuth{result: AuthResult{User: Record{"email": "a@b.c"}}}
	session, err := NewSession(context.Background(), SessionOptions{Auth: auth})
	require.NoError(t, err)
	_, err = session.Login(context.Background(), "a@b.c", "pw")
	require.Error(t, err)
	assert.Empty(t, session.Token())
}

func TestSessionExpiredJWTIsNotAuthenticated(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	clock := ClockFunc(func() time.Time { return now })
	session, err := NewSession(context.Background(), SessionOptions{Clock: clock})
	require.NoError(t, err)

	require.NoError(t, session.Set(context.Background(), Record{"rol": "cliente"}, signedToken(t, now.Add(time.Hour))))
	assert.True(t, session.Authenticated())
	assert.ErrorIs(t, session.RequireStaff(), ErrForbidden)

	require.NoError(t, session.Set(context.Background(), Record{"rol": "cliente"}, signedToken(t, now.Add(-time.Minute))))
	assert.False(t, session.Authenticated())
	assert.ErrorIs(t, session.RequireAuth(), ErrUnauthenticated)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	got, ok := TokenExpiry(signedToken(t, exp))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = TokenExpiry("not-a-jwt")
	assert.False(t, ok)
}

func TestSessionDiscardsMalformedStoredUser(t *testing.T) {
	storage := NewInMemoryStorage()
	require.NoError(t, storage.Set(context.Background(), TokenKey, "tok"))
	require.NoError(t, storage.Set(context.Background(), UserKey, "{not json"))

	session, err := NewSession(context.Background(), SessionOptions{Storage: storage})
	require.NoError(t, err)
	assert.Nil(t, session.User())
	assert.Equal(t, "tok", session.Token())
	_, ok, _ := storage.Get(context.Background(), UserKey)
	assert.False(t, ok)
}

func TestSessionHydrate(t *testing.T) {
	storage := NewInMemoryStorage()
	require.NoError(t, storage.Set(context.Background(), TokenKey, "tok"))
	auth := &stubAuth{me: Record{"email": "me@example.com", "rol": "Admin"}}

	session, err := NewSession(context.Background(), SessionOptions{Storage: storage, Auth: auth})
	require.NoError(t, err)
	require.NoError(t, session.Hydrate(context.Background()))
	assert.Equal(t, "me@example.com", session.User().String("email"))
	assert.True(t, session.Staff())

	require.NoError(t, session.Hydrate(context.Background()))
	assert.Equal(t, 1, auth.meCalls, "user already loaded")
}

func TestSessionHydrateFailureLogsOut(t *testing.T) {
	storage := NewInMemoryStorage()
	require.NoError(t, storage.Set(context.Background(), TokenKey, "stale"))
	auth := &stubAuth{meErr: errors.New("401")}

	session, err := NewSession(context.Background(), SessionOptions{Storage: storage, Auth: auth})
	require.NoError(t, err)
	require.Error(t, session.Hydrate(context.Background()))
	assert.Empty(t, session.Token())
	_, ok, _ := storage.Get(context.Background(), TokenKey)
	assert.False(t, ok)
}

func TestSessionLogout(t *testing.T) {
	storage := NewInMemoryStorage()
	session, err := NewSession(context.Background(), SessionOptions{Storage: storage})
	require.NoError(t, err)
	require.NoError(t, session.Set(context.Background(), Record{"email": "x@y.z"}, "tok"))

	require.NoError(t, session.Logout(context.Background()))
	assert.False(t, session.Authenticated())
	assert.Nil(t, session.User())
	assert.Empty(t, storage.Keys(""))
}

func TestIsStaff(t *testing.T) {
	assert.False(t, IsStaff(nil))
	assert.False(t, IsStaff(Record{"rol": "cliente"}))
	assert.True(t, IsStaff(Record{"is_staff": true}))
	assert.True(t, IsStaff(Record{"is_superuser": "true"}))
	assert.True(t, IsStaff(Record{"rol": "ADMIN"}))
}
