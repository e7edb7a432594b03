package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"agromart/db"
	"agromart/gateway"
	"agromart/globals"
	"agromart/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	res   *models.AuthResponse
	err   error
	me    *models.User
	calls int
}

func (a *stubAuth) Login(context.Context, string, string) (*models.AuthResponse, error) {
	a.calls++
	return a.res, a.err
}

func (a *stubAuth) Register(_ context.Context, p models.Profile) (*models.AuthResponse, error) {
	a.calls++
	if err := p.Validate(); err != nil {
		return nil, gateway.Invalid(err)
	}
	return a.res, a.err
}

func (a *stubAuth) Me(context.Context) (*models.User, error) {
	if a.me == nil {
		return nil, &gateway.AuthError{Status: 401, Detail: "Invalid token"}
	}
	return a.me, nil
}

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u1",
		"role": "buyer",
		"exp":  exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func buyer() models.User {
	return models.User{ID: "u1", Email: "asha@example.com", Name: "Asha", Role: models.RoleBuyer}
}

func open(t *testing.T, store db.Store, auth Authenticator, secret string) *Store {
	t.Helper()
	s, err := Open(context.Background(), store, auth, Options{Secret: secret, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return s
}

func TestRestoreAfterRestart(t *testing.T) {
	ctx := context.Background()
	mem := db.NewMemoryStore()
	tok := token(t, time.Now().Add(time.Hour))
	auth := &stubAuth{res: &models.AuthResponse{AccessToken: tok, User: buyer()}}

	s := open(t, mem, auth, "")
	assert.False(t, s.Current().LoggedIn())
	u, err := s.Login(ctx, "asha@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	restored := open(t, mem, auth, "")
	snap := restored.Current()
	require.True(t, snap.LoggedIn())
	assert.Equal(t, buyer().Email, snap.User.Email)
	assert.Equal(t, tok, restored.Token())
	assert.Equal(t, models.RoleBuyer, snap.Role())
}

func TestSealedRecord(t *testing.T) {
	ctx := context.Background()
	mem := db.NewMemoryStore()
	auth := &stubAuth{res: &models.AuthResponse{AccessToken: "opaque", User: buyer()}}

	s := open(t, mem, auth, "s3cret")
	_, err := s.Login(ctx, "asha@example.com", "pw")
	require.NoError(t, err)

	raw, err := mem.Get(ctx, globals.SessionKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "asha@example.com")

	assert.True(t, open(t, mem, auth, "s3cret").Current().LoggedIn())

	// a different secret cannot read it and the record is dropped
	assert.False(t, open(t, mem, auth, "other").Current().LoggedIn())
	_, err = mem.Get(ctx, globals.SessionKey)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestExpiredCredentialNotRestored(t *testing.T) {
	ctx := context.Background()
	mem := db.NewMemoryStore()
	auth := &stubAuth{res: &models.AuthResponse{AccessToken: token(t, time.Now().Add(-time.Minute)), User: buyer()}}

	s := open(t, mem, auth, "")
	_, err := s.Login(ctx, "asha@example.com", "pw")
	require.NoError(t, err)

	assert.False(t, open(t, mem, auth, "").Current().LoggedIn())
	_, err = mem.Get(ctx, globals.SessionKey)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestHalfRecordDiscarded(t *testing.T) {
	mem := db.NewMemoryStore()
	require.NoError(t, mem.Put(context.Background(), globals.SessionKey, []byte(`{"user":{"id":"u1"}}`)))
	assert.False(t, open(t, mem, &stubAuth{}, "").Current().LoggedIn())
}

func TestFailedLoginLeavesSessionAlone(t *testing.T) {
	auth := &stubAuth{err: &gateway.AuthError{Status: 401, Detail: "Invalid credentials"}}
	s := open(t, db.NewMemoryStore(), auth, "")

	_, err := s.Login(context.Background(), "asha@example.com", "bad")
	var ae *gateway.AuthError
	require.ErrorAs(t, err, &ae)
	assert.False(t, s.Current().LoggedIn())
}

func TestRegisterValidation(t *testing.T) {
	s := open(t, db.NewMemoryStore(), &stubAuth{}, "")
	_, err := s.Register(context.Background(), models.Profile{Name: "A", Email: "a@b.c", Password: "x", Role: models.RoleAdmin})
	var ve *gateway.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.False(t, s.Current().LoggedIn())
}

func TestLogoutNotifiesAndDeletes(t *testing.T) {
	ctx := context.Background()
	mem := db.NewMemoryStore()
	auth := &stubAuth{res: &models.AuthResponse{AccessToken: "opaque", User: buyer()}}
	s := open(t, mem, auth, "")

	var seen []Snapshot
	cancel := s.Subscribe(func(snap Snapshot) { seen = append(seen, snap) })
	defer cancel()

	_, err := s.Login(ctx, "asha@example.com", "pw")
	require.NoError(t, err)
	s.Logout(ctx)

	require.Len(t, seen, 2)
	assert.True(t, seen[0].LoggedIn())
	assert.False(t, seen[1].LoggedIn())
	assert.Empty(t, s.Token())
	_, err = mem.Get(ctx, globals.SessionKey)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestExpireAndMe(t *testing.T) {
	ctx := context.Background()
	auth := &stubAuth{res: &models.AuthResponse{AccessToken: "opaque", User: buyer()}}
	s := open(t, db.NewMemoryStore(), auth, "")

	_, err := s.Me(ctx)
	assert.ErrorIs(t, err, ErrLoginRequired)

	_, err = s.Login(ctx, "asha@example.com", "pw")
	require.NoError(t, err)

	renamed := buyer()
	renamed.Name = "Asha K"
	auth.me = &renamed
	u, err := s.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asha K", u.Name)
	assert.Equal(t, "Asha K", s.Current().User.Name)

	s.Expire()
	assert.False(t, s.Current().LoggedIn())
}

func TestSnapshotIsACopy(t *testing.T) {
	auth := &stubAuth{res: &models.AuthResponse{AccessToken: "opaque", User: buyer()}}
	s := open(t, db.NewMemoryStore(), auth, "")
	_, err := s.Login(context.Background(), "a", "b")
	require.NoError(t, err)

	snap := s.Current()
	snap.User.Name = "changed"
	assert.Equal(t, "Asha", s.Current().User.Name)
}

type failingStore struct{ db.Store }

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func TestOpenPropagatesStoreErrors(t *testing.T) {
	_, err := Open(context.Background(), failingStore{db.NewMemoryStore()}, &stubAuth{}, Options{Logger: zerolog.Nop()})
	assert.Error(t, err)
}
