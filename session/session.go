// Package session holds the signed-in identity and its bearer credential,
// persisted across restarts in a db.Store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"agromart/db"
	"agromart/globals"
	"agromart/middleware"
	"agromart/models"

	"github.com/rs/zerolog"
)

// ErrLoginRequired is returned by operations that need a signed-in user.
var ErrLoginRequired = errors.New("please log in to continue")

// Authenticator is the part of the API gateway the session talks to.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, p models.Profile) (*models.AuthResponse, error)
	Me(ctx context.Context) (*models.User, error)
}

// Snapshot is an immutable view of the session. User is nil when nobody
// is signed in.
type Snapshot struct {
	User  *models.User
	Token string
}

func (s Snapshot) LoggedIn() bool { return s.User != nil && s.Token != "" }

// Role is the signed-in role, or "" for anonymous.
func (s Snapshot) Role() models.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

type Options struct {
	// Secret, when set, seals the persisted record with secretbox.
	Secret string
	Logger zerolog.Logger
	Now    func() time.Time
}

// record is the persisted form. Both fields are set or neither is stored.
type record struct {
	User        models.User `json:"user"`
	AccessToken string      `json:"access_token"`
}

// Store is the session store. User and token are always both present or
// both absent.
type Store struct {
	mu    sync.Mutex
	user  *models.User
	token string
	subs  map[int]func(Snapshot)
	next  int

	db     db.Store
	auth   Authenticator
	key    *[32]byte
	logger zerolog.Logger
	now    func() time.Time
}

// Open restores any persisted session before returning. A record that
// cannot be read, is half-populated, or carries an expired credential is
// deleted and the store starts signed out.
func Open(ctx context.Context, store db.Store, auth Authenticator, opts Options) (*Store, error) {
	s := &Store{
		subs:   make(map[int]func(Snapshot)),
		db:     store,
		auth:   auth,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.Secret != "" {
		key, err := deriveKey(opts.Secret)
		if err != nil {
			return nil, err
		}
		s.key = key
	}

	raw, err := store.Get(ctx, globals.SessionKey)
	if errors.Is(err, db.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	rec, err := s.decode(raw)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Msg("discarding unreadable session")
	case rec.AccessToken == "" || rec.User.ID == "":
		s.logger.Warn().Msg("discarding incomplete session")
	case middleware.Expired(rec.AccessToken, s.now()):
		s.logger.Info().Str("user", rec.User.Email).Msg("stored session expired")
	default:
		u := rec.User
		s.user, s.token = &u, rec.AccessToken
		return s, nil
	}
	if err := store.Delete(ctx, globals.SessionKey); err != nil {
		s.logger.Warn().Err(err).Msg("delete stale session")
	}
	return s, nil
}

func (s *Store) decode(raw []byte) (*record, error) {
	if s.key != nil {
		plain, err := unseal(s.key, raw)
		if err != nil {
			return nil, err
		}
		raw = plain
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) encode(rec record) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if s.key == nil {
		return raw, nil
	}
	return seal(s.key, raw)
}

// Current returns a snapshot of the session.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	if s.user == nil {
		return Snapshot{}
	}
	u := *s.user
	return Snapshot{User: &u, Token: s.token}
}

// Token is the bearer credential, "" when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Subscribe registers fn for every change and returns a cancel func.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) publish(snap Snapshot) {
	s.mu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// Login authenticates and, on success, replaces the current session.
// A failed login leaves the store unchanged.
func (s *Store) Login(ctx context.Context, email, password string) (*models.User, error) {
	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, res), nil
}

// Register creates the account and signs it in.
func (s *Store) Register(ctx context.Context, p models.Profile) (*models.User, error) {
	res, err := s.auth.Register(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, res), nil
}

func (s *Store) establish(ctx context.Context, res *models.AuthResponse) *models.User {
	u := res.User
	s.mu.Lock()
	s.user, s.token = &u, res.AccessToken
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, record{User: u, AccessToken: res.AccessToken})
	s.logger.Info().Str("user", u.Email).Str("role", string(u.Role)).Msg("signed in")
	s.publish(snap)
	return snap.User
}

// persist is best effort; the in-memory session stays valid either way.
func (s *Store) persist(ctx context.Context, rec record) {
	raw, err := s.encode(rec)
	if err == nil {
		err = s.db.Put(ctx, globals.SessionKey, raw)
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("persist session")
	}
}

// Me refreshes the identity from the server.
func (s *Store) Me(ctx context.Context) (*models.User, error) {
	if !s.Current().LoggedIn() {
		return nil, ErrLoginRequired
	}
	u, err := s.auth.Me(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.user == nil {
		// expired while the call was in flight
		s.mu.Unlock()
		return nil, ErrLoginRequired
	}
	cp := *u
	s.user = &cp
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, record{User: *u, AccessToken: snap.Token})
	s.publish(snap)
	return snap.User, nil
}

// Logout clears the session unconditionally.
func (s *Store) Logout(ctx context.Context) {
	s.clear(ctx)
	s.logger.Info().Msg("signed out")
}

// Expire destroys the session after the server rejected the credential.
func (s *Store) Expire() {
	if s.clear(context.Background()) {
		s.logger.Warn().Msg("session expired")
	}
}

func (s *Store) clear(ctx context.Context) bool {
	s.mu.Lock()
	had := s.user != nil
	s.user, s.token = nil, ""
	s.mu.Unlock()

	if err := s.db.Delete(ctx, globals.SessionKey); err != nil && !errors.Is(err, db.ErrNotFound) {
		s.logger.Warn().Err(err).Msg("delete session")
	}
	if had {
		s.publish(Snapshot{})
	}
	return had
}
