package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Storage keys owned by the session.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// AuthResult is the login response: the user plus access and refresh tokens.
type AuthResult struct {
	User    Record `json:"user"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthService is the subset of the auth endpoints the session drives.
type AuthService interface {
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Me(ctx context.Context) (Record, error)
}

// SessionState is a read-only snapshot broadcast to subscribers.
type SessionState struct {
	Token string
	User  Record
}

// SessionOptions configures a Session.
type SessionOptions struct {
	Storage Storage
	Auth    AuthService
	Clock   Clock
	Logger  *slog.Logger
}

// Session holds the authenticated token and user. It is the single writer of
// both; every other component reads through Token, User or Subscribe.
type Session struct {
	mu      sync.RWMutex
	storage Storage
	auth    AuthService
	clock   Clock
	logger  *slog.Logger

	token string
	user  Record

	subs map[int]chan SessionState
	next int
}

// NewSession restores token and user from storage. A stored user that is
// not valid JSON is discarded.
func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	if opts.Storage == nil {
		opts.Storage = NewInMemoryStorage()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	s := &Session{
		storage: opts.Storage,
		auth:    opts.Auth,
		clock:   opts.Clock,
		logger:  normalizeLogger(opts.Logger),
		subs:    make(map[int]chan SessionState),
	}

	token, _, err := s.storage.Get(ctx, TokenKey)
	if err != nil {
		return nil, fmt.Errorf("storefront: restore session token: %w", err)
	}
	s.token = token

	rawUser, ok, err := s.storage.Get(ctx, UserKey)
	if err != nil {
		return nil, fmt.Errorf("storefront: restore session user: %w", err)
	}
	if ok && rawUser != "" {
		var user Record
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			s.logger.Warn("discarding malformed stored user", slog.Any("error", err))
			_ = s.storage.Delete(ctx, UserKey)
		} else {
			s.user = user
		}
	}
	return s, nil
}

// Login authenticates against the backend and persists the session.
func (s *Session) Login(ctx context.Context, email, password string) (Record, error) {
	if s.auth == nil {
		return nil, ErrNoClient
	}
	result, err := s.auth.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	if result.Access == "" {
		return nil, fmt.Errorf("storefront: login response missing access token")
	}
	if err := s.Set(ctx, result.User, result.Access); err != nil {
		return nil, err
	}
	return result.User.Clone(), nil
}

// Set stores user and token, as after a login or registration.
func (s *Session) Set(ctx context.Context, user Record, token string) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("storefront: encode session user: %w", err)
	}

	s.mu.Lock()
	s.user = user.Clone()
	s.token = token
	s.mu.Unlock()

	if token == "" {
		err = s.storage.Delete(ctx, TokenKey)
	} else {
		err = s.storage.Set(ctx, TokenKey, token)
	}
	if err != nil {
		return fmt.Errorf("storefront: persist session token: %w", err)
	}
	if user == nil {
		err = s.storage.Delete(ctx, UserKey)
	} else {
		err = s.storage.Set(ctx, UserKey, string(raw))
	}
	if err != nil {
		return fmt.Errorf("storefront: persist session user: %w", err)
	}
	s.publish()
	return nil
}

// SetUser replaces the user (e.g. after a profile edit) keeping the token.
func (s *Session) SetUser(ctx context.Context, user Record) error {
	return s.Set(ctx, user, s.Token())
}

// Logout clears state and storage.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	errToken := s.storage.Delete(ctx, TokenKey)
	errUser := s.storage.Delete(ctx, UserKey)
	s.publish()
	if errToken != nil {
		return fmt.Errorf("storefront: clear session token: %w", errToken)
	}
	if errUser != nil {
		return fmt.Errorf("storefront: clear session user: %w", errUser)
	}
	return nil
}

// Hydrate loads the user from the backend when a token exists but no user
// does. A failed lookup means the token is no longer valid and logs out.
func (s *Session) Hydrate(ctx context.Context) error {
	s.mu.RLock()
	token, hasUser := s.token, s.user != nil
	s.mu.RUnlock()
	if token == "" || hasUser {
		return nil
	}
	if s.auth == nil {
		return ErrNoClient
	}
	me, err := s.auth.Me(ctx)
	if err != nil {
		s.logger.Warn("session rehydration failed, logging out", slog.Any("error", err))
		if logoutErr := s.Logout(ctx); logoutErr != nil {
			return logoutErr
		}
		return fmt.Errorf("storefront: hydrate session: %w", err)
	}
	return s.Set(ctx, me, token)
}

// Token returns the access token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user, or nil.
func (s *Session) User() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// Authenticated reports whether a usable token is present. A JWT whose exp
// claim has passed counts as logged out. Opaque tokens are trusted.
func (s *Session) Authenticated() bool {
	token := s.Token()
	if token == "" {
		return false
	}
	exp, ok := TokenExpiry(token)
	if !ok {
		return true
	}
	return s.clock.Now().Before(exp)
}

// Staff reports whether the user may access admin views.
func (s *Session) Staff() bool {
	return IsStaff(s.User())
}

// RequireAuth gates views that need a logged-in user.
func (s *Session) RequireAuth() error {
	if !s.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// RequireStaff gates admin views.
func (s *Session) RequireStaff() error {
	if err := s.RequireAuth(); err != nil {
		return err
	}
	if !s.Staff() {
		return ErrForbidden
	}
	return nil
}

// Subscribe returns a channel of session changes and a cancel func.
func (s *Session) Subscribe() (<-chan SessionState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan SessionState, 1)
	s.subs[id] = ch
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish sends the current state, so the last publish always carries the
// newest value.
func (s *Session) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.stateLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}

func (s *Session) stateLocked() SessionState {
	return SessionState{Token: s.token, User: s.user.Clone()}
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
func TokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IsStaff reports whether user carries is_staff, is_superuser or the admin role.
func IsStaff(user Record) bool {
	if user == nil {
		return false
	}
	if user.Bool("is_staff") || user.Bool("is_superuser") {
		return true
	}
	return strings.EqualFold(user.String("rol"), "admin")
}
