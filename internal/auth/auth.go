// Package auth implements password and OAuth sign-in on top of the user
// store, with opaque session tokens kept in an expiring cache.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

const (
	MinPasswordLength  = 6
	defaultMaxSessions = 10000
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password too short")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session ties an opaque token to a user. User is loaded on Resolve.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"-"`
	User      core.User `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Options struct {
	SessionTTL  time.Duration
	MaxSessions int
	BcryptCost  int
	OAuth       *OAuthConfig
	Logger      *slog.Logger
}

type Service struct {
	users    store.UserStore
	sessions *cache.LRUCache[Session]
	ttl      time.Duration
	cost     int
	now      func() time.Time
	logger   *slog.Logger
	oauth    *oauthProvider

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func NewService(users store.UserStore, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = defaultMaxSessions
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Service{
		users:    users,
		sessions: cache.NewLRUCache[Session](opts.MaxSessions, opts.SessionTTL),
		ttl:      opts.SessionTTL,
		cost:     opts.BcryptCost,
		now:      time.Now,
		logger:   opts.Logger.With("component", "auth"),
		subs:     make(map[int]chan Event),
	}
	if opts.OAuth != nil && opts.OAuth.ClientID != "" {
		s.oauth = newOAuthProvider(*opts.OAuth)
	}
	s.sessions.OnEvict(func(_ string, sess Session) {
		s.logger.Warn("Session evicted, session cache full",
			"user_id", sess.UserID,
			"max_sessions", opts.MaxSessions)
		s.emit(Event{Kind: EventSignedOut, UserID: sess.UserID, At: s.now()})
	})
	return s
}

// RegisterCaches hands the session and OAuth state caches to m for cleanup.
func (s *Service) RegisterCaches(m *cache.Manager) {
	m.Register(s.sessions)
	if s.oauth != nil {
		m.Register(s.oauth.states)
	}
}

func (s *Service) SignUp(ctx context.Context, email, password, name string) (Session, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return Session{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return Session{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, core.User{
		Email:        addr.Address,
		PasswordHash: string(hash),
		Provider:     "password",
		Profile:      core.Profile{Name: strings.TrimSpace(name)},
	})
	if errors.Is(err, store.ErrConflict) {
		return Session{}, ErrEmailTaken
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: create user: %w", core.ErrWrite, err)
	}

	s.logger.InfoContext(ctx, "User signed up", "user_id", u.ID)
	return s.issue(u), nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: load user: %w", core.ErrFetch, err)
	}
	if u.PasswordHash == "" {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Rejected sign-in", "user_id", u.ID)
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(u), nil
}

func (s *Service) issue(u core.User) Session {
	sess := Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		User:      u,
		ExpiresAt: s.now().Add(s.ttl),
	}
	s.sessions.Set(sess.Token, Session{Token: sess.Token, UserID: u.ID, ExpiresAt: sess.ExpiresAt})
	s.emit(Event{Kind: EventSignedIn, UserID: u.ID, At: s.now()})
	return sess
}

// SignOut drops the session. Unknown tokens are not an error.
func (s *Service) SignOut(ctx context.Context, token string) {
	sess, ok := s.sessions.Get(token)
	if !ok {
		return
	}
	s.sessions.Delete(token)
	s.logger.InfoContext(ctx, "User signed out", "user_id", sess.UserID)
	s.emit(Event{Kind: EventSignedOut, UserID: sess.UserID, At: s.now()})
}

// Resolve returns the live session for token with its user loaded. Any
// failure to identify the caller is core.ErrUserNotResolved.
func (s *Service) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, core.ErrUserNotResolved
	}
	sess, ok := s.sessions.Get(token)
	if !ok {
		return Session{}, core.ErrUserNotResolved
	}
	u, err := s.users.GetUser(ctx, sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		s.sessions.Delete(token)
		return Session{}, core.ErrUserNotResolved
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", core.ErrUserNotResolved, err)
	}
	sess.User = u
	return sess, nil
}

// UpdateProfile stores new profile metadata for userID.
func (s *Service) UpdateProfile(ctx context.Context, userID string, p core.Profile) (core.User, error) {
	if userID == "" {
		return core.User{}, core.ErrUserNotResolved
	}
	u, err := s.users.UpdateProfile(ctx, userID, p)
	if err != nil {
		return core.User{}, fmt.Errorf("%w: update profile: %w", core.ErrWrite, err)
	}
	s.emit(Event{Kind: EventUserUpdated, UserID: userID, At: s.now()})
	return u, nil
}

// ActiveSessions reports how many sessions are cached.
func (s *Service) ActiveSessions() int {
	return s.sessions.Size()
}
