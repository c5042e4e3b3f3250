package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gymwatch/gymwatch/internal/auth"
	"github.com/gymwatch/gymwatch/internal/cache"
	"github.com/gymwatch/gymwatch/internal/metrics"
	"github.com/gymwatch/gymwatch/internal/model"
	"github.com/gymwatch/gymwatch/internal/repository"
)

// Auth errors.
var (
	ErrMissingCredentials = errors.New("please enter both email and password")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("not signed in")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrAuthUnavailable    = errors.New("sign-in is temporarily unavailable")
)

// UserStore is the account persistence. *repository.Repository satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// LoginSessionStore keeps signed-in sessions. *cache.Cache satisfies it.
type LoginSessionStore interface {
	CreateLoginSession(ctx context.Context, tokenHash string, sess *model.LoginSession, ttl time.Duration) error
	GetLoginSession(ctx context.Context, tokenHash string) (*model.LoginSession, error)
	DeleteLoginSession(ctx context.Context, tokenHash string) error
}

// AuthService signs the owner in and out.
type AuthService struct {
	users    UserStore
	sessions LoginSessionStore
	ttl      time.Duration
	metrics  metrics.Recorder
	logger   *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, sessions LoginSessionStore, ttl time.Duration, recorder metrics.Recorder, logger *slog.Logger) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		metrics:  recorder,
		logger:   logger.With("component", "auth"),
	}
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	User      *model.User
	ExpiresAt time.Time
}

// Login checks credentials and opens a new login session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Error("user lookup failed", "error", err)
			return nil, ErrAuthUnavailable
		}
		// Spend the same hashing time as a real check.
		_, _ = auth.VerifyPassword(password, s.fallbackHash())
		s.metrics.IncLogin(metrics.LoginFailure)
		return nil, ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", "user_id", user.ID, "error", err)
	}
	if !ok {
		s.metrics.IncLogin(metrics.LoginFailure)
		return nil, ErrInvalidCredentials
	}

	token, hash, err := auth.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &model.LoginSession{UserID: user.ID, Email: user.Email, CreatedAt: now}
	if err := s.sessions.CreateLoginSession(ctx, hash, sess, s.ttl); err != nil {
		s.logger.Error("login session write failed", "error", err)
		return nil, ErrAuthUnavailable
	}

	s.metrics.IncLogin(metrics.LoginSuccess)
	s.logger.Info("owner signed in", "user_id", user.ID)
	return &LoginResult{Token: token, User: user, ExpiresAt: now.Add(s.ttl)}, nil
}

// Authenticate resolves a presented token to its auth context.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.AuthContext, error) {
	if err := auth.ParseToken(token); err != nil {
		return nil, ErrUnauthenticated
	}

	hash := auth.HashToken(token)
	sess, err := s.sessions.GetLoginSession(ctx, hash)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("login session lookup failed", "error", err)
		}
		return nil, ErrUnauthenticated
	}

	return &model.AuthContext{UserID: sess.UserID, Email: sess.Email, TokenHash: hash}, nil
}

// Logout ends the session behind token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := auth.ParseToken(token); err != nil {
		return nil
	}
	if err := s.sessions.DeleteLoginSession(ctx, auth.HashToken(token)); err != nil {
		s.logger.Error("login session delete failed", "error", err)
		return ErrAuthUnavailable
	}
	return nil
}

// CreateOwner registers the owner account with a freshly hashed password.
func (s *AuthService) CreateOwner(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) fallbackHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("gymwatch-unknown-account")
	})
	return s.dummyHash
}
