// Package service contains application services for authentication and tasks.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/task-manager/internal/errs"
	"github.com/and161185/task-manager/internal/limiter"
	"github.com/and161185/task-manager/internal/model"
	"github.com/and161185/task-manager/internal/repository"
)

// LoginTokenTTL is the lifetime of tokens returned by Login unless configured otherwise.
const LoginTokenTTL = 30 * time.Minute

// PasswordHasher hashes and checks passwords. Implemented by *crypto.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(plain, hashed string) bool
}

// AuthService defines registration, login and bearer-token resolution.
type AuthService interface {
	// Register creates a new user with a hashed password.
	Register(ctx context.Context, username, password string) (*model.User, error)
	// Login applies rate limiting, checks credentials and issues an access token.
	Login(ctx context.Context, username, password, remoteAddr string) (model.Tokens, error)
	// Resolve maps a bearer token to the stored user.
	Resolve(ctx context.Context, token string) (*model.User, error)
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	tokens    *TokenService
	accessTTL time.Duration
	lim       limiter.Limiter
	log       *zap.Logger

	dummyOnce sync.Once
	dummy     string // digest checked for unknown usernames
}

// NewAuthService constructs AuthService with required dependencies.
// A nil limiter disables rate limiting; accessTTL <= 0 means LoginTokenTTL.
func NewAuthService(
	users repository.UserRepository,
	hasher PasswordHasher,
	tokens *TokenService,
	accessTTL time.Duration,
	lim limiter.Limiter,
	log *zap.Logger,
) *AuthServiceImpl {
	if accessTTL <= 0 {
		accessTTL = LoginTokenTTL
	}
	if lim == nil {
		lim = limiter.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{users: users, hasher: hasher, tokens: tokens, accessTTL: accessTTL, lim: lim, log: log}
}

// Register creates a new user record. The store's uniqueness check is authoritative;
// the lookup here only short-circuits the obvious duplicate.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: empty username/password", errs.ErrValidation)
	}

	switch _, err := s.users.GetByUsername(ctx, username); {
	case err == nil:
		return nil, fmt.Errorf("user %q: %w", username, errs.ErrAlreadyExists)
	case !errors.Is(err, errs.ErrNotFound):
		return nil, err
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{ID: uid, Username: username, PwdHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login authenticates with rate limiting by (username, remote address).
func (s *AuthServiceImpl) Login(ctx context.Context, username, password, remoteAddr string) (model.Tokens, error) {
	ipHash := limiter.HashIP(remoteAddr)

	allowed, retry, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("limiter allow: %w", err)
	}
	if !allowed {
		return model.Tokens{}, fmt.Errorf("%w: retry in %s", errs.ErrRateLimited, retry.Round(time.Second))
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, err
	}
	var ok bool
	if err != nil {
		s.hasher.Verify(password, s.dummyHash())
	} else {
		ok = s.hasher.Verify(password, u.PwdHash)
	}
	if !ok {
		blocked, _, ferr := s.lim.Failure(ctx, username, ipHash)
		if ferr != nil {
			s.log.Warn("limiter failure not recorded", zap.Error(ferr))
		}
		if blocked {
			return model.Tokens{}, errs.ErrRateLimited
		}
		// unknown user and wrong password look the same
		return model.Tokens{}, errs.ErrUnauthorized
	}

	if err := s.lim.Success(ctx, username, ipHash); err != nil {
		s.log.Warn("limiter reset failed", zap.Error(err))
	}

	access, exp, err := s.tokens.Issue(u.Username, s.accessTTL)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("issue token: %w", err)
	}
	return model.Tokens{AccessToken: access, TokenType: "bearer", ExpiresAt: exp}, nil
}

// Resolve verifies the token and loads its subject. Any failure is ErrUnauthorized
// except storage errors, which are returned as is.
func (s *AuthServiceImpl) Resolve(ctx context.Context, token string) (*model.User, error) {
	username, err := s.tokens.Verify(token)
	if err != nil {
		s.log.Debug("token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", errs.ErrUnauthorized, err)
	}
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("%w: subject %q no longer exists", errs.ErrUnauthorized, username)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// dummyHash returns a digest with the configured cost so that unknown usernames
// spend the same time in Verify as known ones.
func (s *AuthServiceImpl) dummyHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("task-manager/unknown-user")
		if err != nil {
			s.log.Warn("dummy hash", zap.Error(err))
			return
		}
		s.dummy = h
	})
	return s.dummy
}
