/*
Package session manages account registration and the identity of an
interactive connection.

A Session holds at most one principal, a patient or a caregiver. Each command
loop owns its own Session value; nothing here is process-global.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jakechorley/vaccine-scheduler/internal/config"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/apperr"
	"github.com/jakechorley/vaccine-scheduler/pkg/core/model"
	"github.com/jakechorley/vaccine-scheduler/pkg/credentials"
	"github.com/jakechorley/vaccine-scheduler/pkg/db"
)

// Session is the identity state of one command loop
type Session struct {
	principal *model.Principal
}

func New() *Session {
	return &Session{}
}

// Current returns the logged-in principal, or nil
func (s *Session) Current() *model.Principal {
	if s.principal == nil {
		return nil
	}
	p := *s.principal
	return &p
}

func (s *Session) IsLoggedIn() bool {
	return s.principal != nil
}

type accountInput struct {
	Kind     model.AccountKind `validate:"required,oneof=patient caregiver"`
	Username string            `validate:"required,max=255,printascii"`
	Password string            `validate:"required,max=128"`
}

var validate = validator.New()

// PasswordHasher is implemented by credentials.Hasher
type PasswordHasher interface {
	NewSalt() ([]byte, error)
	Hash(password string, salt []byte) []byte
	Verify(password string, salt, hash []byte) bool
	VerifyMissing(password string) bool
}

var _ PasswordHasher = (*credentials.Hasher)(nil)

// Service registers and authenticates accounts against the credential store
type Service struct {
	database db.Database
	hasher   PasswordHasher
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *zap.Logger
}

// NewLimiter builds the login throttle from config
func NewLimiter(cfg config.AuthConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(cfg.LoginAttemptsPerMinute)/60), cfg.LoginBurst)
}

// NewService creates a Service. A nil limiter disables login throttling.
func NewService(database db.Database, hasher PasswordHasher, limiter *rate.Limiter, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		database: database,
		hasher:   hasher,
		limiter:  limiter,
		timeout:  timeout,
		logger:   logger,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Register creates an account with a fresh salt
func (s *Service) Register(ctx context.Context, kind model.AccountKind, username, password string) error {
	if err := validate.Struct(accountInput{Kind: kind, Username: username, Password: password}); err != nil {
		return apperr.ErrInvalidArgument.Wrap(err)
	}

	salt, err := s.hasher.NewSalt()
	if err != nil {
		return apperr.Storage(err)
	}
	account := &db.Account{
		Username: username,
		Salt:     salt,
		Hash:     s.hasher.Hash(password, salt),
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.database.RunInTx(ctx, func(tx db.Tx) error {
		exists, err := tx.AccountExists(ctx, kind, username)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if exists {
			return apperr.ErrUsernameTaken
		}

		if err := tx.InsertAccount(ctx, kind, account); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				return apperr.ErrUsernameTaken
			}
			return fmt.Errorf("failed to insert account: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Storage(err)
	}

	s.logger.Info("Account created", zap.String("kind", string(kind)), zap.String("username", username))
	return nil
}

// Login authenticates and installs the principal into sess.
// A missing account and a wrong password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, sess *Session, kind model.AccountKind, username, password string) (*model.Principal, error) {
	if sess.IsLoggedIn() {
		return nil, apperr.ErrAlreadyLoggedIn
	}
	if err := validate.Struct(accountInput{Kind: kind, Username: username, Password: password}); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	if s.limiter != nil && !s.limiter.Allow() {
		s.logger.Warn("Login throttled", zap.String("username", username))
		return nil, apperr.ErrTooManyAttempts
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var account *db.Account
	err := s.database.RunInTx(ctx, func(tx db.Tx) error {
		var err error
		account, err = tx.GetAccount(ctx, kind, username)
		return err
	})
	if errors.Is(err, db.ErrNotFound) {
		s.hasher.VerifyMissing(password)
		s.logger.Debug("Login failed: unknown account", zap.String("kind", string(kind)), zap.String("username", username))
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("failed to fetch account: %w", err))
	}

	if !s.hasher.Verify(password, account.Salt, account.Hash) {
		s.logger.Debug("Login failed: wrong password", zap.String("kind", string(kind)), zap.String("username", username))
		return nil, apperr.ErrInvalidCredentials
	}

	sess.principal = &model.Principal{Kind: kind, Username: account.Username}
	s.logger.Info("Logged in", zap.String("kind", string(kind)), zap.String("username", username))
	return sess.Current(), nil
}

// Logout clears sess
func (s *Service) Logout(sess *Session) error {
	if !sess.IsLoggedIn() {
		return apperr.ErrNotLoggedIn
	}
	s.logger.Info("Logged out", zap.String("username", sess.principal.Username))
	sess.principal = nil
	return nil
}
