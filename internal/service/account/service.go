package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gigglechat/internal/apperr"
	"gigglechat/internal/models"
	"gigglechat/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for every failed login so callers
// cannot tell an unknown username from a wrong password.
var ErrInvalidCredentials = apperr.Auth("No active account found with the given credentials")

// Service handles account registration and credential checks.
type Service struct {
	db       *storage.DB
	hashCost int
	rules    []PasswordRule
	// dummyHash keeps the unknown-user path as slow as a real comparison.
	dummyHash []byte
}

// Option customizes a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.hashCost = cost
		}
	}
}

// WithPasswordRules replaces the password policy.
func WithPasswordRules(rules ...PasswordRule) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// NewService builds a new account service.
func NewService(db *storage.DB, opts ...Option) (*Service, error) {
	s := &Service{
		db:       db,
		hashCost: bcrypt.DefaultCost,
		rules:    DefaultPasswordRules(),
	}
	for _, opt := range opts {
		opt(s)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("gigglechat-dummy-password"), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

// Register creates a user. Checks run in order: presence, username
// uniqueness, password policy. Uniqueness is finally enforced by the
// database constraint, so concurrent registrations cannot both succeed.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.Validation("Username and password are required.")
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`), username,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, errUsernameTaken()
	}

	if violations := checkPassword(s.rules, username, password); len(violations) > 0 {
		return nil, apperr.Validation("Password is too weak. " + strings.Join(violations, " "))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	id, err := s.db.InsertID(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, string(hash), now,
	)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, errUsernameTaken()
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &models.User{ID: id, Username: username, PasswordHash: string(hash), CreatedAt: now}, nil
}

// Login validates credentials and returns the user profile.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`), username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func errUsernameTaken() error {
	return apperr.Conflict("Username is already taken.")
}
