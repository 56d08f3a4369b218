package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gigglechat/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenPair is the access/refresh credential handed to clients.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Service issues and verifies signed session tokens. Nothing is stored
// server-side: a token is valid iff its signature and expiry check pass.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	headerName string
	now        func() time.Time
}

// NewService constructs an auth service signing with secret.
func NewService(secret string, accessTTL, refreshTTL time.Duration) *Service {
	if accessTTL <= 0 {
		accessTTL = 5 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		headerName: "Authorization",
		now:        time.Now,
	}
}

// IssuePair mints a fresh access and refresh token for the user.
func (s *Service) IssuePair(userID int64) (*TokenPair, error) {
	if userID <= 0 {
		return nil, errors.New("invalid user id")
	}
	access, err := s.sign(userID, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(userID, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// ValidateToken verifies an access token, returning the user id.
func (s *Service) ValidateToken(token string) (int64, error) {
	return s.verify(token, tokenTypeAccess)
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *Service) Refresh(refreshToken string) (string, error) {
	userID, err := s.verify(refreshToken, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return s.sign(userID, tokenTypeAccess, s.accessTTL)
}

// AccessTTL reports the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *Service) sign(userID int64, tokenType string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	c := claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *Service) verify(token, tokenType string) (int64, error) {
	if token == "" {
		return 0, apperr.Auth("token required")
	}
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, apperr.Auth("token expired")
		}
		return 0, apperr.Auth("invalid token")
	}
	if c.TokenType != tokenType {
		return 0, apperr.Auth("invalid token type")
	}
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, apperr.Auth("invalid token subject")
	}
	return userID, nil
}
