package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	purposeAccess = "access"
	purposeReset  = "reset"
)

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	Purpose string `json:"purpose"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens for login sessions and
// password resets.
type TokenManager struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

func NewTokenManager(secret string, accessTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

// IssueAccess returns a bearer token whose subject is the user id.
func (m *TokenManager) IssueAccess(userID uint) (string, error) {
	return m.sign(claims{
		Purpose: purposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(m.now()),
			ExpiresAt: jwt.NewNumericDate(m.now().Add(m.accessTTL)),
		},
	})
}

// ParseAccess returns the user id carried by a valid access token.
func (m *TokenManager) ParseAccess(token string) (uint, error) {
	c, err := m.parse(token, purposeAccess)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

func (m *TokenManager) IssueReset(email string) (string, error) {
	return m.sign(claims{
		Purpose: purposeReset,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			NotBefore: jwt.NewNumericDate(m.now()),
			ExpiresAt: jwt.NewNumericDate(m.now().Add(m.resetTTL)),
		},
	})
}

// ParseReset returns the email a reset token was issued for.
func (m *TokenManager) ParseReset(token string) (string, error) {
	c, err := m.parse(token, purposeReset)
	if err != nil {
		return "", err
	}
	return c.Email, nil
}

func (m *TokenManager) sign(c claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

func (m *TokenManager) parse(token, purpose string) (*claims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid || c.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return &c, nil
}
