package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers malformed, forged and expired tokens.
	ErrInvalidToken = errors.New("token expirado o inválido")
	// ErrMissingSubject is returned for a valid token without a subject.
	ErrMissingSubject = errors.New("token inválido")
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = 30 * time.Minute

// Claims is the payload of an access token.
type Claims struct {
	Role string `json:"rol"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller extracted from a token.
type Identity struct {
	Email string
	Role  string
}

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token service. A non-positive ttl falls back to DefaultTTL.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for email with the given role.
func (t *Tokens) Issue(email, role string) (string, error) {
	now := t.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the identity it carries.
func (t *Tokens) Verify(token string) (*Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return &Identity{Email: claims.Subject, Role: claims.Role}, nil
}
