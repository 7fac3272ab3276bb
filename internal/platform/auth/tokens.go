package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 12 * time.Hour

var (
	// ErrTokenExpired signals that the session token has expired.
	ErrTokenExpired = errors.New("auth: session token expired")
	// ErrTokenInvalid signals that the session token failed verification.
	ErrTokenInvalid = errors.New("auth: session token invalid")
)

// SessionClaims is the JWT payload issued on employee sign-in.
type SessionClaims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies employee session tokens with a shared
// HMAC-SHA256 secret.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customises TokenIssuer behaviour.
type TokenOption func(*TokenIssuer)

// WithTokenTTL overrides the session lifetime.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithIssuer sets the iss claim stamped on issued tokens.
func WithIssuer(issuer string) TokenOption {
	return func(t *TokenIssuer) {
		if trimmed := strings.TrimSpace(issuer); trimmed != "" {
			t.issuer = trimmed
		}
	}
}

// WithClock injects the time source (tests).
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTokenIssuer builds a TokenIssuer from the shared secret.
func NewTokenIssuer(secret string, opts ...TokenOption) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: token secret is required")
	}
	issuer := &TokenIssuer{
		secret: []byte(secret),
		issuer: "pearlpos",
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(issuer)
		}
	}
	return issuer, nil
}

// Issue signs a session token for the given employee.
func (t *TokenIssuer) Issue(identity Identity) (string, error) {
	if strings.TrimSpace(identity.EmployeeID) == "" {
		return "", errors.New("auth: employee id is required")
	}
	role := normaliseRole(identity.Role)
	if role != RoleCashier && role != RoleManager {
		return "", fmt.Errorf("auth: unknown role %q", identity.Role)
	}

	now := t.now().UTC()
	claims := SessionClaims{
		Name: identity.Name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   identity.EmployeeID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning the employee identity.
func (t *TokenIssuer) Verify(tokenStr string) (*Identity, error) {
	claims := &SessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(func() time.Time { return t.now().UTC() }),
	)

	_, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	role := normaliseRole(claims.Role)
	if role != RoleCashier && role != RoleManager {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}

	return &Identity{
		EmployeeID: claims.Subject,
		Name:       claims.Name,
		Role:       role,
	}, nil
}
