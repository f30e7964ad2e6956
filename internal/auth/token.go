package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fieldlog/internal/core"
)

// ErrInvalidToken wraps parsing and validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// TokenConfig holds the signing parameters for session tokens.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Enabled reports whether bearer tokens can be issued and verified.
func (c TokenConfig) Enabled() bool {
	return c.Secret != ""
}

// IssueToken signs an HS256 token for the principal.
func IssueToken(p Principal, cfg TokenConfig, now time.Time) (string, time.Time, error) {
	if !cfg.Enabled() {
		return "", time.Time{}, errors.New("token secret not configured")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  p.User,
		"role": string(p.Role),
		"iss":  cfg.Issuer,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// ParseToken validates a token and returns its principal.
func ParseToken(token string, cfg TokenConfig) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingCredentials
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	subject, _ := claims["sub"].(string)
	rawRole, _ := claims["role"].(string)
	role, err := core.ParseRole(rawRole)
	if subject == "" || err != nil {
		return nil, ErrInvalidToken
	}
	return &Principal{User: subject, Role: role}, nil
}
