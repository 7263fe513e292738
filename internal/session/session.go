// Package session resolves the acting recruiter from a bearer token so that
// lifecycle writes are attributed to a real user.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	sdk "hireline/sdk/go"
)

var ErrNoActor = errors.New("token carries no actor")

// Claims are the token claims hireline issues and reads.
type Claims struct {
	jwt.RegisteredClaims
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Session is the authenticated user behind a token.
type Session struct {
	Subject   string
	Actor     string
	Email     string
	Roles     []string
	ExpiresAt time.Time
	Token     string
}

// Parse reads a token. With a secret the HS256 signature and time claims are
// verified; without one the claims are decoded as-is, which is enough for the
// client to learn who is acting while the backend stays the authority.
func Parse(token, secret string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, errors.New("token required")
	}
	claims := &Claims{}
	if secret != "" {
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil {
			return Session{}, fmt.Errorf("parse token: %w", err)
		}
		if !parsed.Valid {
			return Session{}, errors.New("invalid token")
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return Session{}, fmt.Errorf("parse token: %w", err)
		}
	}
	s := Session{
		Subject: claims.Subject,
		Actor:   claims.Name,
		Email:   claims.Email,
		Roles:   claims.Roles,
		Token:   token,
	}
	if s.Actor == "" {
		s.Actor = claims.Subject
	}
	if s.Actor == "" {
		return Session{}, ErrNoActor
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// IssueOptions describe a token minted for local development.
type IssueOptions struct {
	Subject string
	Name    string
	Email   string
	Roles   []string
	TTL     time.Duration
	Now     func() time.Time
}

// Issue signs an HS256 token, used with the sandbox backend.
func Issue(secret string, opts IssueOptions) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("secret required")
	}
	if opts.Subject == "" {
		return "", errors.New("subject required")
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	issued := now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   opts.Subject,
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
		Name:  opts.Name,
		Email: opts.Email,
		Roles: opts.Roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Context attaches the session actor so lifecycle calls pick it up.
func (s Session) Context(ctx context.Context) context.Context {
	return sdk.WithActor(ctx, s.Actor)
}
