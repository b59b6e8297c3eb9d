// Package auth verifies bearer tokens issued by the hosted auth backend.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/internal/domain"
)

// ErrNoSecret is returned when the verifier has no signing secret.
var ErrNoSecret = errors.New("auth: signing secret is required")

// Claims are the token claims guildhall reads.
type Claims struct {
	Email        string       `json:"email,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// UserMetadata carries profile hints set at sign-up.
type UserMetadata struct {
	Username string `json:"username,omitempty"`
}

// Verifier checks HS256 access tokens.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithIssuer requires the "iss" claim to equal issuer.
func WithIssuer(issuer string) VerifierOption {
	return func(v *Verifier) { v.issuer = issuer }
}

// WithAudience requires the "aud" claim to contain audience.
func WithAudience(audience string) VerifierOption {
	return func(v *Verifier) { v.audience = audience }
}

// WithLeeway tolerates clock skew on time claims.
func WithLeeway(d time.Duration) VerifierOption {
	return func(v *Verifier) { v.leeway = d }
}

// NewVerifier creates a Verifier for tokens signed with secret.
func NewVerifier(secret string, opts ...VerifierOption) (*Verifier, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	v := &Verifier{secret: []byte(secret), leeway: 30 * time.Second}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify parses token and returns the identity it carries. Every failure
// wraps domain.ErrUnauthenticated.
func (v *Verifier) Verify(token string) (service.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return service.Identity{}, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOpts...)
	if err != nil {
		return service.Identity{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return service.Identity{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	return service.Identity{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Username: claims.UserMetadata.Username,
	}, nil
}

// Sign issues a token for subject. It is used by the CLI and tests to mint
// tokens the Verifier accepts.
func (v *Verifier) Sign(subject string, ttl time.Duration, meta UserMetadata) (string, error) {
	now := time.Now()
	claims := Claims{
		UserMetadata: meta,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
