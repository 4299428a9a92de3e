// Package auth provides bearer-token sources for the streaming client.
//
// Two implementations exist: a static token passed through unchanged, and
// an HS256 signer that mints short-lived JWTs from a shared secret for
// endpoints that authenticate subscriptions with signed tokens.
package auth

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer token for the Authorization header of a
// subscription request. Token is called once per request, so sources may
// mint a fresh token each time.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token returns the static token.
func (t StaticToken) Token() (string, error) {
	return string(t), nil
}

// SignerConfig holds the settings for the HS256 JWT signer.
type SignerConfig struct {
	// Secret is the shared HMAC secret. Required.
	Secret string

	// Subject is the sub claim. Required.
	Subject string

	// Issuer is the iss claim. Optional.
	Issuer string

	// TTL is the token lifetime. Default: 5 minutes.
	TTL time.Duration
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *SignerConfig) applyDefaults() {
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
}

// Signer mints short-lived HS256-signed JWTs. Each Token call produces a
// fresh token with iat/exp set from the configured TTL.
type Signer struct {
	config SignerConfig
}

// Ensure Signer implements TokenSource at compile time.
var _ TokenSource = (*Signer)(nil)

// NewSigner creates a Signer with the given configuration.
func NewSigner(cfg SignerConfig) (*Signer, error) {
	cfg.applyDefaults()
	if cfg.Secret == "" {
		return nil, errors.New("auth: signer secret is required")
	}
	if cfg.Subject == "" {
		return nil, errors.New("auth: signer subject is required")
	}
	return &Signer{config: cfg}, nil
}

// Token signs and returns a fresh JWT.
func (s *Signer) Token() (string, error) {
	now := time.Now()
	claims := jwtlib.RegisteredClaims{
		Subject:   s.config.Subject,
		Issuer:    s.config.Issuer,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(s.config.TTL)),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}
