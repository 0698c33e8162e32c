// Package tokens mints and verifies the session token pair: a short-lived
// signed access token carrying the user's identity claims, and an opaque
// refresh token whose state lives in the refresh_tokens collection.
package tokens

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var (
	// ErrExpired means the access token was well-formed and correctly
	// signed but past its expiry. Callers may attempt a refresh.
	ErrExpired = errors.New("access token expired")

	// ErrInvalid means the access token failed signature or claim
	// verification and must not be trusted.
	ErrInvalid = errors.New("access token invalid")
)

const issuerName = "salescope"

// Pair is the access/refresh token pair that represents a session.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims are the identity claims carried by a verified access token.
type Claims struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// Issuer mints and verifies access tokens with a shared HMAC key.
type Issuer struct {
	key       []byte
	accessTTL time.Duration
}

// NewIssuer creates an Issuer. The signing key must be non-empty; enforcing
// its strength is config validation's job.
func NewIssuer(signingKey string, accessTTL time.Duration) (*Issuer, error) {
	if signingKey == "" {
		return nil, errors.New("token signing key is empty")
	}
	if accessTTL <= 0 {
		return nil, errors.New("access token TTL must be positive")
	}
	return &Issuer{key: []byte(signingKey), accessTTL: accessTTL}, nil
}

// MintAccess creates a signed access token for the given user identity.
func (i *Issuer) MintAccess(userID, email string) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":   issuerName,
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(i.accessTTL).Unix(),
		"jti":   uuid.New().String(),
	}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates an access token. Expired-but-genuine tokens
// return ErrExpired alongside the parsed claims so the caller can decide to
// refresh; anything else returns ErrInvalid.
func (i *Issuer) Verify(access string) (Claims, error) {
	parsed, err := jwtlib.Parse(access,
		func(t *jwtlib.Token) (any, error) {
			if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return i.key, nil
		},
		jwtlib.WithIssuer(issuerName),
		jwtlib.WithExpirationRequired(),
	)

	expired := errors.Is(err, jwtlib.ErrTokenExpired)
	if err != nil && !expired {
		return Claims{}, ErrInvalid
	}
	if parsed == nil {
		return Claims{}, ErrInvalid
	}

	mc, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return Claims{}, ErrInvalid
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return Claims{}, ErrInvalid
	}
	email, _ := mc["email"].(string)
	jti, _ := mc["jti"].(string)

	c := Claims{UserID: sub, Email: email, TokenID: jti}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}

	if expired {
		return c, ErrExpired
	}
	return c, nil
}

// NewRefreshToken returns a fresh opaque refresh token value. The value is
// only meaningful once persisted by the refresh token store.
func NewRefreshToken() string {
	return uuid.NewString()
}
