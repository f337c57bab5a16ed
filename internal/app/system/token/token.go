// Package token signs and verifies the bearer identity tokens used by
// the API. The codec is a stateless pure function pair around HS256.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTTL = 24 * time.Hour

var (
	// ErrInvalidToken covers malformed, tampered, expired, and
	// wrong-algorithm tokens.
	ErrInvalidToken = errors.New("invalid token")

	errMissingSecret  = errors.New("token secret must be provided")
	errMissingSubject = errors.New("token subject must be provided")
)

// Claims are the verified contents of a bearer token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Codec issues and verifies bearer tokens with a shared secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
}

// New constructs a Codec. ttl <= 0 falls back to 24h, matching the
// session length the platform has always issued. clock may be nil.
func New(secret []byte, ttl time.Duration, clock func() time.Time) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errMissingSecret
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &Codec{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		clock:  clock,
	}, nil
}

// Issue produces a signed token for the subject user id and email and
// returns the claims it embedded (callers echo iat/exp to clients).
func (c *Codec) Issue(subjectUserID, email string) (string, Claims, error) {
	if subjectUserID == "" {
		return "", Claims{}, errMissingSubject
	}

	now := c.clock().UTC()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectUserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}

// Verify parses and validates a token string. The signing algorithm is
// pinned to HS256 so a token signed with a confused algorithm (e.g.
// "none" or an RSA variant) is rejected before signature checking.
func (c *Codec) Verify(tokenString string) (Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("%w: unexpected signing algorithm %s", ErrInvalidToken, t.Method.Alg())
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.clock),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed == nil || !parsed.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
