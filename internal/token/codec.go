package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/novadock/hangar/internal/domain/user"
)

// ErrMalformed covers every decode failure: bad structure, unknown
// signing method, signature mismatch.
var ErrMalformed = errors.New("malformed token")

type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Codec builds and parses signed HS256 tokens. It is stateless: the
// only inputs are the signing key and the clock, which is injectable
// for tests.
type Codec struct {
	key []byte
	now func() time.Time
}

func NewCodec(secretBase64 string, now func() time.Time) (*Codec, error) {
	key, err := base64.StdEncoding.DecodeString(secretBase64)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	if len(key) == 0 {
		return nil, errors.New("empty signing secret")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Codec{key: key, now: now}, nil
}

// Encode signs a token for the user: jti is the user id, sub the email,
// plus a name claim and iat/exp stamped from the codec clock. Access and
// refresh tokens differ only in ttl.
func (c *Codec) Encode(u *user.User, ttl time.Duration) (string, error) {
	now := c.now()
	claims := Claims{
		Name: u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        strconv.FormatInt(u.ID, 10),
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies structure and signature only. Expiry is a separate
// question (Expired, ValidFor): callers like the request gate need the
// subject of an expired token before deciding what to do with it.
func (c *Codec) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return c.key, nil
		},
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// Subject extracts the user email from the token.
func (c *Codec) Subject(raw string) (string, error) {
	claims, err := c.Decode(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Expired compares the embedded expiry against the codec clock.
func (c *Codec) Expired(raw string) (bool, error) {
	claims, err := c.Decode(raw)
	if err != nil {
		return false, err
	}
	if claims.ExpiresAt == nil {
		return true, nil
	}
	return !claims.ExpiresAt.After(c.now()), nil
}

// ValidFor reports whether the token belongs to the given user and its
// claims window has not passed.
func (c *Codec) ValidFor(raw string, u *user.User) bool {
	claims, err := c.Decode(raw)
	if err != nil {
		return false
	}
	if claims.Subject != u.Email {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.After(c.now())
}
