// Package auth implements the token codec and the cookie session carrier.
// Tokens are HS256 JWTs signed with a per-process key; a restart therefore
// invalidates every outstanding session, which is intentional.
package auth

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed lifetime of an issued token. The expiry is set at
// issuance and is never refreshed.
const TokenTTL = 24 * time.Hour

// ErrInvalidToken is the only error Verify returns. Malformed, forged and
// expired tokens are deliberately indistinguishable to callers; the client
// must never learn which case it hit.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the authenticated principal reconstructed from a verified
// token. It is a value type and immutable once built.
type Identity struct {
	Email  string // token subject
	UserID uint64 // stable primary key from the users table
	Name   string // display name, carried in the "nombre" claim
}

// claims mirrors the token payload: subject holds the email, id and nombre
// are custom claims kept compatible with the frontend.
type claims struct {
	jwt.RegisteredClaims
	ID     uint64 `json:"id"`
	Nombre string `json:"nombre"`
}

// TokenCodec issues and verifies signed tokens. The only state is the
// signing key, read-only after construction, so a single codec is safe for
// concurrent use by all requests.
type TokenCodec struct {
	key []byte
	ttl time.Duration
}

// NewSigningKey returns 32 bytes of cryptographically secure random data.
// The key lives only in process memory and is never persisted.
func NewSigningKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// NewTokenCodec builds a codec around the given signing key.
func NewTokenCodec(key []byte) *TokenCodec {
	return &TokenCodec{key: key, ttl: TokenTTL}
}

// Issue signs a token for the identity. exp = iat + 24h, fixed at issuance.
func (tc *TokenCodec) Issue(id Identity) (string, error) {
	now := time.Now().UTC()
	cl := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tc.ttl)),
		},
		ID:     id.UserID,
		Nombre: id.Name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(tc.key)
}

// Verify checks the signature and expiry and rebuilds the Identity from the
// claims. Every failure collapses into ErrInvalidToken.
func (tc *TokenCodec) Verify(token string) (Identity, error) {
	cl := &claims{}
	tok, err := jwt.ParseWithClaims(token, cl, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tc.key, nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Email: cl.Subject, UserID: cl.ID, Name: cl.Nombre}, nil
}
