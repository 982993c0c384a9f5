// Package auth — JWT session tokens.
//
// TOKEN FLOW:
//  1. Signup/login issues a signed JWT carrying the user's ID and email
//  2. The client stores it and sends "Authorization: Bearer <token>"
//  3. RequireAuth validates the signature and expiry on protected routes
//
// The token is stateless: the server verifies it with the shared secret
// alone, no session lookup. A sessions row is still written at login for
// visibility, but it is never consulted during verification — which means
// a token stays valid until its natural expiry even after logout or
// account deletion. Revocation is an explicit non-goal; the "jti" claim is
// recorded so a denylist could be added later without reissuing tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 24 * time.Hour

const issuer = "medora"

// Verification failures, distinguished so the HTTP boundary can tell
// "expired" from "tampered" from "not a token at all" and pick the right
// response. All of them mean the request must be rejected.
var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
	ErrTokenSignature = errors.New("auth: token signature mismatch")
)

// Claims is the JWT payload: the standard registered claims plus the
// user's email. The user ID travels in the "sub" claim, the token's own
// ID in "jti".
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

// TokenID returns the token's "jti" claim.
func (c *Claims) TokenID() string { return c.ID }

// TokenService issues and verifies HS256-signed session tokens.
// The same secret signs and verifies — keep it out of logs and responses;
// rotating it invalidates every outstanding token.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: TokenTTL}, nil
}

// NewTokenServiceWithTTL creates a TokenService with a custom token
// lifetime. Used by tests to exercise expiry without waiting 24 hours.
func NewTokenServiceWithTTL(secret string, ttl time.Duration) (*TokenService, error) {
	ts, err := NewTokenService(secret)
	if err != nil {
		return nil, err
	}
	ts.ttl = ttl
	return ts, nil
}

// Issue creates and signs a token for the given user.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, and the right
// choice for a single-server deployment where one process both signs and
// verifies. Timestamps have second granularity (JWT NumericDate).
func (s *TokenService) Issue(userID int64, email string) (string, *Claims, error) {
	now := time.Now()

	c := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   fmt.Sprintf("%d", userID),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID,
		Email:  email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, c, nil
}

// Verify parses and checks a token string, returning its claims.
//
// Failures come back as one of the typed errors above:
//   - ErrTokenExpired   — signature fine, but past ExpiresAt
//   - ErrTokenSignature — payload was altered or signed with another secret
//   - ErrTokenMalformed — not a parseable JWT at all
//
// Pinning the accepted algorithms with jwt.WithValidMethods blocks
// algorithm-confusion attacks (a token claiming alg "none" or an
// asymmetric method is rejected before any signature check).
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	if !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
