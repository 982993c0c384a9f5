package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write the
// claims value in a request context — no collisions with other packages.
type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the token from the "Authorization: Bearer <token>" header:
//   - header absent or not Bearer → 401 before any handler logic runs
//   - token present but fails verification → 403, with the failure kind
//     ("expired", "malformed", "signature") in the response body
//   - token valid → claims stored in the request context, chain continues
//
// This is a pure gate — it never touches the database. A token issued to a
// since-deleted user still passes here; the handler's own store calls are
// what surface the NotFound in that case.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "access token is required")
				return
			}

			claims, err := tokens.Verify(tokenStr)
			if err != nil {
				writeAuthError(w, http.StatusForbidden, "forbidden", failureKind(err))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retrieves the authenticated user's claims.
// Returns (nil, false) on routes not behind RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// bearerToken extracts the token from the Authorization header.
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// failureKind maps a verification error to the stable message sent to the
// client. The raw error detail stays server-side.
func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "token expired"
	case errors.Is(err, ErrTokenSignature):
		return "invalid token signature"
	default:
		return "invalid token"
	}
}

// writeAuthError writes the middleware's JSON rejections directly.
// Importing the handler package here would create an import cycle, so the
// body shape is mirrored with a local struct and encoded the same way.
func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	body := struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}{Success: false, Error: kind, Message: message}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode auth error response", slog.String("error", err.Error()))
	}
}
