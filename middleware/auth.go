package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/fencing-tableau/models"
)

// SessionClaims grant a role inside one session.
type SessionClaims struct {
	SessionID string             `json:"session_id"`
	Role      models.SessionRole `json:"role"`
	jwt.RegisteredClaims
}

// NewToken signs an HS256 token for the role, valid for ttl from now.
func NewToken(secret []byte, sessionID string, role models.SessionRole, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := SessionClaims{
		SessionID: sessionID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(role),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies the signature and expiry of a session token.
func ParseToken(secret []byte, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("missing '%s' claim in token", jwtClaimSessionID)
	}
	switch claims.Role {
	case models.RoleOrganizer, models.RoleReferee:
	default:
		return nil, fmt.Errorf("invalid role value in '%s' claim: %q", jwtClaimRole, claims.Role)
	}
	return claims, nil
}

// Authenticate requires a valid bearer token and stores its claims in the
// request context.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(tokenString) == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := ParseToken(secret, strings.TrimSpace(tokenString))
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "token expired"
				}
				writeError(w, http.StatusUnauthorized, msg)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSessionRole lets the request through when the token was issued for
// the session in the URL and carries one of the roles.
func RequireSessionRole(roles ...models.SessionRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ClaimsFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if claims.SessionID != chi.URLParam(r, "sessionID") {
				writeError(w, http.StatusForbidden, "token was issued for another session")
				return
			}
			if !slices.Contains(roles, claims.Role) {
				writeError(w, http.StatusForbidden, "operation not allowed for the current role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
