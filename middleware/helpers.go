package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dosada05/fencing-tableau/models"
)

type contextKey string

const claimsContextKey contextKey = "session_claims"

// Имена JWT claims.
const (
	jwtClaimSessionID = "session_id"
	jwtClaimRole      = "role"
)

var ErrNoClaims = errors.New("session claims not found in context")

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*SessionClaims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*SessionClaims)
	if !ok || claims == nil {
		return nil, ErrNoClaims
	}
	return claims, nil
}

// RoleFromContext returns the role the caller logged in with.
func RoleFromContext(ctx context.Context) (models.SessionRole, error) {
	claims, err := ClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
