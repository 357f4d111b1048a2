package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"cart-sync-api/internal/models"
)

type contextKey string

// UserIDKey is the request-context key holding the authenticated user id
const UserIDKey contextKey = "userID"

// UserIDFromContext returns the authenticated user identity resolved by
// the auth middleware, if any
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// AuthMiddleware resolves the session token into a user identity and
// stores it in the request context. Requests without a resolvable
// identity pass through unauthenticated: read handlers degrade to an
// empty cart, write handlers reject.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			slog.Debug("No session token supplied", "remote_addr", r.RemoteAddr)
			next.ServeHTTP(w, r)
			return
		}

		userID, ok := resolveSessionToken(token)
		if !ok {
			slog.Warn("Authentication failed: unknown session token", "remote_addr", r.RemoteAddr)
			next.ServeHTTP(w, r)
			return
		}

		slog.Debug("Authentication successful", "remote_addr", r.RemoteAddr, "user_id", userID)
		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests that did not resolve to a user identity
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			slog.Warn("Rejected unauthenticated request", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authenticated session required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionToken extracts the session token from the Authorization bearer
// header or the X-Session-Token header
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
	}
	return r.Header.Get("X-Session-Token")
}

// resolveSessionToken looks up the user identity bound to a session
// token. Tokens are seeded from the SESSION_TOKENS environment variable
// as comma-separated token:userId pairs.
func resolveSessionToken(token string) (string, bool) {
	tokensStr := os.Getenv("SESSION_TOKENS")
	if tokensStr == "" {
		return "", false
	}

	for _, pair := range strings.Split(tokensStr, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 && parts[0] == token {
			return parts[1], true
		}
	}
	return "", false
}

// IsAdminToken checks whether the supplied token has admin privileges.
// Admin tokens are seeded from the ADMIN_TOKENS environment variable.
func IsAdminToken(r *http.Request) bool {
	token := sessionToken(r)
	if token == "" {
		return false
	}

	adminTokensStr := os.Getenv("ADMIN_TOKENS")
	if adminTokensStr == "" {
		return false
	}

	for _, adminToken := range strings.Split(adminTokensStr, ",") {
		if strings.TrimSpace(adminToken) == token {
			return true
		}
	}
	return false
}

// writeErrorResponse is a helper function to write error responses
func writeErrorResponse(w http.ResponseWriter, statusCode int, code, message string, details []models.ErrorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}
