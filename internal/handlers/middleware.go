package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"finlingo/internal/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const claimsContextKey ContextKey = "claims"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens *token.Issuer
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *token.Issuer) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireAuth is middleware that requires a valid bearer token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			respondWithError(w, http.StatusUnauthorized, "authentication required", "", nil)
			return
		}

		claims, err := m.tokens.Parse(tokenString)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "invalid or expired token", "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetClaimsFromContext retrieves the verified token claims from the request context
func GetClaimsFromContext(ctx context.Context) *token.Claims {
	claims, ok := ctx.Value(claimsContextKey).(*token.Claims)
	if !ok {
		return nil
	}
	return claims
}
