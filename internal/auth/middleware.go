package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type contextKey int

const identityContextKey contextKey = 0

// Middleware validates the Bearer token on every request and stores the
// asserted identity in the request context. Requests matched by public
// pass through unauthenticated.
func Middleware(svc *Service, public func(*http.Request) bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if public != nil && public(r) {
			next.ServeHTTP(w, r)
			return
		}

		tokenStr := ExtractBearerToken(r)
		if tokenStr == "" {
			unauthorized(w, "missing or invalid Authorization header")
			return
		}

		id, err := svc.ValidateToken(tokenStr)
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"detail":%q}`, detail)
}

// ExtractBearerToken pulls the token from the Authorization header.
// Returns "" when the header is absent or not a Bearer credential.
func ExtractBearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return ""
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// WithIdentity returns a context carrying the verified identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the verified identity stored by
// Middleware, or nil for unauthenticated requests.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey).(*Identity)
	return id
}
