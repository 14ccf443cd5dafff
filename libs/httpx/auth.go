package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/lukas99o/restaurant-api/libs/auth"
)

func PrincipalFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(ctxKeyPrincipal).(*auth.Claims)
	return c, ok
}

// RequireAuth verifies an HS256 bearer token and stores its claims on the context.
func RequireAuth(secret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
				WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid Authorization header")
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			claims, err := auth.ParseAndVerifyHS256(token, secret)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPrincipal, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) Middleware {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := PrincipalFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing credentials")
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				WriteError(w, http.StatusForbidden, "Forbidden", "role not permitted")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
