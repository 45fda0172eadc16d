package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/droplabs/drop-service/internal/entities"
	"github.com/droplabs/drop-service/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
)

type principalKey struct{}

// PrincipalFromContext returns the resolved caller identity, if any.
func PrincipalFromContext(ctx context.Context) (entities.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(entities.Principal)
	return p, ok
}

// Auth resolves a bearer token into a Principal. Requests without a
// token pass through anonymously; a malformed or invalid token is
// rejected outright.
func Auth(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(raw, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				utils.WriteError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			principal, err := parseToken(parts[1], secret)
			if err != nil {
				utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			recordPrincipal(r.Context(), principal)
			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(raw, secret string) (entities.Principal, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return entities.Principal{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entities.Principal{}, jwt.ErrTokenInvalidClaims
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return entities.Principal{}, jwt.ErrTokenInvalidClaims
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = string(entities.RoleUser)
	}

	return entities.Principal{
		UserID: int64(userID),
		Role:   entities.Role(role),
	}, nil
}

// RequireAuth gates routes that need an authenticated caller.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			utils.WriteError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates the admin console routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			utils.WriteError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		if !principal.IsAdmin() {
			utils.WriteError(w, "admin role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
