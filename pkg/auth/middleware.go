package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/GlebRadaev/settlement/pkg/utils"
)

type ContextKey string

const (
	AccountIDKey ContextKey = "accountID"
	RoleKey      ContextKey = "role"
)

const InternalTokenHeader = "X-Internal-Token"

// AccountID returns the authenticated account set by Middleware.
func AccountID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(AccountIDKey).(int64)
	return id, ok
}

func Middleware(jwtService JWTServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), AccountIDKey, claims.AccountID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly must run after Middleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role, _ := r.Context().Value(RoleKey).(string); role != RoleAdmin {
			utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// InternalToken admits service-to-service calls whose token matches the
// configured bcrypt hash. With no hash configured every call is refused.
func InternalToken(hasher HashServiceInterface, tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasher.CompareToken(tokenHash, r.Header.Get(InternalTokenHeader)) {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
