package middlewares

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
)

type ctxKey int

const userIDKey ctxKey = iota

// Authenticated checks the bearer token and resolves the caller's user id
// from its claims into the request context.
func Authenticated(tokenSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(tokenSecret, nil), withUserID).Handler(next)
	}
}

func withUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

		userID, err := strconv.Atoi(claims["user_id"])
		if err != nil || userID < 1 {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated caller's id, or 0 outside an
// Authenticated route.
func UserID(ctx context.Context) int {
	userID, _ := ctx.Value(userIDKey).(int)
	return userID
}
