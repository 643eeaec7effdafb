package middlewares

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
)

// Authorized validates the bearer token and populates the claims context.
func Authorized(secret string) func(http.Handler) http.Handler {
	return oauth.Authorize(secret, nil)
}

// Role guards a route with a bearer token carrying the given role in its
// comma-separated roles claim.
func Role(secret, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), requireRole(role)).Handler(next)
	}
}

func requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !HasRole(r, role) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Roles returns the raw comma-separated roles claim of the authenticated
// requester, empty when the route is not behind Authorized.
func Roles(r *http.Request) string {
	claims, ok := r.Context().Value(oauth.ClaimsContext).(map[string]string)
	if !ok {
		return ""
	}
	return claims["roles"]
}

func HasRole(r *http.Request, role string) bool {
	for _, held := range strings.Split(Roles(r), ",") {
		if strings.EqualFold(strings.TrimSpace(held), role) {
			return true
		}
	}
	return false
}
