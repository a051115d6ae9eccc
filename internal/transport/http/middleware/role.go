package middleware

import (
	"net/http"
	"slices"
)

// RequireAuthority returns middleware that allows access only to tokens whose
// scope grants at least one of the given authorities (e.g. domain.AuthorityAdmin).
func RequireAuthority(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, a := range claims.Authorities() {
				if slices.Contains(allowed, a) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, "forbidden")
		})
	}
}
