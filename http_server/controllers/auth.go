package controllers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// RequireAPIToken only lets requests carrying "Authorization: Bearer <token>" through.
// With no token configured the wrapped routes are disabled.
func RequireAPIToken(token string) mux.MiddlewareFunc {
	expectedHeader := "Bearer " + strings.TrimSpace(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(token) == "" {
				ReturnHttpError(rw, http.StatusServiceUnavailable, "HTTP_API_TOKEN is not configured")
				return
			}
			actual := strings.TrimSpace(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare([]byte(actual), []byte(expectedHeader)) != 1 {
				rw.Header().Set("WWW-Authenticate", `Bearer realm="recovery"`)
				ReturnHttpError(rw, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(rw, r)
		})
	}
}
