package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// AdminAuth returns middleware that gates administrative routes behind a
// bcrypt-hashed password supplied in the X-Admin-Password header. If
// passwordHash is empty, admin routes are disabled entirely rather than left
// open.
func AdminAuth(passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if passwordHash == "" {
				writeForbidden(w, "admin interface disabled")
				return
			}

			password := r.Header.Get("X-Admin-Password")
			if password == "" {
				writeUnauthorized(w, "missing admin password")
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
				writeUnauthorized(w, "invalid admin password")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeForbidden sends a 403 response with a JSON error body.
func writeForbidden(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
