package middleware

import (
	"crypto/subtle"
	"io"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// Auth returns a handler that requires the Bearer token before delegating to
// next. Tokens are compared in constant time; an empty configured token
// rejects every request.
func Auth(token string, next http.Handler) http.Handler {
	want := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
		if !ok || len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// unauthorized writes the 401 itself: http.Error would replace the JSON
// Content-Type with text/plain.
func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="crowpanel"`)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusUnauthorized)
	io.WriteString(w, `{"error":"unauthorized"}`+"\n")
}
