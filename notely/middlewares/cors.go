package middlewares

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS adds permissive cross-origin headers to every response.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:             300,
		OptionsPassthrough: true,
	})
}

// Preflight answers every OPTIONS request with 200 and an empty body before
// routing or authentication.
func Preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
