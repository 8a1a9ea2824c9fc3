package chi

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows browser clients from origins to call the read-only API.
// An empty origins list disables CORS headers entirely.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "X-Embedding-Tokens", "X-Embedding-Truncated", "X-Embedding-Cache-Hits"},
		MaxAge:         300,
	})
}
