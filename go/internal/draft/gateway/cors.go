package gateway

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORS builds the cross-origin policy for the draft HTTP surfaces. No
// origins means any origin.
func NewCORS(allowedOrigins ...string) *cors.Cors {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedOrigins: allowedOrigins,
		AllowedHeaders: []string{"*"},
		MaxAge:         86400,
	})
}
