package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors allows credentialed requests from the listed origins, or from any
// origin when none are given.
func Cors(origins ...string) Middleware {
	options := cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		options.AllowOriginFunc = func(origin string) bool {
			return true
		}
	} else {
		options.AllowedOrigins = origins
	}
	return cors.New(options).Handler
}
