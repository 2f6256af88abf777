package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/cors"
)

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}
	corsHeaders = []string{"Authorization", "Content-Type", RequestIDHeader, "X-Session-Mode"}
)

const corsMaxAge = 600

// CORS allows the configured comma separated origins ("*" for any). Only
// explicitly listed origins receive credentials; a wildcard match never does.
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	allowAll := false
	var explicit []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
		case "*":
			allowAll = true
		default:
			explicit = append(explicit, origin)
		}
	}

	withCredentials := cors.Handler(cors.Options{
		AllowedOrigins:   explicit,
		AllowedMethods:   corsMethods,
		AllowedHeaders:   corsHeaders,
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	})
	anyOrigin := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: corsMethods,
		AllowedHeaders: corsHeaders,
		MaxAge:         corsMaxAge,
	})

	return func(next http.Handler) http.Handler {
		credentialed := withCredentials(next)
		public := anyOrigin(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case origin == "":
				next.ServeHTTP(w, r)
			case slices.Contains(explicit, origin):
				credentialed.ServeHTTP(w, r)
			case allowAll:
				public.ServeHTTP(w, r)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
