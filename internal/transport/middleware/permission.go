package middleware

import (
	"net/http"

	"github.com/frahmantamala/school-records/internal"
	"github.com/frahmantamala/school-records/internal/transport"
	"github.com/frahmantamala/school-records/pkg/logger"
)

// RequireRole lets the request through when the identity in context holds one of roles.
// It must run after the auth middleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		base := transport.NewBaseHandler(nil)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := internal.IdentityFromContext(r.Context())
			if !ok {
				base.HandleServiceError(w, internal.ErrUnauthenticated)
				return
			}

			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.From(r.Context()).Warn("access denied: role not allowed",
				"usuario", identity.Username,
				"rol", identity.Role,
				"required_roles", roles)
			base.HandleServiceError(w, internal.ErrAdminRequired)
		})
	}
}
