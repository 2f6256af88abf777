package rest

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/frahmantamala/school-records/internal"
	"github.com/frahmantamala/school-records/internal/audit"
	"github.com/frahmantamala/school-records/internal/auth"
	"github.com/frahmantamala/school-records/internal/record"
	"github.com/frahmantamala/school-records/internal/transport/middleware"
	"github.com/frahmantamala/school-records/internal/transport/swagger"
	"github.com/frahmantamala/school-records/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Auth   *auth.Handler
	User   *user.Handler
	Record *record.Handler
	Audit  *audit.Handler
}

type Options struct {
	AllowedOrigins string
	StaticDir      string
	OpenAPI        *swagger.Document
	HealthChecks   map[string]Checker
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(opts.HealthChecks)

	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if opts.AllowedOrigins != "" {
		router.Use(middleware.CORS(opts.AllowedOrigins))
	}

	router.Get("/health", healthHandler.healthCheckHandler)
	router.Get("/ping", healthHandler.pingHandler)

	if opts.OpenAPI != nil {
		router.Method(http.MethodGet, "/openapi.yml", opts.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler())
	}

	// legacy form endpoints
	router.Post("/login", h.Auth.Login)
	router.Post("/logout", h.Auth.Logout)

	router.Route("/api", func(r chi.Router) {
		r.Get("/v1/health", healthHandler.healthCheckHandler)

		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/me", h.Auth.Me)

			pr.Get("/escuelas", h.Record.ListOrganizations)

			pr.Route("/registros", func(rr chi.Router) {
				rr.Get("/", h.Record.ListRecords)
				rr.Post("/", h.Record.AppendRecord)
				rr.Put("/", h.Record.UpdateRecord)

				rr.Post("/add", h.Record.AppendRecord)
				rr.Post("/actualizar", h.Record.UpdateRecord)
				rr.Post("/update", h.Record.UpdateRecord)
				rr.Get("/buscar", h.Record.SearchRecords)
			})
			pr.Get("/buscar", h.Record.SearchRecords)

			pr.Route("/admin", func(ar chi.Router) {
				ar.Use(middleware.RequireRole(internal.RoleAdmin))

				ar.Get("/usuarios", h.User.ListUsers)
				ar.Post("/usuarios", h.User.CreateUser)
				ar.Post("/usuarios/update", h.User.UpdateUserFromBody)
				ar.Put("/usuarios/{usuario}", h.User.UpdateUser)

				ar.Get("/logs", h.Audit.ListLogs)
				ar.Get("/resumen", h.Record.Summary)
			})
		})
	})

	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			router.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
		} else {
			logger.Warn("static dir not found, skipping", "static_dir", opts.StaticDir)
		}
	}
}
