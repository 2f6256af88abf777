package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/school-records/internal/audit"
	"github.com/frahmantamala/school-records/internal/auth"
	"github.com/frahmantamala/school-records/internal/record"
	"github.com/frahmantamala/school-records/internal/transport/rest"
	"github.com/frahmantamala/school-records/internal/transport/swagger"
	"github.com/frahmantamala/school-records/internal/user"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
	},
}

func startHTTPServer() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	lg := initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx, cfg, lg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	// users and logs must exist before the first login
	if err := provisionTables(ctx, deps, false); err != nil {
		return fmt.Errorf("failed to provision tables: %w", err)
	}

	var doc *swagger.Document
	if cfg.Server.OpenAPIPath != "" {
		doc, err = swagger.Load(ctx, cfg.Server.OpenAPIPath)
		if err != nil {
			lg.Warn("openapi document unavailable, docs disabled", "path", cfg.Server.OpenAPIPath, "error", err)
			doc = nil
		}
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Auth: auth.NewHandler(deps.AuthService, auth.CookieOptions{
			Name:   cfg.Security.CookieName,
			Secure: cfg.Security.CookieSecure,
		}),
		User:   user.NewHandler(deps.UserService),
		Record: record.NewHandler(deps.Records),
		Audit:  audit.NewHandler(deps.AuditService),
	}, rest.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		StaticDir:      cfg.Server.StaticDir,
		OpenAPI:        doc,
		HealthChecks:   deps.HealthChecks,
	}, lg)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("starting HTTP server", "address", addr, "storage_driver", cfg.Storage.Driver)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		lg.Info("received signal, shutting down")
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("server shutdown error", "error", err)
	}
	deps.Drain(shutdownCtx)

	lg.Info("server stopped")
	return nil
}
