package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/school-records/internal"
	"github.com/frahmantamala/school-records/internal/audit"
	auditTabular "github.com/frahmantamala/school-records/internal/audit/tabular"
	"github.com/frahmantamala/school-records/internal/auth"
	"github.com/frahmantamala/school-records/internal/core/events"
	"github.com/frahmantamala/school-records/internal/record"
	recordTabular "github.com/frahmantamala/school-records/internal/record/tabular"
	"github.com/frahmantamala/school-records/internal/sheet"
	"github.com/frahmantamala/school-records/internal/sheet/googlesheets"
	"github.com/frahmantamala/school-records/internal/sheet/memory"
	sheetPostgres "github.com/frahmantamala/school-records/internal/sheet/postgres"
	"github.com/frahmantamala/school-records/internal/transport/rest"
	"github.com/frahmantamala/school-records/internal/user"
	userTabular "github.com/frahmantamala/school-records/internal/user/tabular"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type Dependencies struct {
	Config       *internal.Config
	Logger       *slog.Logger
	Clock        *internal.Clock
	Store        sheet.Store
	Reconciler   *sheet.Reconciler
	EventBus     *events.EventBus
	UserService  *user.Service
	Records      *record.Service
	AuditService *audit.Service
	AuthService  *auth.Service
	HealthChecks map[string]rest.Checker

	closers []func() error
}

func initializeDependencies(ctx context.Context, cfg *internal.Config, lg *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:       cfg,
		Logger:       lg,
		Clock:        internal.NewClock(cfg.App.Location()),
		HealthChecks: make(map[string]rest.Checker),
	}

	store, err := deps.openStore(ctx)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Store = sheet.WithTimeout(store, cfg.Storage.Timeout)
	if pinger, ok := deps.Store.(rest.Checker); ok {
		deps.HealthChecks["store"] = pinger
	}

	deps.Reconciler = sheet.NewReconciler(deps.Store, lg)
	deps.EventBus = events.NewEventBus(lg)

	deps.UserService = user.NewService(
		userTabular.NewUserRepository(deps.Reconciler),
		deps.EventBus,
		deps.Clock,
		lg,
		user.Options{
			HashPasswords: cfg.Security.HashPasswords,
			BCryptCost:    cfg.Security.BCryptCost,
		},
	)

	deps.Records = record.NewService(
		recordTabular.NewRecordRepository(deps.Reconciler),
		deps.UserService,
		deps.EventBus,
		deps.Clock,
		lg,
		record.Options{SearchConcurrency: cfg.Storage.SearchConcurrency},
	)

	deps.AuditService = audit.NewService(auditTabular.NewAuditRepository(deps.Reconciler), deps.Clock, lg)
	audit.NewEventHandler(deps.AuditService, lg).RegisterEventHandlers(deps.EventBus)

	revoker, err := deps.openRevoker(ctx)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.AuthService = auth.NewService(
		deps.UserService,
		auth.NewJWTTokenGenerator(cfg.Security.SessionSecret, cfg.Security.SessionDuration),
		revoker,
		deps.EventBus,
		deps.Clock,
		lg,
	)

	return deps, nil
}

// Close releases connections in reverse order of opening.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Error("failed to close dependency", "error", err)
		}
	}
	d.closers = nil
}

// Drain waits for queued audit writes.
func (d *Dependencies) Drain(ctx context.Context) {
	if d.EventBus == nil {
		return
	}
	if err := d.EventBus.Drain(ctx); err != nil {
		d.Logger.Warn("event bus did not drain", "error", err)
	}
}

func (d *Dependencies) openStore(ctx context.Context) (sheet.Store, error) {
	cfg := d.Config
	switch cfg.Storage.Driver {
	case internal.StorageDriverSheets:
		store, err := googlesheets.New(ctx, googlesheets.Config{
			SpreadsheetID:       cfg.Storage.Sheets.SpreadsheetID,
			ServiceAccountEmail: cfg.Storage.Sheets.ServiceAccountEmail,
			PrivateKey:          cfg.Storage.Sheets.PrivateKey,
			CredentialsFile:     cfg.Storage.Sheets.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize google sheets client: %w", err)
		}
		d.Logger.Info("using google sheets store", "spreadsheet_id", cfg.Storage.Sheets.SpreadsheetID)
		return store, nil

	case internal.StorageDriverPostgres:
		db, err := initDB(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		d.closers = append(d.closers, db.Close)

		gdb, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Warn),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open gorm session: %w", err)
		}
		d.Logger.Info("using postgres store")
		return sheetPostgres.NewStore(gdb), nil

	case internal.StorageDriverMemory:
		d.Logger.Warn("using in-memory store, data is lost on exit")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func (d *Dependencies) openRevoker(ctx context.Context) (auth.Revoker, error) {
	cfg := d.Config.Redis
	if !cfg.Enabled {
		return auth.NewMemoryRevoker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	d.closers = append(d.closers, client.Close)

	revoker := auth.NewRedisRevoker(client)
	pingCtx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()
	if err := revoker.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	d.HealthChecks["redis"] = revoker
	d.Logger.Info("using redis session revocation", "addr", cfg.Addr)
	return revoker, nil
}

// initDB opens the pgx stdlib pool shared by gorm and goose.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	if cfg.Source == "" {
		return nil, errors.New("database.source is empty")
	}

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return dbConn, nil
}
