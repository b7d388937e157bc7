package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/auth"
	authPostgres "github.com/qu-security/guardforce/internal/auth/postgres"
	"github.com/qu-security/guardforce/internal/client"
	clientPostgres "github.com/qu-security/guardforce/internal/client/postgres"
	"github.com/qu-security/guardforce/internal/core/events"
	"github.com/qu-security/guardforce/internal/expense"
	expensePostgres "github.com/qu-security/guardforce/internal/expense/postgres"
	"github.com/qu-security/guardforce/internal/guard"
	guardPostgres "github.com/qu-security/guardforce/internal/guard/postgres"
	"github.com/qu-security/guardforce/internal/location"
	"github.com/qu-security/guardforce/internal/metrics"
	"github.com/qu-security/guardforce/internal/note"
	notePostgres "github.com/qu-security/guardforce/internal/note/postgres"
	"github.com/qu-security/guardforce/internal/permissions"
	permissionsPostgres "github.com/qu-security/guardforce/internal/permissions/postgres"
	"github.com/qu-security/guardforce/internal/property"
	propertyPostgres "github.com/qu-security/guardforce/internal/property/postgres"
	"github.com/qu-security/guardforce/internal/report"
	"github.com/qu-security/guardforce/internal/service"
	servicePostgres "github.com/qu-security/guardforce/internal/service/postgres"
	"github.com/qu-security/guardforce/internal/shift"
	shiftPostgres "github.com/qu-security/guardforce/internal/shift/postgres"
	"github.com/qu-security/guardforce/internal/tariff"
	tariffPostgres "github.com/qu-security/guardforce/internal/tariff/postgres"
	"github.com/qu-security/guardforce/internal/transport/rest"
	"github.com/qu-security/guardforce/internal/transport/swagger"
	"github.com/qu-security/guardforce/internal/user"
	userPostgres "github.com/qu-security/guardforce/internal/user/postgres"
	"github.com/qu-security/guardforce/internal/weapon"
	weaponPostgres "github.com/qu-security/guardforce/internal/weapon/postgres"
	"github.com/qu-security/guardforce/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Server.Environment, cfg.Observability.Logging.Level)
	log := logger.L()

	if err := permissions.ValidateRoleTable(); err != nil {
		log.Error("role table validation failed", "error", err)
		os.Exit(1)
	}
	if _, err := swagger.LoadDocument(context.Background(), "./api/openapi.yml"); err != nil {
		log.Error("openapi document validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.Observability.Metrics.Enabled {
		metrics.Init()
	}

	gormDB, err := initGorm(cfg.Database)
	if err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Error("failed to unwrap database handle", "error", err)
		os.Exit(1)
	}

	// Reports read through sqlx on the same connection pool.
	reportDB := sqlx.NewDb(sqlDB, "pgx")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	eventBus := events.NewEventBus(log)
	subscribePermissionEvents(eventBus, log)

	router := buildRouter(cfg, gormDB, sqlDB, reportDB, redisClient, eventBus, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
		eventBus.Shutdown()
		if err := redisClient.Close(); err != nil {
			log.Error("redis close error", "error", err)
		}
		return sqlDB.Close()
	})

	if err := group.Wait(); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func buildRouter(
	cfg *internal.Config,
	gormDB *gorm.DB,
	sqlDB *sql.DB,
	reportDB *sqlx.DB,
	redisClient *redis.Client,
	eventBus *events.EventBus,
	log *slog.Logger,
) *chi.Mux {
	directory := permissionsPostgres.NewDirectory(gormDB)
	roleStore := permissionsPostgres.NewRoleRepository(gormDB)
	groupStore := permissionsPostgres.NewGroupRepository(gormDB)
	grantStore := permissionsPostgres.NewGrantRepository(gormDB)
	accessStore := permissionsPostgres.NewAccessRepository(gormDB)
	auditStore := permissionsPostgres.NewAuditRepository(gormDB)

	engine := permissions.NewEngine(directory, roleStore, groupStore, grantStore, accessStore, directory, log)
	permissionService := permissions.NewService(directory, roleStore, groupStore, grantStore, accessStore, directory, auditStore, eventBus, log)

	tokenGen := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.JWTSecret)
	authService := auth.NewService(authPostgres.NewRepository(gormDB), tokenGen, engine, log)
	userService := user.NewService(userPostgres.NewUserRepository(gormDB), authService, log)

	clientService := client.NewService(clientPostgres.NewClientRepository(gormDB), engine, log)
	guardService := guard.NewService(guardPostgres.NewGuardRepository(gormDB), engine, permissionService, log)
	propertyService := property.NewService(propertyPostgres.NewPropertyRepository(gormDB), engine, directory, log)
	shiftService := shift.NewService(shiftPostgres.NewShiftRepository(gormDB), engine, directory, log)
	expenseService := expense.NewService(expensePostgres.NewExpenseRepository(gormDB), engine, directory, log)
	guardServiceSvc := service.NewService(servicePostgres.NewServiceRepository(gormDB), engine, log)
	weaponService := weapon.NewService(weaponPostgres.NewWeaponRepository(gormDB), engine, log)
	tariffService := tariff.NewService(tariffPostgres.NewTariffRepository(gormDB), engine, directory, log)
	noteService := note.NewService(notePostgres.NewNoteRepository(gormDB), engine, directory, log)
	locationService := location.NewService(location.NewRedisCache(redisClient), engine, directory, log)
	reportService := report.NewService(reportDB, engine, log)

	handlers := rest.Handlers{
		Auth:        auth.NewHandler(authService),
		User:        user.NewHandler(userService),
		Client:      client.NewHandler(clientService),
		Guard:       guard.NewHandler(guardService),
		Property:    property.NewHandler(propertyService),
		Shift:       shift.NewHandler(shiftService),
		Expense:     expense.NewHandler(expenseService),
		Service:     service.NewHandler(guardServiceSvc),
		Weapon:      weapon.NewHandler(weaponService),
		Tariff:      tariff.NewHandler(tariffService),
		Note:        note.NewHandler(noteService),
		Location:    location.NewHandler(locationService),
		Report:      report.NewHandler(reportService),
		Permissions: permissions.NewHandler(permissionService),
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, sqlDB, redisClient, engine, handlers, cfg, log)
	return router
}

// subscribePermissionEvents wires the operational consumers: a structured
// log trail and the change counters. Audit persistence is synchronous in
// the permission service, not here.
func subscribePermissionEvents(bus *events.EventBus, log *slog.Logger) {
	eventTypes := []string{
		events.EventTypeRoleAssigned,
		events.EventTypePermissionGranted,
		events.EventTypePermissionRevoked,
		events.EventTypePropertyAccessChanged,
	}
	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			log.Info("permission change",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"payload", event.Payload())
			return nil
		})
		bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			metrics.ObservePermissionChange(event.EventType())
			return nil
		})
	}
}

func initGorm(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(cfg.Source), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
