package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/auditlog"
	auditlogPostgres "github.com/frahmantamala/gatepass/internal/auditlog/postgres"
	"github.com/frahmantamala/gatepass/internal/auth"
	"github.com/frahmantamala/gatepass/internal/calendar"
	calendarPostgres "github.com/frahmantamala/gatepass/internal/calendar/postgres"
	"github.com/frahmantamala/gatepass/internal/core/events"
	"github.com/frahmantamala/gatepass/internal/gate"
	gatePostgres "github.com/frahmantamala/gatepass/internal/gate/postgres"
	"github.com/frahmantamala/gatepass/internal/messaging"
	"github.com/frahmantamala/gatepass/internal/metrics"
	"github.com/frahmantamala/gatepass/internal/notification"
	notificationPostgres "github.com/frahmantamala/gatepass/internal/notification/postgres"
	"github.com/frahmantamala/gatepass/internal/proxy"
	proxyPostgres "github.com/frahmantamala/gatepass/internal/proxy/postgres"
	"github.com/frahmantamala/gatepass/internal/request"
	requestPostgres "github.com/frahmantamala/gatepass/internal/request/postgres"
	"github.com/frahmantamala/gatepass/internal/setting"
	settingPostgres "github.com/frahmantamala/gatepass/internal/setting/postgres"
	"github.com/frahmantamala/gatepass/internal/upload"
	"github.com/frahmantamala/gatepass/internal/user"
	userPostgres "github.com/frahmantamala/gatepass/internal/user/postgres"
	"github.com/frahmantamala/gatepass/pkg/redis"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// App holds every long-lived component. It is built once per command and
// torn down with Close.
type App struct {
	Config *internal.Config
	Logger *slog.Logger

	SQL   *sql.DB
	Gorm  *gorm.DB
	SQLX  *sqlx.DB
	Redis *redis.Client

	Bus     *events.EventBus
	Pool    *messaging.Pool
	Metrics *metrics.Metrics
	Reaper  *proxy.Reaper

	Users         *user.Service
	UserRepo      *userPostgres.UserRepository
	Settings      *setting.Service
	Auth          *auth.Service
	Requests      *request.Service
	Gate          *gate.Service
	Proxies       *proxy.Service
	Notifications *notification.Service
	AuditLog      *auditlog.Service
	Calendar      *calendar.Service

	MaxUploadBytes int64
}

// driverNames maps a config driver to its database/sql driver name, which is
// also what sqlx uses to choose a bind style.
var driverNames = map[string]string{
	"postgres": "pgx",
	"mysql":    "mysql",
	"sqlite":   "sqlite3",
}

// openDatabase opens one *sql.DB and layers gorm and sqlx over it.
func openDatabase(cfg internal.DatabaseConfig, logger *slog.Logger) (*sql.DB, *gorm.DB, *sqlx.DB, error) {
	driver := cfg.DriverName()
	driverName, ok := driverNames[driver]
	if !ok {
		return nil, nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(driverName, cfg.Source)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
	case "mysql":
		dialector = mysql.New(mysql.Config{Conn: sqlDB})
	case "sqlite":
		dialector = sqlite.New(sqlite.Config{Conn: sqlDB})
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormLogger.New(slog.NewLogLogger(logger.Handler(), slog.LevelWarn), gormLogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialise gorm: %w", err)
	}

	logger.Info("database connected", "driver", driver)
	return sqlDB, gdb, sqlx.NewDb(sqlDB, driverName), nil
}

func senders(cfg internal.NotificationConfig) []messaging.Sender {
	var out []messaging.Sender
	if cfg.SMS.URL != "" {
		out = append(out, messaging.NewSMSClient(messaging.SMSConfig{
			URL: cfg.SMS.URL, APIKey: cfg.SMS.APIKey, SenderID: cfg.SMS.SenderID, Timeout: cfg.SMS.Timeout,
		}))
	}
	if cfg.WhatsApp.URL != "" {
		out = append(out, messaging.NewWhatsAppClient(messaging.WhatsAppConfig{
			URL: cfg.WhatsApp.URL, APIKey: cfg.WhatsApp.APIKey, Timeout: cfg.WhatsApp.Timeout,
		}))
	}
	if cfg.Push.URL != "" {
		out = append(out, messaging.NewPushClient(messaging.PushConfig{
			URL: cfg.Push.URL, APIKey: cfg.Push.APIKey, Timeout: cfg.Push.Timeout,
		}))
	}
	return out
}

func buildApp(cfg *internal.Config, logger *slog.Logger) (*App, error) {
	sqlDB, gdb, sqlxDB, err := openDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger, SQL: sqlDB, Gorm: gdb, SQLX: sqlxDB, MaxUploadBytes: cfg.Upload.MaxBytes}

	app.Redis, err = redis.NewClient(cfg.Redis, logger)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	store, err := upload.NewStore(cfg.Upload, logger)
	if err != nil {
		app.Close(context.Background())
		return nil, err
	}

	app.Bus = events.NewEventBus(logger)
	app.Pool = messaging.NewPool(messaging.PoolConfig{
		Workers:   cfg.Notification.Workers,
		QueueSize: cfg.Notification.QueueSize,
	}, logger, senders(cfg.Notification)...)

	app.UserRepo = userPostgres.NewUserRepository(gdb)
	requestRepo := requestPostgres.NewRequestRepository(gdb)
	notificationRepo := notificationPostgres.NewNotificationRepository(gdb)

	app.Settings = setting.NewService(settingPostgres.NewSettingRepository(gdb), cfg.Workflow.SettingsCacheTTL, logger)
	app.Users = user.NewService(app.UserRepo, app.Settings, cfg.Security.BCryptCost, logger)
	app.Proxies = proxy.NewService(proxyPostgres.NewProxyRepository(gdb), app.UserRepo, logger)
	app.Requests = request.NewService(requestRepo, app.UserRepo, app.Proxies, app.Bus, store, logger)
	app.Gate = gate.NewService(gatePostgres.NewMatcher(sqlxDB), app.UserRepo, requestRepo, app.Requests, logger)
	app.Notifications = notification.NewService(notificationRepo, logger)
	app.AuditLog = auditlog.NewService(auditlogPostgres.NewLogRepository(gdb), requestRepo, logger)
	app.Calendar = calendar.NewService(calendarPostgres.NewEventRepository(gdb), logger)

	// a typed nil inside the interface would defeat the nil check in auth
	var blacklist auth.Blacklist
	if app.Redis != nil {
		blacklist = app.Redis
	}
	app.Auth = auth.NewService(app.UserRepo, auth.NewJWTTokenGenerator(cfg.Security), app.Settings, blacklist, logger)

	dispatcher := notification.NewDispatcher(notificationRepo, app.UserRepo, app.UserRepo, app.Proxies, app.Pool, logger)
	dispatcher.RegisterEventHandlers(app.Bus)
	app.AuditLog.RegisterEventHandlers(app.Bus)

	if cfg.Observability.Metrics.Enabled {
		app.Metrics = metrics.New()
		app.Metrics.RegisterEventHandlers(app.Bus)
		app.Gate.SetRecorder(app.Metrics)
		app.Pool.SetRecorder(app.Metrics)
	}

	app.Reaper, err = proxy.NewReaper(app.Proxies, cfg.Workflow.ProxyReaperSchedule, logger)
	if err != nil {
		app.Close(context.Background())
		return nil, fmt.Errorf("invalid proxy reaper schedule: %w", err)
	}
	return app, nil
}

// Close drains background work in dependency order: in-flight event handlers
// may still enqueue messages, so the bus goes before the pool.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Reaper != nil {
		if err := a.Reaper.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("reaper: %w", err))
		}
	}
	if a.Bus != nil {
		if err := a.Bus.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}
	if a.Pool != nil {
		if err := a.Pool.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("messaging pool: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.SQL != nil {
		if err := a.SQL.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}
