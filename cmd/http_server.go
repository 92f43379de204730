package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/auditlog"
	"github.com/frahmantamala/gatepass/internal/auth"
	"github.com/frahmantamala/gatepass/internal/calendar"
	"github.com/frahmantamala/gatepass/internal/gate"
	"github.com/frahmantamala/gatepass/internal/notification"
	"github.com/frahmantamala/gatepass/internal/proxy"
	"github.com/frahmantamala/gatepass/internal/request"
	"github.com/frahmantamala/gatepass/internal/setting"
	"github.com/frahmantamala/gatepass/internal/transport"
	"github.com/frahmantamala/gatepass/internal/transport/rest"
	"github.com/frahmantamala/gatepass/internal/user"
	"github.com/frahmantamala/gatepass/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var (
	withReaper  bool
	openAPIPath string
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer()
	},
}

func init() {
	httpServerCmd.Flags().BoolVar(&withReaper, "reaper", true, "run the proxy expiry job inside the server process")
	httpServerCmd.Flags().StringVar(&openAPIPath, "openapi", "./api/openapi.yml", "path of the OpenAPI document served at /openapi.yml")
}

func newRouter(app *App) *chi.Mux {
	base := transport.NewBaseHandler(app.Logger)

	h := rest.Handlers{
		Auth:         auth.NewHandler(base, app.Auth),
		User:         user.NewHandler(base, app.Users),
		Request:      request.NewHandler(app.Requests, app.MaxUploadBytes),
		Gate:         gate.NewHandler(base, app.Gate),
		Notification: notification.NewHandler(base, app.Notifications),
		Proxy:        proxy.NewHandler(base, app.Proxies),
		Setting:      setting.NewHandler(base, app.Settings),
		Calendar:     calendar.NewHandler(base, app.Calendar),
		AuditLog:     auditlog.NewHandler(base, app.AuditLog),
		Maintenance:  app.Settings,
		OpenAPIPath:  openAPIPath,
	}
	if app.Redis != nil {
		h.Limiter = app.Redis
		h.Redis = app.Redis
	}
	if app.Metrics != nil {
		h.Metrics = app.Metrics.Handler()
		h.MetricsPath = app.Config.Observability.Metrics.Path
		h.Observer = app.Metrics
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, app.SQL, h, app.Logger)
	return router
}

func startHTTPServer() error {
	cfg, lg, err := bootstrap()
	if err != nil {
		return err
	}

	app, err := buildApp(cfg, lg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newRouter(app),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	if withReaper {
		app.Reaper.Start()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("Starting HTTP server", "address", server.Addr)
		serverErrChan <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case sig := <-sigChan:
		lg.Info("Received signal, shutting down...", "signal", sig)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Server failed", "error", err)
			runErr = err
		}
	}

	ctx, cancel := internal.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		lg.Error("Server shutdown error", "error", err)
	}
	if err := app.Close(ctx); err != nil {
		lg.Error("Shutdown incomplete", "error", err)
	}

	lg.Info("Server stopped")
	return runErr
}

// bootstrap loads config and configures the process logger from it.
func bootstrap() (*internal.Config, *slog.Logger, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Configure(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	return cfg, logger.LoggerWrapper(), nil
}
