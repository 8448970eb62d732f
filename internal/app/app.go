// Package app wires the reduction service: config, logging, observability,
// the websocket hub, the reduction manager and the HTTP router, plus the
// server lifecycle with graceful shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/metric"

	"golook/internal/config"
	"golook/internal/infrastructure"
	"golook/internal/middleware"
	"golook/internal/reduction"
	transporthttp "golook/internal/transport/http"
	"golook/internal/version"
	"golook/internal/websocket"
)

// AppName is the service name used in startup logging.
const AppName = "golook"

// Application holds all wired components.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Hub           *websocket.Hub
	Manager       *reduction.Manager
	Router        chi.Router
	Server        *http.Server
}

// NewApplication builds the full application from configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create data directories: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(
		infrastructure.DefaultOTelConfig(version.Get().Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	hub := websocket.NewHub(logger)

	_, err = providers.Meter.Int64ObservableGauge(
		"websocket_clients",
		metric.WithDescription("Number of connected websocket clients"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(hub.ClientCount()))
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register websocket gauge: %w", err)
	}

	manager := reduction.NewManager(cfg, hub, metrics, logger)

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		Hub:           hub,
		Manager:       manager,
	}
	a.setupRouter()
	a.createServer()
	return a, nil
}

// setupRouter configures the HTTP router. The websocket route stays outside
// the full middleware group so nothing wraps its ResponseWriter before the
// upgrade.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	wsHandler := transporthttp.NewWSHandler(
		a.Hub,
		a.Config.Security.AllowedOrigins,
		a.Config.WebSocket.ReadBufferSize,
		a.Config.WebSocket.WriteBufferSize,
		a.Logger,
	)
	r.HandleFunc("/ws", wsHandler.ServeWS)

	if a.OTelProviders != nil && a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.StructuredLogger(a.Logger))
		r.Use(middleware.Recoverer(a.Logger))
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.Compress(5))

		if a.Config.Security.EnableCORS {
			r.Use(middleware.CORS(middleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
			}))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(middleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Mount("/", transporthttp.NewHealthHandler(a.Logger).Routes())
			r.Mount("/recordings", transporthttp.NewRecordingsHandler(a.Config.Paths.RecordingsDir, a.Logger).Routes())
			r.Mount("/reductions", transporthttp.NewReductionsHandler(a.Manager, a.Logger).Routes())
			r.Mount("/download", transporthttp.NewDownloadHandler(a.Config.Paths.ExportsDir, a.Logger).Routes())
		})
	})

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start launches the hub and the HTTP server. Server errors cancel the
// passed context via cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) {
	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", AppName),
		slog.String("version", version.Get().Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("recordings_dir", a.Config.Paths.RecordingsDir),
		slog.String("exports_dir", a.Config.Paths.ExportsDir))

	a.Hub.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
}

// Stop shuts the application down gracefully.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.Logger.InfoContext(ctx, "shutting down")

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "server shutdown error", slog.String("error", err.Error()))
	}

	a.Hub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "observability shutdown error", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		return err
	}

	a.Logger.InfoContext(ctx, "shutdown complete")
	return nil
}

// Run starts the application and blocks until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.Start(ctx, cancel)

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "received signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*a.Config.Server.ShutdownTimeout)
	defer stopCancel()
	return a.Stop(stopCtx)
}
