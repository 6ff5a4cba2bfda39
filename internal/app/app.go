// Package app wires configuration, the session, the API client and the
// incident workflows together, and runs the console gateway.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/config"
	"github.com/bissquit/incident-console/internal/console"
	"github.com/bissquit/incident-console/internal/dashboard"
	"github.com/bissquit/incident-console/internal/incidents"
	"github.com/bissquit/incident-console/internal/lifecycle"
	"github.com/bissquit/incident-console/internal/pkg/httputil"
	"github.com/bissquit/incident-console/internal/problems"
	"github.com/bissquit/incident-console/internal/session"
	"github.com/bissquit/incident-console/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ContractPath is where the incident API contract is read from when served.
const ContractPath = "api/openapi/openapi.yaml"

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	session       *session.Store
	client        *api.Client
	incidents     *incidents.Service
	problems      *problems.Service
	dashboard     *dashboard.Service
	server        *http.Server
	metricsServer *http.Server
}

// New creates a new application instance. Logs go to logOutput.
func New(cfg *config.Config, logOutput io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := initLogger(cfg.Log, logOutput)
	slog.SetDefault(logger)

	store, err := session.Open(session.NewFileStorage(cfg.Session.Path))
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	client, err := api.New(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
	}, store)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	journal := incidents.NewJournal()
	fallback := cfg.Fallback.Enabled

	a := &App{
		config:    cfg,
		logger:    logger,
		session:   store,
		client:    client,
		incidents: incidents.NewService(incidents.Config{Fallback: fallback}, client, store, lifecycle.NewEngine(), journal),
		problems:  problems.NewService(problems.Config{Fallback: fallback}, client, nil),
		dashboard: dashboard.NewService(dashboard.Config{Fallback: fallback, ActivityLimit: cfg.Activity.Limit}, client, journal, nil),
	}

	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           a.setupRouter(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	a.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.config }

// Session returns the session store.
func (a *App) Session() *session.Store { return a.session }

// Client returns the incident API client.
func (a *App) Client() *api.Client { return a.client }

// Incidents returns the incidents service.
func (a *App) Incidents() *incidents.Service { return a.incidents }

// Problems returns the problems service.
func (a *App) Problems() *problems.Service { return a.problems }

// Dashboard returns the dashboard service.
func (a *App) Dashboard() *dashboard.Service { return a.dashboard }

// Router returns the gateway handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Run starts the gateway and the metrics server and blocks until the gateway
// stops.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting console gateway",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"api", a.client.BaseURL(),
		"fallback", a.config.Fallback.Enabled,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down both servers.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	shutdown := func(name string, srv *http.Server) {
		defer wg.Done()
		if err := srv.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown %s: %w", name, err))
			mu.Unlock()
		}
	}

	wg.Add(2)
	go shutdown("server", a.server)
	go shutdown("metrics server", a.metricsServer)
	wg.Wait()

	return errors.Join(errs...)
}

func (a *App) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.Server.CORSOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/contract/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, ContractPath)
	})

	handler := console.NewHandler(a.session, a.client, a.incidents, a.problems, a.dashboard)
	r.Route("/api", handler.RegisterRoutes)

	return r
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}

func initLogger(cfg config.LogConfig, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stderr
	}

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}
