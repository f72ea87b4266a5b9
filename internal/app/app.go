package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/student-tracker/external/trackerapi"
	"github.com/riskibarqy/student-tracker/internal/config"
	"github.com/riskibarqy/student-tracker/internal/interfaces/httpapi"
	"github.com/riskibarqy/student-tracker/internal/observability"
	"github.com/riskibarqy/student-tracker/internal/platform/id"
	"github.com/riskibarqy/student-tracker/internal/platform/logging"
	"github.com/riskibarqy/student-tracker/internal/platform/metrics"
	"github.com/riskibarqy/student-tracker/internal/usecase"
)

// App is one dashboard process: the HTTP surface, the roster controller it serves and
// the telemetry started alongside it.
type App struct {
	cfg       config.Config
	logger    *logging.Logger
	server    *http.Server
	roster    *usecase.RosterController
	telemetry *observability.Runtime
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	telemetry, err := observability.Start(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("start telemetry: %w", err)
	}

	var metricsManager *metrics.Manager
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsManager = metrics.NewManager()
		metricsHandler = metricsManager.Handler()
	}

	tracker, err := trackerapi.NewClient(trackerapi.ClientConfig{
		BaseURL:        cfg.TrackerAPIBaseURL,
		Timeout:        cfg.TrackerAPITimeout,
		Logger:         logger,
		CircuitBreaker: cfg.TrackerCircuitBreaker(),
		Metrics:        metricsManager,
	})
	if err != nil {
		_ = telemetry.Shutdown(context.Background())
		return nil, fmt.Errorf("build tracker api client: %w", err)
	}

	roster, err := usecase.NewRosterController(tracker, usecase.RosterConfig{
		Logger:          logger,
		Metrics:         metricsManager,
		DispatchWorkers: cfg.RosterDispatchWorkers,
	})
	if err != nil {
		_ = telemetry.Shutdown(context.Background())
		return nil, fmt.Errorf("build roster controller: %w", err)
	}

	profiles := usecase.NewProfileSessions(tracker, tracker, usecase.ProfileConfig{
		Logger:        logger,
		Metrics:       metricsManager,
		DefaultWindow: cfg.ProfileDefaultWindow,
	}, cfg.ProfileSessionTTL)

	handler := httpapi.NewHandler(roster, profiles, logger)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		Logger:             logger,
		Metrics:            metricsManager,
		MetricsHandler:     metricsHandler,
		RequestIDs:         id.NewUUIDGenerator(),
		ServiceName:        cfg.ServiceName,
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	return &App{
		cfg:    cfg,
		logger: logger,
		server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		roster:    roster,
		telemetry: telemetry,
	}, nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if a.cfg.RosterLoadOnStart {
		go a.loadRoster(ctx)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// loadRoster performs the first list so the roster is warm before the first page view.
// Failures stay on the roster's LoadError banner.
func (a *App) loadRoster(ctx context.Context) {
	if err := a.roster.List(context.WithoutCancel(ctx)); err != nil {
		a.logger.WarnContext(ctx, "initial roster load failed", "error", err)
		return
	}
	a.logger.InfoContext(ctx, "initial roster loaded", "students", len(a.roster.View().Rows))
}

// Shutdown drains HTTP first, then the roster dispatch pool, then telemetry.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error
	if err := a.server.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}

	timeout := a.cfg.ShutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := a.roster.Close(timeout); err != nil {
		a.logger.Warn("roster dispatch pool did not drain", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	a.logger.Info("http server stopped")
	return firstErr
}
