package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"OAIHealthCheck/internal/config"
	"OAIHealthCheck/internal/infrastructure/oaipmh"
	"OAIHealthCheck/internal/infrastructure/storage"
	"OAIHealthCheck/internal/logging"
	"OAIHealthCheck/internal/metrics"
	"OAIHealthCheck/internal/report"
	"OAIHealthCheck/internal/transport/httpapi"
	"OAIHealthCheck/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	session *usecase.Session
}

// New builds the application against live OAI-PMH endpoints.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(nil, cfg.Logging.Level, cfg.Logging.Format)
	}

	client := oaipmh.NewClient(&http.Client{Timeout: cfg.HTTP.Timeout}, baseLogger.With("component", "oaipmh")).
		WithUserAgent(cfg.HTTP.UserAgent)

	session := usecase.NewSession(usecase.SessionDeps{
		Identities: client,
		Records:    client,
		Snapshots:  storage.NewSnapshotWriter(baseLogger.With("component", "snapshot")),
		Logger:     baseLogger.With("component", "session"),
	})
	return NewWithSession(cfg, baseLogger, session)
}

// NewWithSession wraps an already wired session.
func NewWithSession(cfg config.Config, logger *slog.Logger, session *usecase.Session) *Application {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Application{cfg: cfg, logger: logger, session: session}
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Logger returns the base logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Session returns the operator session.
func (a *Application) Session() *usecase.Session {
	return a.session
}

// ReportOptions maps the report section of the configuration.
func (a *Application) ReportOptions() report.Options {
	return report.Options{
		TopN:          a.cfg.Report.TopN,
		HistogramBins: a.cfg.Report.HistogramBins,
		TriageLimit:   a.cfg.Report.TriageLimit,
	}
}

// Handler builds the HTTP API over the session.
func (a *Application) Handler() http.Handler {
	srv := httpapi.NewServer(a.session, httpapi.Options{
		Report:       a.ReportOptions(),
		DefaultLimit: a.cfg.Harvest.DefaultLimit,
		Resolve:      a.cfg.ResolveEndpoint,
	}, a.logger.With("component", "httpapi"))
	return srv.Router()
}

// Serve runs the HTTP API on addr until ctx is cancelled, then shuts down gracefully.
func (a *Application) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	metrics.Register(prometheus.DefaultRegisterer)

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
