package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"PriceCast/pkg/config"
	xhttp "PriceCast/pkg/http"
	applogger "PriceCast/pkg/logger"
)

// Service is a background component with a start/stop lifecycle.
type Service interface {
	Start(ctx context.Context) error
	Stop() error
}

// App encapsulates the application lifecycle: background services first,
// then the HTTP server; shutdown runs in reverse.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	services   []Service
	l          *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, httpServer *xhttp.Server, l *applogger.Logger, services ...Service) *App {
	return &App{cfg: cfg, httpServer: httpServer, services: services, l: l}
}

// Run starts the application and blocks until SIGINT/SIGTERM or ctx ends.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := 0
	for _, s := range a.services {
		if err := s.Start(ctx); err != nil {
			a.l.Error("service start error", applogger.Error(err))
			_ = a.stopServices(started)
			return err
		}
		started++
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		_ = a.stopServices(started)
		return err
	}
	a.l.Info("pricecast started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("symbol", a.cfg.Symbol),
		applogger.Int("port", a.cfg.Server.Port),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	var errs []error
	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if err := a.stopServices(len(a.services)); err != nil {
		errs = append(errs, err)
	}
	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) stopServices(n int) error {
	var errs []error
	for i := n - 1; i >= 0; i-- {
		if err := a.services[i].Stop(); err != nil {
			a.l.Warn("service stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
