package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"corecatalog/handlers"
	"corecatalog/internal/middleware"
	"corecatalog/routes"
)

// shutdownTimeout bounds Stop
const shutdownTimeout = 30 * time.Second

// Application runs the catalog HTTP API and its refresh schedule
type Application struct {
	container  *Container
	httpServer *http.Server
	listener   net.Listener
	scheduler  *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApplication creates a new application instance from the default configuration
func NewApplication() (*Application, error) {
	container, err := NewContainer()
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	return NewApplicationWithContainer(container), nil
}

// NewApplicationWithContainer creates an application around existing dependencies
func NewApplicationWithContainer(container *Container) *Application {
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		container: container,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start restores the cache, kicks off the first refresh, schedules the
// periodic one and starts the HTTP server.
func (a *Application) Start() error {
	cfg := a.container.Config
	logger := a.container.Logger
	host := a.container.Host

	if err := host.Restore(a.ctx); err != nil {
		// Not fatal: the first refresh repopulates the cache
		logger.Warn("Failed to restore manifests", zap.Error(err))
	}

	cronLogger := newCronLogger(logger.Named("cron"))
	a.scheduler = cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	if _, err := a.scheduler.AddFunc(cfg.Catalog.RefreshSchedule, func() {
		host.UpdateManifests(a.ctx, false)
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", cfg.Catalog.RefreshSchedule, err)
	}
	a.scheduler.Start()

	// Setup HTTP handlers with dependency injection
	handlerContainer := &handlers.Container{
		Host:     host,
		Failures: a.container.Failures,
		Config:   cfg,
		Logger:   logger.Named("http"),
	}
	router := routes.Setup(handlerContainer)
	chain := middleware.ChainMiddleware(middleware.DefaultMiddleware(handlerContainer.Logger, shutdownTimeout)...)

	listener, err := net.Listen("tcp", ":"+cfg.HTTP.Port)
	if err != nil {
		a.scheduler.Stop()
		return fmt.Errorf("failed to listen on port %s: %w", cfg.HTTP.Port, err)
	}
	a.listener = listener
	a.httpServer = &http.Server{
		Handler:           chain(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		host.UpdateManifests(a.ctx, true)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Info("HTTP API server started", zap.String("addr", listener.Addr().String()))
		if err := a.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the address the HTTP server listens on, once started
func (a *Application) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Stop shuts the server and scheduler down and waits for in-flight refreshes
func (a *Application) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger := a.container.Logger

	if a.scheduler != nil {
		<-a.scheduler.Stop().Done()
	}

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down HTTP server", zap.Error(err))
		}
	}

	a.cancel()
	a.wg.Wait()

	if err := a.container.Close(); err != nil {
		logger.Error("Error closing container", zap.Error(err))
	}

	return nil
}

// Run starts the application and blocks until SIGINT or SIGTERM
func (a *Application) Run() error {
	if err := a.Start(); err != nil {
		_ = a.Stop()
		return fmt.Errorf("failed to start application: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.container.Logger.Info("Application started. Press Ctrl+C to stop.")
	<-quit
	a.container.Logger.Info("Shutting down application...")

	if err := a.Stop(); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}

	a.container.Logger.Info("Application stopped")
	return nil
}

// GetContainer returns the handler view of the application's dependencies
func (a *Application) GetContainer() *handlers.Container {
	return &handlers.Container{
		Host:     a.container.Host,
		Failures: a.container.Failures,
		Config:   a.container.Config,
		Logger:   a.container.Logger,
	}
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.SugaredLogger
}

func newCronLogger(logger *zap.Logger) cron.Logger {
	return &cronLogger{logger: logger.Sugar()}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
