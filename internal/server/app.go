// Package server initializes and runs the gophauth server: it opens the user
// store, builds the auth workflow and serves it over HTTP and gRPC until a
// termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/mailer"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/telemetry"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	hs "github.com/dmitrijs2005/gophauth/internal/server/http"
)

const serviceName = "gophauth"

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	authService *services.AuthService
	telemetry   telemetry.Shutdown
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	shutdown, err := telemetry.Setup(ctx, serviceName, c.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry init error: %w", err)
	}

	rm, err := repomanager.Open(ctx, c.StorageDriver, c.DatabaseDSN)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}

	ml, err := newMailer(c, logger)
	if err != nil {
		_ = rm.Close()
		_ = shutdown(ctx)
		return nil, err
	}

	return &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		authService: services.NewAuthService(rm, ml, c, logger),
		telemetry:   shutdown,
	}, nil
}

func newMailer(c *config.Config, logger logging.Logger) (mailer.Mailer, error) {
	if c.SMTPHost == "" {
		return mailer.NewLogMailer(logger), nil
	}
	m, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
	})
	if err != nil {
		return nil, fmt.Errorf("mailer init error: %w", err)
	}
	return m, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.config.SecretKey)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := hs.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.authService, app.config.SecretKey)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves both transports until a signal arrives or one of them fails,
// then releases the store and flushes traces.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageDriver)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	shutdownCtx := context.WithoutCancel(ctx)
	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(shutdownCtx, "closing store", "error", err)
	}
	if err := app.telemetry(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "flushing traces", "error", err)
	}
	app.logger.Info(shutdownCtx, "App stopped")
}
