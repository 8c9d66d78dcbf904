// Package server initializes and runs the relay backend: it connects
// storage, applies migrations, and starts the HTTP API with graceful
// shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/formrelay/internal/logging"
	"github.com/dmitrijs2005/formrelay/internal/server/config"
	"github.com/dmitrijs2005/formrelay/internal/server/httpapi"
	"github.com/dmitrijs2005/formrelay/internal/server/services"
	"github.com/dmitrijs2005/formrelay/internal/server/shared/db"
)

type App struct {
	config            *config.Config
	logger            logging.Logger
	repoManager       db.RepositoryManager
	userService       *services.UserService
	submissionService *services.SubmissionService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	rm, err := db.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	us := services.NewUserService(rm.Users(), rm.RefreshTokens(), c)
	ss := services.NewSubmissionService(rm.Submissions(), rm.Forms(), c)

	return &App{
		config:            c,
		logger:            logger,
		repoManager:       rm,
		userService:       us,
		submissionService: ss,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddr, app.config.SecretKey, app.logger,
		app.userService, app.submissionService, app.repoManager.Forms())

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repoManager.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err.Error())
	}
}
