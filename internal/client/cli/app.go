package cli

import (
	"bufio"
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/formrelay/internal/client/api"
	"github.com/dmitrijs2005/formrelay/internal/client/config"
	"github.com/dmitrijs2005/formrelay/internal/client/netwatch"
	"github.com/dmitrijs2005/formrelay/internal/client/services"
	"github.com/dmitrijs2005/formrelay/internal/client/storage"
	"github.com/dmitrijs2005/formrelay/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	auth        services.AuthService
	submissions services.SubmissionService
	forms       services.FormService
	cache       services.CacheService
	attachments services.AttachmentService
	watcher     *netwatch.Watcher
	reader      *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, repos, err := storage.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err.Error())
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.ServerEndpointAddr, c.RequestTimeout, logger)

	auth := services.NewAuthService(apiClient, repos.Metadata, logger)
	cacheSvc := services.NewCacheService(repos.Cache, logger)
	submissions := services.NewSubmissionService(apiClient, repos.Queue, logger)
	forms := services.NewFormService(apiClient, cacheSvc, logger)
	attachments := services.NewAttachmentService(apiClient, logger)

	watcher := netwatch.New(apiClient, logger, c.OnlineCheckInterval, c.OnlineCheckTimeout)
	watcher.OnOnline(submissions.RequestDrain)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		auth:        auth,
		submissions: submissions,
		forms:       forms,
		cache:       cacheSvc,
		attachments: attachments,
		watcher:     watcher,
		reader:      bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.db.Close()

	// Restoration races with the first command and must never delay it.
	a.cache.StartRestore(ctx)

	a.submissions.Start(ctx)
	a.watcher.Start(ctx)

	if ok, err := a.auth.RestoreSession(ctx); err != nil {
		a.logger.Warn(ctx, "failed to restore session", "error", err.Error())
	} else if ok {
		a.logger.Info(ctx, "session restored", "user", a.auth.Username())
	}

	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) isLoggedIn() bool {
	return a.auth.IsLoggedIn()
}

func (a *App) status() string {
	s := ""
	if a.auth.Username() != "" {
		s = a.auth.Username() + " "
	}
	if a.watcher.Online() {
		s += "online"
	} else {
		s += "offline"
	}
	return "(" + s + ")"
}
