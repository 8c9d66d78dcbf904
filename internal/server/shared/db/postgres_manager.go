package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/server/migrations"
	"github.com/dmitrijs2005/formrelay/internal/server/repositories/forms"
	"github.com/dmitrijs2005/formrelay/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/formrelay/internal/server/repositories/submissions"
	"github.com/dmitrijs2005/formrelay/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

type PostgresRepositoryManager struct {
	db            *sql.DB
	users         users.Repository
	refreshTokens refreshtokens.Repository
	submissions   submissions.Repository
	forms         forms.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *PostgresRepositoryManager) RefreshTokens() refreshtokens.Repository {
	return m.refreshTokens
}

func (m *PostgresRepositoryManager) Submissions() submissions.Repository {
	return m.submissions
}

func (m *PostgresRepositoryManager) Forms() forms.Repository {
	return m.forms
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// NewPostgresRepositoryManager opens the database and waits for it to become
// reachable, retrying the ping with fibonacci backoff; the database is often
// still starting when the server comes up.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (RepositoryManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	backoff := retry.WithMaxDuration(30*time.Second, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if perr := db.PingContext(ctx); perr != nil {
			return retry.RetryableError(perr)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db not reachable: %w", err)
	}

	return &PostgresRepositoryManager{
		db:            db,
		users:         users.NewPostgresRepository(db),
		refreshTokens: refreshtokens.NewPostgresRepository(db),
		submissions:   submissions.NewPostgresRepository(db),
		forms:         forms.NewPostgresRepository(db),
	}, nil
}
