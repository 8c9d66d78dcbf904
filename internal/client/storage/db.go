// Package storage opens the client's local SQLite database, applies
// migrations and wires up the repositories.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/formrelay/internal/client/migrations"
	"github.com/dmitrijs2005/formrelay/internal/client/repositories/cache"
	"github.com/dmitrijs2005/formrelay/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/formrelay/internal/client/repositories/queue"
	"github.com/pressly/goose/v3"
)

type Repositories struct {
	Queue    queue.Repository
	Cache    cache.Repository
	Metadata metadata.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

func InitDatabase(ctx context.Context, dsn string) (*sql.DB, *Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, nil, err
	}

	repos := &Repositories{
		Queue:    queue.NewSQLiteRepository(db),
		Cache:    cache.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
	}
	return db, repos, nil
}
