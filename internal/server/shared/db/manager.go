// Package db wires the server's PostgreSQL connection, migrations and
// repositories together behind the RepositoryManager interface.
package db

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/formrelay/internal/server/repositories/forms"
	"github.com/dmitrijs2005/formrelay/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/formrelay/internal/server/repositories/submissions"
	"github.com/dmitrijs2005/formrelay/internal/server/repositories/users"
)

type RepositoryManager interface {
	Conn() *sql.DB
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	Submissions() submissions.Repository
	Forms() forms.Repository
	RunMigrations(ctx context.Context) error
	Close() error
}
