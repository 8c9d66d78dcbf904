package forms

import (
	"context"

	"github.com/dmitrijs2005/formrelay/internal/server/models"
)

type Repository interface {
	// GetAll lists every form definition.
	GetAll(ctx context.Context) ([]models.Form, error)

	// Exists reports whether a form id is known.
	Exists(ctx context.Context, id string) (bool, error)
}
