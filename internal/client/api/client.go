// Package api implements the JSON-over-HTTP client for the relay server.
// Every failure, transport-level or HTTP-level, is normalized into a
// *apierr.Error before it leaves this package.
package api

import (
	"context"

	"github.com/dmitrijs2005/formrelay/internal/client/models"
)

// TokenPair is the access/refresh token pair issued by the server.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Client interface {
	Register(ctx context.Context, username string, password string) error
	Login(ctx context.Context, username string, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Ping(ctx context.Context) error
	SubmitForm(ctx context.Context, s *models.Submission) error
	ListForms(ctx context.Context) ([]models.Form, error)
	PresignAttachment(ctx context.Context, submissionID string) (string, string, error)

	// SetTokens installs the token pair used for authenticated calls.
	SetTokens(pair *TokenPair)

	// OnTokensRefreshed registers a callback invoked whenever the client
	// transparently rotates the token pair.
	OnTokensRefreshed(fn func(pair *TokenPair))
}
