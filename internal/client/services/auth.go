package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/client/api"
	"github.com/dmitrijs2005/formrelay/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/formrelay/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// Metadata keys for the persisted session.
const (
	metaAccessToken  = "access_token"
	metaRefreshToken = "refresh_token"
	metaUsername     = "username"
)

// refreshLeeway is how close to expiry the access token may get before it is
// refreshed proactively.
const refreshLeeway = 30 * time.Second

// AuthService manages the session with the relay server: registration,
// login, persisted tokens and proactive refresh.
type AuthService interface {
	Register(ctx context.Context, username string, password string) error
	Login(ctx context.Context, username string, password string) error
	Logout(ctx context.Context) error

	// RestoreSession loads a previously persisted token pair into the API
	// client. Returns false when no session is stored.
	RestoreSession(ctx context.Context) (bool, error)

	// EnsureFresh refreshes the access token if it is expired or about to
	// expire. A no-op when the session is still fresh.
	EnsureFresh(ctx context.Context) error

	Ping(ctx context.Context) error
	Username() string
	IsLoggedIn() bool
}

type authService struct {
	client   api.Client
	repo     metadata.Repository
	logger   logging.Logger
	username string
	loggedIn bool
}

func NewAuthService(client api.Client, repo metadata.Repository, logger logging.Logger) AuthService {
	s := &authService{client: client, repo: repo, logger: logger}

	// Token pairs rotated inside the API client (401 refresh-and-replay)
	// must survive a restart.
	client.OnTokensRefreshed(func(pair *api.TokenPair) {
		if err := s.saveTokens(context.Background(), pair); err != nil {
			logger.Error(context.Background(), "failed to persist rotated tokens", "error", err.Error())
		}
	})

	return s
}

func (s *authService) Register(ctx context.Context, username string, password string) error {
	return s.client.Register(ctx, username, password)
}

func (s *authService) Login(ctx context.Context, username string, password string) error {
	pair, err := s.client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	if err := s.saveTokens(ctx, pair); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, metaUsername, []byte(username)); err != nil {
		return fmt.Errorf("failed to persist username: %w", err)
	}

	s.username = username
	s.loggedIn = true
	return nil
}

func (s *authService) Logout(ctx context.Context) error {
	s.client.SetTokens(nil)
	s.username = ""
	s.loggedIn = false
	return s.repo.Clear(ctx)
}

func (s *authService) RestoreSession(ctx context.Context) (bool, error) {
	access, err := s.repo.Get(ctx, metaAccessToken)
	if err != nil {
		return false, err
	}
	refresh, err := s.repo.Get(ctx, metaRefreshToken)
	if err != nil {
		return false, err
	}
	if len(access) == 0 || len(refresh) == 0 {
		return false, nil
	}

	username, err := s.repo.Get(ctx, metaUsername)
	if err != nil {
		return false, err
	}

	s.client.SetTokens(&api.TokenPair{AccessToken: string(access), RefreshToken: string(refresh)})
	s.username = string(username)
	s.loggedIn = true
	return true, nil
}

func (s *authService) EnsureFresh(ctx context.Context) error {
	if !s.loggedIn {
		return nil
	}

	access, err := s.repo.Get(ctx, metaAccessToken)
	if err != nil {
		return err
	}
	if len(access) == 0 {
		return nil
	}

	exp, err := tokenExpiry(string(access))
	if err != nil {
		// Unparsable token: let the server reject it and the interceptor
		// refresh reactively.
		s.logger.Warn(ctx, "cannot read access token expiry", "error", err.Error())
		return nil
	}
	if time.Until(exp) > refreshLeeway {
		return nil
	}

	refresh, err := s.repo.Get(ctx, metaRefreshToken)
	if err != nil {
		return err
	}

	pair, err := s.client.Refresh(ctx, string(refresh))
	if err != nil {
		return err
	}
	return s.saveTokens(ctx, pair)
}

func (s *authService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *authService) Username() string {
	return s.username
}

func (s *authService) IsLoggedIn() bool {
	return s.loggedIn
}

func (s *authService) saveTokens(ctx context.Context, pair *api.TokenPair) error {
	if err := s.repo.Set(ctx, metaAccessToken, []byte(pair.AccessToken)); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	if err := s.repo.Set(ctx, metaRefreshToken, []byte(pair.RefreshToken)); err != nil {
		return fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client only uses it to decide when to refresh, validation is the server's
// job.
func tokenExpiry(tokenString string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}
