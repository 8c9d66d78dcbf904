package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/formrelay/internal/common"
	"github.com/dmitrijs2005/formrelay/internal/server/auth"
	"github.com/dmitrijs2005/formrelay/internal/server/config"
	"github.com/dmitrijs2005/formrelay/internal/server/models"
	"github.com/dmitrijs2005/formrelay/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/formrelay/internal/server/repositories/users"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair is the access/refresh pair returned on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type UserService struct {
	users         users.Repository
	refreshTokens refreshtokens.Repository
	config        *config.Config
}

func NewUserService(users users.Repository, refreshTokens refreshtokens.Repository, config *config.Config) *UserService {
	return &UserService{users: users, refreshTokens: refreshTokens, config: config}
}

func (s *UserService) Register(ctx context.Context, username string, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.users.Create(ctx, &models.User{UserName: username, PasswordHash: hash})
	return err
}

func (s *UserService) Login(ctx context.Context, username string, password string) (*TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.issueTokens(ctx, user.ID)
}

// Refresh rotates the token pair: the presented refresh token is consumed
// and a new pair is issued.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.refreshTokens.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	if err := s.refreshTokens.Delete(ctx, refreshToken); err != nil {
		return nil, err
	}

	if stored.Expires.Before(timeNow()) {
		return nil, common.ErrRefreshTokenExpired
	}

	return s.issueTokens(ctx, stored.UserID)
}

func (s *UserService) issueTokens(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, []byte(s.config.SecretKey), s.config.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh := uuid.NewString()
	if err := s.refreshTokens.Create(ctx, userID, refresh, s.config.RefreshTokenValidityDuration); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
