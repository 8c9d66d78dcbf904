// Package httpapi exposes the relay's public JSON-over-HTTP API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/logging"
	"github.com/dmitrijs2005/formrelay/internal/server/models"
	"github.com/dmitrijs2005/formrelay/internal/server/repositories/forms"
	"github.com/dmitrijs2005/formrelay/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// UserService is the slice of the user service the handlers need.
type UserService interface {
	Register(ctx context.Context, username string, password string) error
	Login(ctx context.Context, username string, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// SubmissionService is the slice of the submission service the handlers need.
type SubmissionService interface {
	Accept(ctx context.Context, sub *models.Submission) (bool, error)
	PresignAttachmentURL(ctx context.Context, submissionID string) (string, string, error)
}

type Server struct {
	addr        string
	secretKey   string
	logger      logging.Logger
	users       UserService
	submissions SubmissionService
	forms       forms.Repository
}

func NewServer(addr string, secretKey string, logger logging.Logger,
	users UserService, submissions SubmissionService, forms forms.Repository) *Server {
	return &Server{
		addr:        addr,
		secretKey:   secretKey,
		logger:      logger,
		users:       users,
		submissions: submissions,
		forms:       forms,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", s.handlePing)
		r.Post("/users/register", s.handleRegister)
		r.Post("/users/login", s.handleLogin)
		r.Post("/users/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/forms", s.handleListForms)
			r.Post("/submissions", s.handleCreateSubmission)
			r.Post("/attachments/presign", s.handlePresignAttachment)
		})
	})

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info(ctx, "http server listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
