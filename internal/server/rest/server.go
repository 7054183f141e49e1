// Package rest exposes the note services over HTTP/JSON using gin.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
	"github.com/rs/cors"
)

// UserService is the subset of services.UserService the handlers use.
type UserService interface {
	Signup(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// NoteService is the subset of services.NoteService the handlers use.
type NoteService interface {
	List(ctx context.Context, id auth.Identity) ([]*models.Note, error)
	Get(ctx context.Context, id auth.Identity, noteID string) (*models.Note, error)
	Create(ctx context.Context, id auth.Identity, title, content string) (*models.Note, error)
	Update(ctx context.Context, id auth.Identity, noteID, title, content string) (*models.Note, error)
	Delete(ctx context.Context, id auth.Identity, noteID string) error
	Share(ctx context.Context, id auth.Identity, noteID, targetID string) (*models.Note, error)
	Search(ctx context.Context, id auth.Identity, query string) ([]*models.Note, error)
}

// Pinger reports store liveness; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HTTPServer struct {
	address         string
	users           UserService
	notes           NoteService
	db              Pinger
	logger          logging.Logger
	jwtSecret       []byte
	corsOrigins     []string
	shutdownTimeout time.Duration
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, us UserService, ns NoteService, db Pinger) *HTTPServer {
	return &HTTPServer{
		address:         cfg.EndpointAddrHTTP,
		users:           us,
		notes:           ns,
		db:              db,
		logger:          l.With("module", "http_server"),
		jwtSecret:       []byte(cfg.SecretKey),
		corsOrigins:     cfg.CORSAllowedOrigins,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Handler returns the full HTTP handler: the gin router wrapped in CORS.
func (s *HTTPServer) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"},
	})
	return c.Handler(s.router())
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}
