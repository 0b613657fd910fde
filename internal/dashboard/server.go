// Package dashboard serves the read-only admin panel over the bot's store.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bmatch/matchbot/internal/store"
)

const (
	defaultAddr         = "127.0.0.1:5000"
	defaultMessageLimit = 50
	detailMessageLimit  = 100
	detailSearchLimit   = 50
	shutdownTimeout     = 10 * time.Second
)

// Reader is the read side of the store used by the panel.
type Reader interface {
	ListUsers(ctx context.Context) ([]store.User, error)
	GetUser(ctx context.Context, userID int64) (*store.User, error)
	UserMessages(ctx context.Context, userID int64, limit int) ([]store.Message, error)
	UserSearches(ctx context.Context, userID int64, limit int) ([]store.Search, error)
	Stats(ctx context.Context) (*store.Stats, error)
	Ping(ctx context.Context) error
}

// Config controls the HTTP listener.
type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Server is the admin panel.
type Server struct {
	cfg      Config
	store    Reader
	auth     *authenticator
	pages    *pages
	logger   *zap.Logger
	now      func() time.Time
	listener net.Listener
}

// New creates a Server. password must not be empty.
func New(cfg Config, reader Reader, password string, logger *zap.Logger) (*Server, error) {
	if password == "" {
		return nil, errors.New("dashboard password is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p, err := parsePages()
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:    cfg,
		store:  reader,
		auth:   newAuthenticator(password),
		pages:  p,
		logger: logger.Named("dashboard"),
		now:    time.Now,
	}, nil
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/login", s.loginPage)
	r.Post("/login", s.login)
	r.Get("/logout", s.logout)

	r.Group(func(r chi.Router) {
		r.Use(s.requirePage)
		r.Get("/", s.index)
		r.Get("/users", s.users)
		r.Get("/user/{id}", s.userDetail)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAPI)
		r.Get("/stats", s.apiStats)
		r.Get("/messages/{id}", s.apiMessages)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln := s.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.cfg.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
		}
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve dashboard: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown dashboard: %w", err)
	}
	s.logger.Info("dashboard stopped")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
