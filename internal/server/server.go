// Package server assembles the session service from its parts: database,
// stores, external service clients, the session core, and the HTTP surface.
package server

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/focusmate/session-service/pkg/api"
	"github.com/focusmate/session-service/pkg/clock"
	"github.com/focusmate/session-service/pkg/config"
	"github.com/focusmate/session-service/pkg/database/migrate"
	"github.com/focusmate/session-service/pkg/health"
	"github.com/focusmate/session-service/pkg/invite"
	"github.com/focusmate/session-service/pkg/session"
	"github.com/focusmate/session-service/pkg/session/postgres"
	"github.com/focusmate/session-service/pkg/tasks"
	"github.com/focusmate/session-service/pkg/userdir"
)

// Version is set at build time.
var Version = "dev"

// Server is the assembled service, ready to listen.
type Server struct {
	cfg     *config.Config
	db      *sql.DB
	httpSrv *http.Server
	checker *health.Checker
	log     *slog.Logger
}

// New builds a Server from the given configuration. It opens and migrates
// the database and wires the session core behind the HTTP handler.
func New(cfg *config.Config, log *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if log == nil {
		log = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := migrate.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	authCfg, err := buildAuthConfig(cfg.Auth)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	core := session.NewCore(
		postgres.New(db),
		clock.NewSystem(),
		invite.NewMinter(),
		buildUserDirectory(cfg.Users),
		buildTaskService(cfg.Tasks, log),
		cfg.Limits(),
		log,
	)

	checker := health.NewChecker(db)

	router := chi.NewRouter()
	router.Get("/healthz", checker.LivenessHandler())
	router.Get("/readyz", checker.ReadinessHandler())
	router.Mount("/", api.NewHandler(core, authCfg))

	return &Server{
		cfg: cfg,
		db:  db,
		httpSrv: &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		checker: checker,
		log:     log,
	}, nil
}

// Run listens for HTTP traffic until ctx is cancelled, then drains and
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "address", s.cfg.Server.Address, "version", Version)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	s.checker.SetReady()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.checker.SetDraining()
	s.log.Info("shutting down", "timeout", s.cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *Server) Close() error {
	return s.db.Close()
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

func buildAuthConfig(cfg config.AuthConfig) (api.AuthConfig, error) {
	out := api.AuthConfig{AllowAnonymous: cfg.AllowAnonymous}
	if cfg.SigningKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.SigningKey)
		if err != nil {
			return api.AuthConfig{}, fmt.Errorf("decoding auth.signing_key: %w", err)
		}
		out.SigningKey = key
	}
	return out, nil
}

// buildUserDirectory returns the HTTP user service client, or an empty
// static directory when no user service is configured. The static fallback
// rejects every actor, which is the safe default.
func buildUserDirectory(cfg config.UsersConfig) userdir.Directory {
	if cfg.BaseURL == "" {
		return userdir.NewStatic(nil)
	}
	return userdir.NewClient(cfg.BaseURL)
}

func buildTaskService(cfg config.TasksConfig, log *slog.Logger) tasks.Service {
	if cfg.BaseURL == "" {
		log.Warn("no task service configured, task completion reporting disabled")
		return tasks.Noop{}
	}
	return tasks.NewClient(cfg.BaseURL)
}
