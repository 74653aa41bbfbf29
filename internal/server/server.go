// Package server assembles the dashboard HTTP API from its stores,
// middleware, and handlers.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/govmetrics/govdash/pkg/auth"
	"github.com/govmetrics/govdash/pkg/config"
	"github.com/govmetrics/govdash/pkg/database"
	"github.com/govmetrics/govdash/pkg/query"
	"github.com/govmetrics/govdash/pkg/records"
	"github.com/govmetrics/govdash/pkg/session"
)

// Version is set at build time.
var Version = "dev"

// Server is the assembled HTTP API.
type Server struct {
	cfg     *config.Config
	handler http.Handler
}

// New wires the user store, session store, auth middleware, and record
// handlers into a single mux.
func New(cfg *config.Config, db *database.DB, sessions session.Store) *Server {
	users := auth.NewUserStore(db.Write)

	var tokens *auth.TokenIssuer
	if cfg.Auth.TokenSecret != "" {
		tokens = auth.NewTokenIssuer([]byte(cfg.Auth.TokenSecret), cfg.Auth.TokenTTL)
	}

	mw := &auth.Middleware{
		Users:      users,
		Sessions:   sessions,
		Tokens:     tokens,
		CookieName: cfg.Session.CookieName,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthz(db.Read))

	auth.NewHandler(users, sessions, tokens, auth.HandlerConfig{
		CookieName: cfg.Session.CookieName,
		SessionTTL: cfg.Session.TTL,
	}).Register(mux, mw)

	records.NewHandler(
		records.NewStore(db.Read, db.Write),
		query.NewBuilder(db.Read),
		mw,
	).Register(mux)

	return &Server{cfg: cfg, handler: mux}
}

// Handler returns the root handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "address", s.cfg.Server.Address, "version", Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// healthz reports liveness by pinging the read handle.
func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
