// Package main provides the entry point for the govdash server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/govmetrics/govdash/internal/server"
	"github.com/govmetrics/govdash/pkg/auth"
	"github.com/govmetrics/govdash/pkg/config"
	"github.com/govmetrics/govdash/pkg/database"
	"github.com/govmetrics/govdash/pkg/database/migrate"
	"github.com/govmetrics/govdash/pkg/session"
	sqlitesession "github.com/govmetrics/govdash/pkg/session/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serverOptions struct {
	configPath    string
	address       string
	logLevel      string
	logFormat     string
	showVersion   bool
	migrateDown   bool
	schemaVersion bool
}

func parseFlags() serverOptions {
	opts := serverOptions{}
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.address, "address", "", "Listen address, overrides config")
	flag.StringVar(&opts.logLevel, "log-level", "INFO", "Log level: DEBUG, INFO, WARN, ERROR")
	flag.StringVar(&opts.logFormat, "log-format", "text", "Log format: text, json")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.BoolVar(&opts.migrateDown, "migrate-down", false, "Roll back all database migrations and exit (destroys data)")
	flag.BoolVar(&opts.schemaVersion, "schema-version", false, "Show the database schema version and exit")
	flag.Parse()
	return opts
}

func setupLogging(opts serverOptions) {
	var level slog.Level
	switch opts.logLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if opts.logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func setupSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// newSessionStore selects the session backend. Both backends share the
// cleanup-routine lifecycle.
func newSessionStore(cfg *config.Config, db *database.DB) session.Store {
	if cfg.Session.Backend == config.SessionBackendMemory {
		store := session.NewMemoryStore(cfg.Session.TTL)
		store.StartCleanupRoutine(cfg.Session.CleanupInterval)
		return store
	}
	store := sqlitesession.New(db.Write, sqlitesession.Config{TTL: cfg.Session.TTL})
	store.StartCleanupRoutine(cfg.Session.CleanupInterval)
	return store
}

// bootstrapAdmin creates the configured admin account if it does not
// exist yet, so a fresh deployment is usable without manual SQL.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, db *database.DB) error {
	if cfg.Auth.Bootstrap.Username == "" {
		return nil
	}

	users := auth.NewUserStore(db.Write)
	existing, err := users.GetByUsername(ctx, cfg.Auth.Bootstrap.Username)
	if err != nil {
		return fmt.Errorf("checking bootstrap user: %w", err)
	}
	if existing != nil {
		return nil
	}

	user, err := users.Create(ctx, cfg.Auth.Bootstrap.Username, cfg.Auth.Bootstrap.Password, auth.RoleAdmin)
	if err != nil {
		return fmt.Errorf("creating bootstrap user: %w", err)
	}
	slog.Info("bootstrap admin created", "username", user.Username)
	return nil
}

func run() error {
	// A missing .env file is fine; real environments set variables directly.
	_ = godotenv.Load()

	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("govdash version %s\n", server.Version)
		return nil
	}

	setupLogging(opts)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.address != "" {
		cfg.Server.Address = opts.address
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if opts.schemaVersion {
		version, dirty, err := migrate.Version(db.Write)
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
		fmt.Printf("schema version %d (dirty: %t)\n", version, dirty)
		return nil
	}

	if opts.migrateDown {
		if err := migrate.Down(db.Write); err != nil {
			return fmt.Errorf("rolling back database: %w", err)
		}
		slog.Info("database rolled back")
		return nil
	}

	if err := migrate.Run(db.Write); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	ctx, cancel := setupSignalContext()
	defer cancel()

	if err := bootstrapAdmin(ctx, cfg, db); err != nil {
		return err
	}

	sessions := newSessionStore(cfg, db)
	defer func() { _ = sessions.Close() }()

	return server.New(cfg, db, sessions).Run(ctx)
}
