package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pharmaledger/pharmaledger/internal/adapter/outbound/catalog"
	"github.com/pharmaledger/pharmaledger/internal/adapter/outbound/directory"
	"github.com/pharmaledger/pharmaledger/internal/adapter/outbound/memory"
	"github.com/pharmaledger/pharmaledger/internal/adapter/outbound/redis"
	"github.com/pharmaledger/pharmaledger/internal/adapter/outbound/remote"
	"github.com/pharmaledger/pharmaledger/internal/adapter/outbound/state"
	"github.com/pharmaledger/pharmaledger/internal/config"
	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
	"github.com/pharmaledger/pharmaledger/internal/domain/login"
	"github.com/pharmaledger/pharmaledger/internal/domain/session"
	"github.com/pharmaledger/pharmaledger/internal/domain/verification"
	"github.com/pharmaledger/pharmaledger/internal/telemetry"
)

// passwordEnv supplies passwords without exposing them in shell history.
const passwordEnv = "PHARMALEDGER_PASSWORD"

// app is the composition root shared by every command. Components are
// built once and injected; nothing here is a process-wide singleton.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	tracing  *telemetry.Tracing
	records  session.RecordStore
	sessions *session.Store
	authn    login.Authenticator
	verifier verification.BatchVerifier
	closers  []func() error
}

// loadConfig reads and validates the configuration, forcing dev mode when
// dev is set.
func loadConfig(dev bool) (*config.Config, error) {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dev {
		cfg.DevMode = true
	}
	if err := cfg.SetDevDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger. DevMode always forces debug.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newApp wires every collaborator selected by cfg.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	tracing, err := telemetry.Setup(cfg.Telemetry.StdoutTraces, os.Stdout, Version)
	if err != nil {
		return nil, err
	}
	a.tracing = tracing
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tracing.Shutdown(ctx)
	})

	a.records = a.openRecordStore(ctx)
	a.sessions = session.NewStore(a.records,
		session.WithKey(cfg.Session.Key),
		session.WithLogger(logger),
	)

	if a.authn, err = a.buildAuthenticator(); err != nil {
		a.close()
		return nil, err
	}
	if a.verifier, err = a.buildVerifier(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// openRecordStore opens the configured session backend. A backend that
// cannot be opened falls back to memory: sessions then last only as long
// as the process, but login keeps working.
func (a *app) openRecordStore(ctx context.Context) session.RecordStore {
	cfg := a.cfg.Session
	switch cfg.Backend {
	case "file":
		store, err := state.NewFileRecordStore(cfg.Dir, a.logger)
		if err == nil {
			a.logger.Debug("session records on disk", "dir", store.Dir())
			return store
		}
		a.logger.Warn("session directory unusable, sessions will not survive restarts", "dir", cfg.Dir, "error", err)
	case "redis":
		store, err := redis.New(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      session.MaxAge,
		})
		if err == nil {
			a.closers = append(a.closers, store.Close)
			return store
		}
		a.logger.Warn("redis unavailable, sessions will not survive restarts", "addr", cfg.Redis.Addr, "error", err)
	}
	return memory.NewRecordStore(session.MaxAge)
}

func (a *app) buildAuthenticator() (login.Authenticator, error) {
	cfg := a.cfg.Auth
	if cfg.Mode == "remote" {
		return remote.NewAuthenticator(cfg.Remote.URL,
			remote.WithTimeout(config.Duration(cfg.Remote.Timeout, remote.DefaultTimeout)),
		), nil
	}

	accounts := memory.NewAccountStore()
	for _, u := range cfg.Users {
		accounts.AddAccount(&auth.Account{
			Email:        u.Email,
			Name:         u.Name,
			Role:         auth.ParseRole(u.Role),
			PasswordHash: u.PasswordHash,
			Disabled:     u.Disabled,
			CreatedAt:    time.Now().UTC(),
		})
	}
	if len(cfg.Users) == 0 {
		a.logger.Warn("no accounts configured; every login will be declined (add auth.users or use --dev)")
	}
	return directory.NewAuthenticator(accounts, a.logger), nil
}

func (a *app) buildVerifier(ctx context.Context) (verification.BatchVerifier, error) {
	cfg := a.cfg.Catalog
	switch cfg.Mode {
	case "remote":
		return remote.NewBatchVerifier(cfg.Remote.URL,
			remote.WithTimeout(config.Duration(cfg.Remote.Timeout, remote.DefaultTimeout)),
		), nil
	case "sql":
		cat, err := a.openSQLCatalog(ctx)
		if err != nil {
			return nil, err
		}
		return cat, nil
	}

	batches, err := seedBatches(cfg)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.NewMemoryCatalog(batches...)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	a.logger.Debug("memory catalog loaded", "batches", cat.Len())
	return cat, nil
}

func (a *app) openSQLCatalog(ctx context.Context) (*catalog.SQLCatalog, error) {
	cfg := a.cfg.Catalog.SQL
	if cfg.Driver == catalog.DriverSQLite {
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create catalog directory: %w", err)
			}
		}
	}
	cat, err := catalog.OpenSQL(ctx, cfg.Driver, cfg.DSN, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, cat.Close)
	return cat, nil
}

// seedBatches merges the seed file and inline batches.
func seedBatches(cfg config.CatalogConfig) ([]catalog.Batch, error) {
	var batches []catalog.Batch
	if cfg.SeedFile != "" {
		seeded, err := catalog.LoadSeed(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		batches = append(batches, seeded...)
	}
	for _, b := range cfg.Batches {
		batches = append(batches, catalog.Batch{ID: b.ID, ProductName: b.Product, Manufacturer: b.Manufacturer})
	}
	return batches, nil
}

func (a *app) loginFlow(sessions *session.Store) *login.Flow {
	return login.NewFlow(a.authn,
		login.WithSessionStore(sessions),
		login.WithLogger(a.logger),
		login.WithTracer(a.tracing.Tracer("github.com/pharmaledger/pharmaledger/login")),
	)
}

func (a *app) verificationFlow() *verification.Flow {
	return verification.NewFlow(a.verifier,
		verification.WithLogger(a.logger),
		verification.WithTracer(a.tracing.Tracer("github.com/pharmaledger/pharmaledger/verification")),
	)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("error releasing resources", "error", err)
	}
}

// setup loads config and wires the app for a one-shot command.
func setup(ctx context.Context, dev bool) (*app, error) {
	cfg, err := loadConfig(dev)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, os.Stderr)
	if f := config.ConfigFileUsed(); f != "" {
		logger.Debug("loaded config", "file", f)
	}
	return newApp(ctx, cfg, logger)
}
