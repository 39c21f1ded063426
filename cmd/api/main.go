// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Aegis authentication server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Load signing material and build the keyring.
//  7. Wire stores, services, and HTTP handlers.
//  8. Run HTTP server plus the maintenance worker under one errgroup.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/aegis/internal/api"
	"github.com/taibuivan/aegis/internal/audit"
	"github.com/taibuivan/aegis/internal/auth"
	"github.com/taibuivan/aegis/internal/lockout"
	"github.com/taibuivan/aegis/internal/platform/config"
	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/platform/middleware"
	"github.com/taibuivan/aegis/internal/platform/migration"
	pgstore "github.com/taibuivan/aegis/internal/platform/postgres"
	"github.com/taibuivan/aegis/internal/platform/ratelimit"
	redisstore "github.com/taibuivan/aegis/internal/platform/redis"
	"github.com/taibuivan/aegis/internal/platform/sec"
	"github.com/taibuivan/aegis/internal/session"
	"github.com/taibuivan/aegis/internal/tenant"
	"github.com/taibuivan/aegis/internal/user"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if level := parseLogLevel(cfg); level != slog.LevelInfo {
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})).With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("log_level_overridden", slog.String("level", level.String()))
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Signing Keys ───────────────────────────────────────────────────
	// The secret is read once here and never stored in the config struct.
	secrets := sec.NewSecretsProvider()
	signingMaterial, err := secrets.SigningSecret()
	must(log, err, "load signing secret")

	keyring, err := sec.NewKeyring(signingMaterial, cfg.KeyRotationGrace())
	must(log, err, "build signing keyring")

	tokenService := sec.NewTokenService(keyring, constants.AuthIssuer, cfg.AccessTokenLifetime())

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	auditRepository := audit.NewPostgresRepository(pool)
	journal := audit.NewJournal(auditRepository, log, cfg.AuditQueueSize)

	lockoutPolicy := lockout.Policy{
		MaxAttempts:  cfg.LockoutMaxAttempts,
		BaseDuration: time.Duration(cfg.LockoutDurationMinutes) * time.Minute,
		Multiplier:   cfg.LockoutProgressiveMultiplier,
		Ceiling:      constants.LockoutCeilingDuration,
	}

	tenantRepository := tenant.NewCachedRepository(tenant.NewPostgresRepository(pool), rdb)
	userRepository := user.NewPostgresRepository(pool)
	sessionRepository := session.NewPostgresRepository(pool)
	lockoutRepository := lockout.NewPostgresRepository(pool, lockoutPolicy)

	sessionService := session.NewService(sessionRepository, journal, cfg.RefreshTokenLifetime())
	lockoutService := lockout.NewService(lockoutRepository, journal, lockoutPolicy)
	userService := user.NewService(userRepository, sessionService, journal)
	authService := auth.NewService(
		tenantRepository,
		userRepository,
		sessionService,
		lockoutService,
		tokenService,
		keyring,
		journal,
	)

	// Role-guard denials land in the same journal as the domain events.
	guard := middleware.NewGuard(tokenService, journal)

	limiter := ratelimit.New(map[string]ratelimit.Policy{
		ratelimit.ClassLogin: {
			Capacity: cfg.RateLimitLoginAttempts,
			Window:   time.Duration(cfg.RateLimitLoginWindowMinutes) * time.Minute,
		},
		ratelimit.ClassRegister: {
			Capacity: cfg.RateLimitRegisterAttempts,
			Window:   time.Duration(cfg.RateLimitRegisterWindowMinutes) * time.Minute,
		},
		ratelimit.ClassAPI: {
			Capacity: cfg.RateLimitAPIAttempts,
			Window:   time.Duration(cfg.RateLimitAPIWindowSeconds) * time.Second,
		},
	})

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, guard, limiter),
		User:      user.NewHandler(userService, guard),
		Audit:     audit.NewHandler(auditRepository),
		Lockout:   lockout.NewHandler(lockoutService),
	}

	server := api.NewServer(cfg, log, guard, limiter, handlers)

	// ── 10. Run ───────────────────────────────────────────────────────────
	// Everything below shares one signal-aware context: the first failure or
	// the first SIGTERM/SIGINT winds the whole process down.
	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	limiter.StartJanitor(appCtx)

	group, groupCtx := errgroup.WithContext(appCtx)

	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		runMaintenance(groupCtx, log, sessionService, keyring)
		return nil
	})

	// Block until OS signal or server error.
	<-groupCtx.Done()
	log.Info("shutdown initiated")

	// Give in-flight requests enough time to complete.
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
	}

	// Drain queued audit events before the pool closes underneath them.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if err := journal.Close(drainCtx); err != nil {
		log.Error("audit drain error", slog.Any("error", err))
	}

	if err := group.Wait(); err != nil {
		log.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// runMaintenance prunes dead refresh tokens and sweeps retired signing keys
// on a fixed interval until the context ends.
func runMaintenance(ctx context.Context, log *slog.Logger, sessions *session.Service, keys *sec.Keyring) {
	ticker := time.NewTicker(constants.MaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if purged, err := sessions.PruneExpired(ctx); err != nil {
				log.Error("maintenance_prune_expired_failed", slog.Any("error", err))
			} else if purged > 0 {
				log.Info("maintenance_prune_expired", slog.Int64("purged", purged))
			}

			if purged, err := sessions.PruneRevoked(ctx); err != nil {
				log.Error("maintenance_prune_revoked_failed", slog.Any("error", err))
			} else if purged > 0 {
				log.Info("maintenance_prune_revoked", slog.Int64("purged", purged))
			}

			if swept := keys.Sweep(); swept > 0 {
				log.Info("maintenance_keys_swept", slog.Int("count", swept))
			}
		}
	}
}

// parseLogLevel maps LOG_LEVEL (with DEBUG as a blanket override) onto slog levels.
func parseLogLevel(cfg *config.Config) slog.Level {
	if cfg.Debug {
		return slog.LevelDebug
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
