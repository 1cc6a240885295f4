// @title        ASC Accounts API
// @version      1.0
// @description  Account lifecycle for service engineers and customers.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/asc-solution/accounts/internal/api"
	"github.com/asc-solution/accounts/internal/api/handler"
	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/core/ports"
	"github.com/asc-solution/accounts/internal/core/service"
	"github.com/asc-solution/accounts/internal/infrastructure/db/memory"
	mongodb "github.com/asc-solution/accounts/internal/infrastructure/db/mongo"
	redisdb "github.com/asc-solution/accounts/internal/infrastructure/db/redis"
	"github.com/asc-solution/accounts/internal/infrastructure/identity"
	"github.com/asc-solution/accounts/internal/infrastructure/mail"
	"github.com/asc-solution/accounts/internal/infrastructure/navigation"
	"github.com/asc-solution/accounts/internal/infrastructure/queue"
	"github.com/asc-solution/accounts/internal/pkg/config"
	"github.com/asc-solution/accounts/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment()})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// identityBackend bundles the three identity capabilities.
type identityBackend struct {
	registry ports.AccountRegistry
	claims   ports.ClaimStore
	roles    ports.RoleAssigner
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	readiness := make(map[string]handler.ReadinessCheck)
	tokens := identity.NewResetTokens(cfg.JWTSecret, 0)

	// --- Identity store ---
	var ids identityBackend
	switch cfg.StoreBackend {
	case "mongo":
		store, err := mongodb.Open(ctx, mongodb.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
			Timeout:     cfg.Mongo.Timeout,
		})
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = store.Close(dctx)
		}()
		ids = identityBackend{
			registry: mongodb.NewAccountRepository(store.DB, tokens),
			claims:   mongodb.NewClaimStore(store.DB),
			roles:    mongodb.NewRoleRepository(store.DB),
		}
		readiness["mongodb"] = store.Ping
		log.Info().Str("database", cfg.Mongo.Database).Msg("identity store: mongo")
	default:
		store := memory.NewIdentityStore(tokens)
		ids = identityBackend{registry: store, claims: store, roles: store}
		log.Warn().Msg("identity store: memory, accounts are lost on restart")
	}

	// --- Session store ---
	var sessions ports.SessionStore
	switch cfg.SessionBackend {
	case "redis":
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessions = redisdb.NewSessionStore(rdb, cfg.SessionTTL)
		readiness["redis"] = redisCheck(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("session store: redis")
	default:
		sessions = memory.NewSessionStore()
		log.Info().Msg("session store: memory")
	}

	// --- Notifications ---
	var mailer queue.Mailer = mail.NewLogMailer(logger.Component("mail"))
	if cfg.SMTP.Host != "" {
		smtpMailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Timeout:  cfg.SMTP.Timeout,
		})
		if err != nil {
			return err
		}
		mailer = smtpMailer
	}
	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, mailer, logger.Component("notifications"))
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)
	defer func() {
		dispatcher.Close()
		cancelWorkers()
	}()

	// --- Seed identity ---
	seeder := service.NewIdentitySeeder(ids.registry, ids.claims, ids.roles, log)
	err := seeder.Seed(ctx,
		service.SeedAccount{Username: cfg.Seed.AdminName, Email: cfg.Seed.AdminEmail, Password: cfg.Seed.AdminPassword, Role: domain.RoleAdmin},
		service.SeedAccount{Username: cfg.Seed.EngineerName, Email: cfg.Seed.EngineerEmail, Password: cfg.Seed.EngineerPassword, Role: domain.RoleEngineer},
	)
	if err != nil {
		return fmt.Errorf("seed identity: %w", err)
	}

	// --- Navigation cache ---
	var source ports.MenuSource = navigation.NewEmbeddedSource()
	if cfg.NavigationFile != "" {
		source = navigation.NewFileSource(cfg.NavigationFile)
	}
	navCache := service.NewNavigationCache(source, logger.Component("navigation"))
	if err := navCache.Create(ctx); err != nil {
		return fmt.Errorf("build navigation cache: %w", err)
	}

	// --- Services ---
	accountService := service.NewAccountService(ids.registry, ids.claims, ids.roles, dispatcher, log)
	authService := service.NewAuthService(ids.registry, ids.claims, ids.roles, cfg.JWTSecret, cfg.TokenTTL)

	e := api.NewRouter(api.Dependencies{
		Accounts:      accountService,
		Auth:          authService,
		Navigation:    navCache,
		Sessions:      sessions,
		Readiness:     readiness,
		Log:           logger.Component("http"),
		JWTSecret:     cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: !cfg.IsDevelopment(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func redisCheck(rdb *goredis.Client) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
