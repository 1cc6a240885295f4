package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout = 10 * time.Second
	defaultAppName = "asc-accounts"
)

// Config holds the settings for the identity database.
type Config struct {
	URI      string
	Database string
	AppName  string
	// MaxPoolSize caps connections per server; zero keeps the URI or driver value.
	MaxPoolSize uint64
	Timeout     time.Duration
}

// Store is an open identity database with its account indexes in place.
type Store struct {
	client *mongo.Client
	DB     *mongo.Database
}

func clientOptions(cfg Config) *options.ClientOptions {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	appName := cfg.AppName
	if appName == "" {
		appName = defaultAppName
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	return opts
}

// Open connects, waits for the primary to answer and ensures the account
// indexes. Repositories built on Store.DB can rely on the unique email and
// username indexes existing.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo: database name is required")
	}
	opts := clientOptions(cfg)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	s := &Store{client: client, DB: client.Database(cfg.Database)}

	pingCtx, cancel := context.WithTimeout(ctx, *opts.ServerSelectionTimeout)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	if err := EnsureAccountIndexes(ctx, s.DB); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ensure account indexes: %w", err)
	}
	return s, nil
}

// Ping backs the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
