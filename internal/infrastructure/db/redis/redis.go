package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultClientName = "asc-accounts"
)

// Config holds the settings for the session store connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	// PoolSize zero keeps the go-redis default of ten per CPU.
	PoolSize int
	Timeout  time.Duration
}

func clientOptions(cfg Config) *redis.Options {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ClientName:   defaultClientName,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
}

// Connect opens the session store client and fails fast when the server does
// not answer a ping within the configured timeout.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts := clientOptions(cfg)
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
