// Package store selects and opens the configured link store backend.
package store

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/tinylink/internal/config"
	"github.com/MrSnakeDoc/tinylink/internal/connect"
	"github.com/MrSnakeDoc/tinylink/internal/domain"
	"github.com/MrSnakeDoc/tinylink/internal/logger"
	"github.com/MrSnakeDoc/tinylink/internal/store/memory"
	"github.com/MrSnakeDoc/tinylink/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/tinylink/internal/store/redis"
	"github.com/MrSnakeDoc/tinylink/internal/store/sqlite"
)

// Backend is a LinkStore the app can health-check and shut down.
type Backend interface {
	domain.LinkStore
	Ping(ctx context.Context) error
	Close() error
}

type migrator interface {
	Migrate(ctx context.Context) error
}

// Policy derives the startup retry policy from cfg.
func Policy(cfg *config.Config) connect.Policy {
	return connect.Policy{
		Timeout:       cfg.ConnectTimeout,
		InitialWait:   cfg.RetryInterval,
		MaxWait:       cfg.MaxWait,
		PingTimeout:   cfg.PingTimeout,
		WarnThreshold: cfg.WarnThreshold,
	}
}

// Open builds the backend named by cfg.StoreDriver, waits for it to answer
// and applies migrations. The caller owns Close.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (Backend, error) {
	b, target, err := build(cfg)
	if err != nil {
		return nil, err
	}

	log = log.With(logger.String("driver", cfg.StoreDriver))
	if err := connect.WithRetry(ctx, target, Policy(cfg), log, b.Ping); err != nil {
		_ = b.Close()
		return nil, err
	}

	if m, ok := b.(migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to migrate %s store: %w", cfg.StoreDriver, err)
		}
		log.Info("schema up to date")
	}
	return b, nil
}

func build(cfg *config.Config) (Backend, string, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		s, err := postgres.Open(cfg.DatabaseURL, postgres.Options{
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, "", err
		}
		return s, "postgres", nil

	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return nil, "", err
		}
		return s, sqlite.DriverFor(cfg.SQLiteDSN), nil

	case config.DriverRedis:
		client := redisstore.NewClient(redisstore.ClientOptions{
			Addr:         cfg.RedisAddr,
			User:         cfg.RedisUser,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  cfg.RedisDT,
			ReadTimeout:  cfg.RedisRT,
			WriteTimeout: cfg.RedisWT,
			PoolSize:     cfg.RedisPoolSize,
		})
		return redisstore.NewStore(client), "redis " + cfg.RedisAddr, nil

	case config.DriverMemory:
		return memory.New(), "memory", nil

	default:
		return nil, "", fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
