package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientOptions describes how to reach Redis.
type ClientOptions struct {
	Addr         string        // ex: "localhost:6379"
	User         string        // optional
	Password     string        // optional
	DB           int           // Redis DB number
	DialTimeout  time.Duration // ex: 5s
	ReadTimeout  time.Duration // ex: 3s
	WriteTimeout time.Duration // ex: 3s
	PoolSize     int
}

// NewClient builds a client without dialing. Connection is checked by the
// caller through connect.WithRetry and Store.Ping.
func NewClient(opts ClientOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})
}
