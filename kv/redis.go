package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/amirrezaask/highlight/errors"
	"github.com/amirrezaask/highlight/retry"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	*redis.Client
}

type RedisConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       int

	// Addr overrides Host and Port when set.
	Addr         string
	ConnectRetry int
	RetryBackoff time.Duration
}

func (c RedisConfig) addr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (r *Redis) Healthy(ctx context.Context) error {
	return errors.Wrap(r.Ping(ctx).Err(), "redis ping")
}

// NewRedis connects and pings, retrying c.ConnectRetry times.
func NewRedis(ctx context.Context, c RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.addr(),
		DB:       c.DB,
		Username: c.Username,
		Password: c.Password,
	})
	r := &Redis{client}

	backoff := c.RetryBackoff
	if backoff == 0 {
		backoff = time.Second
	}
	if err := retry.Do(ctx, r.Healthy, c.ConnectRetry, backoff); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "cannot connect to redis at %s", c.addr())
	}
	return r, nil
}
