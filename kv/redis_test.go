package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestHealthy(t *testing.T) {
	is := is.New(t)
	var r *Redis
	mock := NewRedisMock(&r)

	mock.ExpectHealthy()
	is.NoErr(r.Healthy(context.Background()))

	down := errors.New("connection refused")
	mock.ExpectUnhealthy(down)
	err := r.Healthy(context.Background())
	is.True(errors.Is(err, down))

	is.NoErr(mock.ExpectationsWereMet())
}

func TestRedisConfigAddr(t *testing.T) {
	is := is.New(t)
	is.Equal(RedisConfig{Host: "cache", Port: 6379}.addr(), "cache:6379")
	is.Equal(RedisConfig{Host: "cache", Port: 6379, Addr: "other:1"}.addr(), "other:1")
}
