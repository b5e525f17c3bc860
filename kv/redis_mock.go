package kv

import (
	"github.com/go-redis/redismock/v9"
)

type redisMock struct {
	redismock.ClientMock
}

func (r *redisMock) ExpectHealthy() {
	r.ExpectPing().SetVal("PONG")
}

func (r *redisMock) ExpectUnhealthy(err error) {
	r.ExpectPing().SetErr(err)
}

func NewRedisMock(target **Redis) *redisMock {
	client, mock := redismock.NewClientMock()
	*target = &Redis{client}
	return &redisMock{mock}
}
