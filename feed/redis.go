package feed

import (
	"context"
	"log/slog"

	"github.com/amirrezaask/highlight/errors"
	"github.com/redis/go-redis/v9"
)

// RedisSource subscribes to a pub/sub channel whose messages are JSON
// mutations. Malformed messages are logged and skipped.
type RedisSource struct {
	Client  *redis.Client
	Channel string
	Logger  *slog.Logger
}

func (s *RedisSource) Run(ctx context.Context, apply Applier) error {
	pubsub := s.Client.Subscribe(ctx, s.Channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return errors.Wrap(err, "cannot subscribe to redis channel %s", s.Channel)
	}
	s.logger().Info("listening for graph mutations", "transport", "redis", "channel", s.Channel)

	return s.consume(ctx, pubsub.Channel(), apply)
}

func (s *RedisSource) consume(ctx context.Context, messages <-chan *redis.Message, apply Applier) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.Newf("redis subscription to %s closed", s.Channel)
			}
			m, err := Decode([]byte(msg.Payload))
			if err != nil {
				s.logger().Error("dropping graph mutation", "channel", msg.Channel, "err", err)
				continue
			}
			if err := apply(ctx, m); err != nil {
				s.logger().Error("cannot apply graph mutation", "channel", msg.Channel, "op", m.Op, "err", err)
			}
		}
	}
}

func (s *RedisSource) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
