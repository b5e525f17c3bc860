package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirrezaask/highlight/amqp"
	"github.com/amirrezaask/highlight/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rabbitmq/amqp091-go"
)

// AMQPSource consumes mutations from a RabbitMQ queue, reconnecting when the
// broker drops the channel. Deliveries that fail to decode or apply are
// nacked without requeue.
type AMQPSource struct {
	URI        string
	Options    amqp.ConsumeOptions
	Registerer prometheus.Registerer
	Namespace  string
	Logger     *slog.Logger
	// ReconnectDelay defaults to one second.
	ReconnectDelay time.Duration
}

func (s *AMQPSource) Run(ctx context.Context, apply Applier) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	delay := s.ReconnectDelay
	if delay == 0 {
		delay = time.Second
	}
	consumer := amqp.NewConsumer(s.Registerer, s.Namespace, s.Options.Queue, deliveryHandler(apply), logger)

	for {
		conn, err := amqp.Dial(ctx, s.URI, logger)
		if err != nil {
			return err
		}
		deliveries, ch, err := conn.Consume(ctx, s.Options)
		if err != nil {
			conn.Close()
			return errors.Wrap(err, "cannot start graph mutation consumer")
		}
		logger.Info("listening for graph mutations", "transport", "amqp", "queue", s.Options.Queue)

		closed := consumer.Run(ctx, s.Options.Queue, deliveries)
		ch.Close()
		conn.Close()
		if !closed {
			return nil
		}

		logger.Warn("reconnecting graph mutation consumer", "queue", s.Options.Queue)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func deliveryHandler(apply Applier) amqp.DeliveryHandler {
	return func(ctx context.Context, dv amqp091.Delivery) error {
		m, err := Decode(dv.Body)
		if err != nil {
			return err
		}
		return apply(ctx, m)
	}
}
