package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirrezaask/highlight/errors"
	"github.com/amirrezaask/highlight/retry"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

type Connection struct {
	Conn   *amqp091.Connection
	logger *slog.Logger
}

// Dial connects to rabbitURI, retrying a few times before giving up. Callers
// should watch Conn.NotifyClose to handle broker restarts.
func Dial(ctx context.Context, rabbitURI string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := amqp091.Config{
		Properties: amqp091.NewConnectionProperties(),
	}

	var conn *amqp091.Connection
	err := retry.Do(ctx, func(context.Context) error {
		var err error
		conn, err = amqp091.DialConfig(rabbitURI, cfg)
		if err != nil {
			logger.Error("cannot connect to rabbit", "err", err)
		}
		return err
	}, 5, time.Second)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to rabbit")
	}

	return &Connection{Conn: conn, logger: logger}, nil
}

type ConsumeOptions struct {
	AppName      string
	Exchange     string
	ExchangeType string // direct|fanout|topic, default fanout
	Queue        string
	RoutingKey   string
	Prefetch     int
}

// Consume declares the exchange and queue, binds them and starts consuming
// with manual acknowledgements.
func (rc *Connection) Consume(ctx context.Context, o ConsumeOptions) (<-chan amqp091.Delivery, *amqp091.Channel, error) {
	ch, err := rc.Conn.Channel()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot create channel from rabbit mq connection")
	}

	kind := o.ExchangeType
	if kind == "" {
		kind = amqp091.ExchangeFanout
	}
	if o.Exchange != "" {
		if err := ch.ExchangeDeclare(o.Exchange, kind, true, false, false, false, amqp091.Table{}); err != nil {
			ch.Close()
			return nil, nil, errors.Wrap(err, "cannot declare exchange %s", o.Exchange)
		}
	}

	if _, err := ch.QueueDeclare(o.Queue, true, false, false, false, amqp091.Table{}); err != nil {
		ch.Close()
		return nil, nil, errors.Wrap(err, "cannot declare rabbit queue %s", o.Queue)
	}

	if o.Exchange != "" {
		if err := ch.QueueBind(o.Queue, o.RoutingKey, o.Exchange, false, amqp091.Table{}); err != nil {
			ch.Close()
			return nil, nil, errors.Wrap(err, "cannot bind rabbit queue %s", o.Queue)
		}
	}

	if o.Prefetch != 0 {
		if err := ch.Qos(o.Prefetch, 0, false); err != nil {
			ch.Close()
			return nil, nil, errors.Wrap(err, "cannot set qos (prefetch) on rabbit queue %s", o.Queue)
		}
	}

	delivery, err := ch.ConsumeWithContext(ctx, o.Queue, fmt.Sprintf("consumer-%s-%s", o.AppName, uuid.NewString()),
		false,
		false,
		false,
		false,
		amqp091.Table{})
	if err != nil {
		ch.Close()
		return nil, nil, errors.Wrap(err, "cannot consume rabbit queue %s", o.Queue)
	}

	return delivery, ch, nil
}

func (rc *Connection) Close() error {
	return rc.Conn.Close()
}
