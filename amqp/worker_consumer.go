package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rabbitmq/amqp091-go"
)

type DeliveryHandler func(ctx context.Context, dv amqp091.Delivery) error

// Consumer hands deliveries to Handler one at a time, acking successes and
// dropping (nack without requeue) failures.
type Consumer struct {
	Handler  DeliveryHandler
	Logger   *slog.Logger
	duration *prometheus.HistogramVec
}

func NewConsumer(reg prometheus.Registerer, namespace, queueName string, handler DeliveryHandler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      fmt.Sprintf("amqp_consumer_%s", strings.ReplaceAll(queueName, "-", "_")),
		Help:      "Time spent handling one delivery.",
		Buckets:   prometheusDurationBuckets,
	}, []string{"queue", "outcome"})
	if reg != nil {
		reg.MustRegister(hist)
	}
	return &Consumer{Handler: handler, Logger: logger, duration: hist}
}

// Run drains deliveries until the channel closes or ctx is done. It returns
// true when the channel closed, meaning the caller should reconnect.
func (c *Consumer) Run(ctx context.Context, queueName string, deliveries <-chan amqp091.Delivery) (closed bool) {
	for {
		select {
		case <-ctx.Done():
			return false
		case dv, ok := <-deliveries:
			if !ok {
				c.Logger.Warn("delivery channel is closed", "queue", queueName)
				return true
			}
			c.handle(ctx, queueName, dv)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, queueName string, dv amqp091.Delivery) {
	outcome := "ack"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		c.duration.WithLabelValues(queueName, outcome).Observe(v)
	}))
	defer timer.ObserveDuration()

	if err := c.Handler(ctx, dv); err != nil {
		outcome = "nack"
		c.Logger.Error("cannot process delivery", "queueName", queueName, "err", err)
		if nerr := dv.Nack(false, false); nerr != nil {
			c.Logger.Error("cannot nack delivery", "queueName", queueName, "err", nerr)
		}
		return
	}
	if err := dv.Ack(false); err != nil {
		c.Logger.Error("cannot ack delivery", "queueName", queueName, "err", err)
	}
}

var prometheusDurationBuckets = []float64{
	0.0005,
	0.001, // 1ms
	0.002,
	0.005,
	0.01, // 10ms
	0.02,
	0.05,
	0.1, // 100 ms
	0.2,
	0.5,
	1.0, // 1s
	2.0,
	5.0,
	10.0, // 10s
	15.0,
	20.0,
	30.0,
}
