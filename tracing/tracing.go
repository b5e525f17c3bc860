package tracing

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const (
	BatchTimeout = time.Second
)

type Config struct {
	ServiceName string
	// Writer receives the exported spans; nil means stdout.
	Writer      io.Writer
	PrettyPrint bool
}

// Init installs a global tracer provider exporting spans to c.Writer and
// returns the function that flushes and stops it.
func Init(c Config) (shutdown func(ctx context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error
	prop := newPropagator()
	otel.SetTextMapPropagator(prop)

	tracerProvider, err := newTraceProvider(c)
	if err != nil {
		return nil, err
	}
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	return func(ctx context.Context) error {
		for _, f := range shutdownFuncs {
			if err := f(ctx); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

func newTraceProvider(c Config) (*trace.TracerProvider, error) {
	var opts []stdouttrace.Option
	if c.Writer != nil {
		opts = append(opts, stdouttrace.WithWriter(c.Writer))
	}
	if c.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	traceExporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, err
	}

	traceProvider := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter, trace.WithBatchTimeout(BatchTimeout)),
		trace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", c.ServiceName),
		)),
	)
	return traceProvider, nil
}

func newPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}
