package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/amirrezaask/highlight/amqp"
	"github.com/amirrezaask/highlight/env"
	"github.com/amirrezaask/highlight/errors"
	"github.com/amirrezaask/highlight/feed"
	"github.com/amirrezaask/highlight/graph"
	"github.com/amirrezaask/highlight/highlight"
	"github.com/amirrezaask/highlight/highlightd"
	"github.com/amirrezaask/highlight/kv"
	"github.com/amirrezaask/highlight/logging"
	"github.com/amirrezaask/highlight/objectstore"
	"github.com/amirrezaask/highlight/tracing"
	"github.com/amirrezaask/highlight/vault"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to read configuration from")
	flag.Parse()

	if err := run(*envFile); err != nil {
		slog.Error("highlightd stopped", "err", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	e, err := env.Load(envFile)
	if err != nil {
		return err
	}
	cfg, err := highlightd.LoadConfig(e)
	if err != nil {
		return err
	}
	if cfg.VaultAddr != "" {
		if err := loadSecrets(&cfg); err != nil {
			return err
		}
	}

	logger, err := logging.Init(logging.Config{
		LogLevel: cfg.LogLevel,
		Format:   cfg.LogFormat,
		SentryConfig: sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		},
	})
	if err != nil {
		return err
	}
	defer sentry.Flush(cfg.ShutdownTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing {
		shutdown, err := tracing.Init(tracing.Config{ServiceName: "highlightd"})
		if err != nil {
			return errors.Wrap(err, "cannot start tracing")
		}
		defer shutdown(context.Background())
	}

	body := graph.NewBody()
	if cfg.SeedFile != "" {
		if err := loadSeed(ctx, cfg, body); err != nil {
			return err
		}
		logger.Info("graph seeded", "seed", cfg.SeedFile, "nodes", body.Len())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []highlightd.Option{
		highlightd.WithLogger(logger),
		highlightd.WithMetrics(highlight.NewMetrics(reg, cfg.MetricsNamespace)),
	}
	var sources []feed.Source

	if cfg.RedisAddr != "" {
		rdb, err := kv.NewRedis(ctx, kv.RedisConfig{
			Addr:         cfg.RedisAddr,
			Username:     cfg.RedisUsername,
			Password:     cfg.RedisPassword,
			ConnectRetry: 3,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, highlightd.WithHealthCheck("redis", rdb.Healthy))
		sources = append(sources, &feed.RedisSource{
			Client:  rdb.Client,
			Channel: cfg.RedisChannel,
			Logger:  logger.With("feed", "redis"),
		})
	}
	if cfg.AMQPURI != "" {
		sources = append(sources, &feed.AMQPSource{
			URI: cfg.AMQPURI,
			Options: amqp.ConsumeOptions{
				AppName:    "highlightd",
				Exchange:   cfg.AMQPExchange,
				Queue:      cfg.AMQPQueue,
				RoutingKey: cfg.AMQPRoutingKey,
			},
			Registerer: reg,
			Namespace:  cfg.MetricsNamespace,
			Logger:     logger.With("feed", "amqp"),
		})
	}

	svc := highlightd.NewService(body, opts...)
	defer svc.Close()

	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src feed.Source) {
			defer wg.Done()
			if err := src.Run(ctx, svc.Apply); err != nil {
				logger.Error("graph mutation feed stopped", "err", err)
			}
		}(src)
	}

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: highlightd.NewHandler(svc, reg, cfg.MetricsNamespace),
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stop()
			wg.Wait()
			return errors.Wrap(err, "http server")
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	wg.Wait()
	return err
}

func loadSecrets(cfg *highlightd.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	v, err := vault.NewClient(ctx, vault.Config{
		VaultAddress:  cfg.VaultAddr,
		VaultRoleId:   cfg.VaultRoleID,
		VaultSecretId: cfg.VaultSecretID,
	})
	if err != nil {
		return err
	}
	secrets, err := v.GetSecrets(ctx, cfg.VaultMount, cfg.VaultPath)
	if err != nil {
		return err
	}
	cfg.ApplySecrets(secrets)
	return nil
}

func loadSeed(ctx context.Context, cfg highlightd.Config, body *graph.Body) error {
	bucket, key, isObject, err := cfg.SeedObject()
	if err != nil {
		return err
	}
	if isObject {
		objects, err := objectstore.NewMinio(ctx, objectstore.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    bucket,
			Secure:    cfg.S3Secure,
		})
		if err != nil {
			return err
		}
		return highlightd.LoadSeedObject(ctx, body, objects, key)
	}

	f, err := os.Open(cfg.SeedFile)
	if err != nil {
		return errors.Wrap(err, "cannot open seed file")
	}
	defer f.Close()
	return highlightd.LoadSeed(body, f)
}
