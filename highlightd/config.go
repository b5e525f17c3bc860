package highlightd

import (
	"log/slog"
	"strings"
	"time"

	"github.com/amirrezaask/highlight/env"
	"github.com/amirrezaask/highlight/errors"
	"github.com/amirrezaask/highlight/logging"
)

type Config struct {
	Addr             string
	SeedFile         string
	LogLevel         slog.Level
	LogFormat        string
	SentryDSN        string
	Environment      string
	Tracing          bool
	MetricsNamespace string
	ShutdownTimeout  time.Duration

	RedisAddr     string
	RedisChannel  string
	RedisUsername string
	RedisPassword string

	AMQPURI        string
	AMQPExchange   string
	AMQPQueue      string
	AMQPRoutingKey string

	// SeedFile may name an object as s3://bucket/key; these reach it.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Secure    bool

	VaultAddr     string
	VaultRoleID   string
	VaultSecretID string
	VaultMount    string
	VaultPath     string
}

// LoadConfig reads HIGHLIGHTD_* keys. Feeds stay disabled unless their
// address is set.
func LoadConfig(e *env.Env) (Config, error) {
	c := Config{
		Addr:             e.Default("HIGHLIGHTD_ADDR", ":8080"),
		SeedFile:         e.Get("HIGHLIGHTD_SEED_FILE"),
		LogLevel:         logging.ParseLevel(e.Get("HIGHLIGHTD_LOG_LEVEL")),
		LogFormat:        e.Default("HIGHLIGHTD_LOG_FORMAT", "text"),
		SentryDSN:        e.Get("HIGHLIGHTD_SENTRY_DSN"),
		Environment:      e.Get("HIGHLIGHTD_ENVIRONMENT"),
		MetricsNamespace: e.Default("HIGHLIGHTD_METRICS_NAMESPACE", "highlightd"),
		RedisAddr:        e.Get("HIGHLIGHTD_REDIS_ADDR"),
		RedisChannel:     e.Default("HIGHLIGHTD_REDIS_CHANNEL", "graph-mutations"),
		RedisUsername:    e.Get("HIGHLIGHTD_REDIS_USERNAME"),
		RedisPassword:    e.Get("HIGHLIGHTD_REDIS_PASSWORD"),
		AMQPURI:          e.Get("HIGHLIGHTD_AMQP_URI"),
		AMQPExchange:     e.Default("HIGHLIGHTD_AMQP_EXCHANGE", "graph"),
		AMQPQueue:        e.Default("HIGHLIGHTD_AMQP_QUEUE", "highlightd"),
		AMQPRoutingKey:   e.Get("HIGHLIGHTD_AMQP_ROUTING_KEY"),
		S3Endpoint:       e.Get("HIGHLIGHTD_S3_ENDPOINT"),
		S3AccessKey:      e.Get("HIGHLIGHTD_S3_ACCESS_KEY"),
		S3SecretKey:      e.Get("HIGHLIGHTD_S3_SECRET_KEY"),
		VaultAddr:        e.Get("HIGHLIGHTD_VAULT_ADDR"),
		VaultRoleID:      e.Get("HIGHLIGHTD_VAULT_ROLE_ID"),
		VaultSecretID:    e.Get("HIGHLIGHTD_VAULT_SECRET_ID"),
		VaultMount:       e.Default("HIGHLIGHTD_VAULT_MOUNT", "secret"),
		VaultPath:        e.Default("HIGHLIGHTD_VAULT_PATH", "highlightd"),
	}

	var err error
	if c.Tracing, err = e.Bool("HIGHLIGHTD_TRACING", false); err != nil {
		return Config{}, err
	}
	if c.S3Secure, err = e.Bool("HIGHLIGHTD_S3_SECURE", false); err != nil {
		return Config{}, err
	}
	if c.ShutdownTimeout, err = e.Duration("HIGHLIGHTD_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if _, _, isObject, err := c.SeedObject(); err != nil {
		return Config{}, err
	} else if isObject && c.S3Endpoint == "" {
		return Config{}, errors.Newf("HIGHLIGHTD_S3_ENDPOINT is required for seed %s", c.SeedFile)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return Config{}, errors.Newf("HIGHLIGHTD_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return c, nil
}

// ApplySecrets overrides credentials with values read from a secret store.
// Keys that are absent or empty leave the env value in place.
func (c *Config) ApplySecrets(secrets map[string]string) {
	for key, target := range map[string]*string{
		"amqp_uri":       &c.AMQPURI,
		"redis_username": &c.RedisUsername,
		"redis_password": &c.RedisPassword,
		"s3_access_key":  &c.S3AccessKey,
		"s3_secret_key":  &c.S3SecretKey,
		"sentry_dsn":     &c.SentryDSN,
	} {
		if v := secrets[key]; v != "" {
			*target = v
		}
	}
}

// SeedObject splits an s3://bucket/key seed location. ok is false for plain
// file paths.
func (c Config) SeedObject() (bucket, key string, ok bool, err error) {
	rest, found := strings.CutPrefix(c.SeedFile, "s3://")
	if !found {
		return "", "", false, nil
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", false, errors.E(errors.KindInvalidArgument, "seed location %q must look like s3://bucket/key", c.SeedFile)
	}
	return bucket, key, true, nil
}
