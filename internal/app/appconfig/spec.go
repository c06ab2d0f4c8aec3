package appconfig

import (
	"time"
)

type ConfigSpec struct {
	// ServiceAddress is the listen address the backend would listen on for
	// serving normal service requests.
	ServiceAddress string `required:"true" split_words:"true" default:"localhost:9310"`

	// LogJsonStdout is whether to log JSON logs (instead of pretty-print logs)
	// to stdout for the ease of log collection.
	LogJsonStdout bool `split_words:"true" default:"false"`

	// DevMode to indicate development mode. When true, the program would spin
	// up utilities for debugging and provide a more contextual message when
	// encountered a panic.
	DevMode bool `split_words:"true"`

	// HTTPServerShutdownTimeout doubles as fiber's IdleTimeout, which allows
	// graceful shutdown to finish in-flight requests first.
	HTTPServerShutdownTimeout time.Duration `split_words:"true" default:"60s"`

	// PostgresDSN is the data source name for the PostgreSQL database holding
	// analysis_results. See https://bun.uptrace.dev/postgres/#pgdriver for
	// more details on how to construct a PostgreSQL DSN.
	PostgresDSN string `required:"true" split_words:"true"`

	PostgresMaxOpenConns    int           `split_words:"true" default:"10"`
	PostgresMaxIdleConns    int           `split_words:"true" default:"2"`
	PostgresConnMaxLifeTime time.Duration `split_words:"true" default:"5m"`
	PostgresConnMaxIdleTime time.Duration `split_words:"true" default:"5m"`

	BunDebugVerbose bool `split_words:"true"`

	// NatsURL is the URL of the NATS server carrying recompute jobs for the
	// external compute workers. See
	// https://pkg.go.dev/github.com/nats-io/nats.go#Connect for more
	// information on how to construct a NATS URL.
	NatsURL string `required:"true" split_words:"true" default:"nats://127.0.0.1:4222"`

	// RedisURL is the URL of the Redis server backing the analysis cache. See
	// https://pkg.go.dev/github.com/redis/go-redis/v9#ParseURL for more
	// information on how to construct a Redis URL.
	RedisURL string `required:"true" split_words:"true" default:"redis://127.0.0.1:6379/1"`

	// SentryDSN is the DSN of the Sentry server. Leaving this empty disables
	// Sentry reporting.
	SentryDSN string `split_words:"true"`
}
