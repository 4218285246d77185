// Package config holds the configuration of the ledger binaries.
// Values come from a per-binary .env file, the environment and built-in defaults,
// and are validated once at startup.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config is the full configuration shared by ledger_api and ledger_worker.
// A binary ignores the sections it does not use, but every section is validated.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Ledger      LedgerConfig
	Auth        AuthConfig
	Breaker     BreakerConfig
}

type ApplicationConfig struct {
	Env  string
	Name string
}

type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig contains the ledger event stream settings
type KafkaConfig struct {
	Brokers           string
	LedgerEventTopic  string
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

// PostgresConfig contains the account and ledger store settings
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains the history read model settings
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains the idempotency cache settings
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration // How long a replayable response is kept
	LockExpiry     time.Duration // Upper bound on one in-flight request per key
}

type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig bounds the number of engine invocations running at once
type WorkerPoolConfig struct {
	Size int
}

// LedgerConfig contains unit-of-work limits
type LedgerConfig struct {
	TxTimeout   time.Duration // Whole unit of work, begin to commit
	LockTimeout time.Duration // Wait for a single row lock
}

// AuthConfig contains caller identity settings
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// BreakerConfig configures the circuit breaker in front of the event publisher
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

type problems []string

func (p *problems) require(ok bool, msg string) {
	if !ok {
		*p = append(*p, msg)
	}
}

// validate checks every section and reports all problems at once
func (c *Config) validate() error {
	var p problems

	c.Server.validate(&p)
	c.Kafka.validate(&p)
	c.Postgres.validate(&p)
	c.MongoDB.validate(&p)
	c.Redis.validate(&p)

	p.require(c.Outbox.PollingInterval > 0, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	p.require(c.Outbox.BatchSize > 0, "OUTBOX_BATCH_SIZE must be greater than 0")
	p.require(c.Outbox.MaxRetryAttempts > 0, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")

	p.require(c.WorkerPool.Size > 0, "WORKER_POOL_SIZE must be greater than 0")

	p.require(c.Ledger.TxTimeout > 0, "LEDGER_TX_TIMEOUT must be greater than 0")
	p.require(c.Ledger.LockTimeout > 0, "LEDGER_LOCK_TIMEOUT must be greater than 0")
	p.require(c.Ledger.LockTimeout <= c.Ledger.TxTimeout, "LEDGER_LOCK_TIMEOUT must not exceed LEDGER_TX_TIMEOUT")

	p.require(len(c.Auth.JWTSecret) >= 16, "AUTH_JWT_SECRET must be at least 16 characters")
	p.require(c.Auth.TokenTTL > 0, "AUTH_TOKEN_TTL must be greater than 0")
	p.require(c.Auth.BcryptCost >= 4 && c.Auth.BcryptCost <= 31, "AUTH_BCRYPT_COST must be between 4 and 31")

	p.require(c.Breaker.ConsecutiveFailures > 0, "BREAKER_CONSECUTIVE_FAILURES must be greater than 0")
	p.require(c.Breaker.Timeout > 0, "BREAKER_TIMEOUT must be greater than 0")

	if len(p) > 0 {
		return errors.New(strings.Join(p, ", "))
	}
	return nil
}

func (s ServerConfig) validate(p *problems) {
	p.require(s.Port > 0, "SERVER_PORT must be greater than 0")
	p.require(s.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	p.require(s.ReadTimeout > 0, "SERVER_READ_TIMEOUT must be greater than 0")
	p.require(s.WriteTimeout > 0, "SERVER_WRITE_TIMEOUT must be greater than 0")
	p.require(s.IdleTimeout > 0, "SERVER_IDLE_TIMEOUT must be greater than 0")
}

func (k KafkaConfig) validate(p *problems) {
	p.require(k.Brokers != "", "KAFKA_BROKERS is required")
	p.require(k.LedgerEventTopic != "", "KAFKA_LEDGER_EVENT_TOPIC is required")
	p.require(k.ConsumerGroup != "", "KAFKA_CONSUMER_GROUP is required")
	p.require(k.MinBytes > 0, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	p.require(k.MaxBytes > 0, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	p.require(k.MaxWait > 0, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	p.require(k.DLQTopic != "", "KAFKA_DLQ_TOPIC is required")
	p.require(k.DLQTopic != k.LedgerEventTopic, "KAFKA_DLQ_TOPIC must differ from KAFKA_LEDGER_EVENT_TOPIC")
}

func (pg PostgresConfig) validate(p *problems) {
	p.require(pg.URL != "", "POSTGRES_URL is required")
	p.require(pg.MaxConns > 0, "POSTGRES_MAX_CONNS must be greater than 0")
	p.require(pg.MinConns > 0, "POSTGRES_MIN_CONNS must be greater than 0")
	p.require(pg.ConnMaxLifetime > 0, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	p.require(pg.ConnMaxIdleTime > 0, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
}

func (m MongoDBConfig) validate(p *problems) {
	p.require(m.URI != "", "MONGO_URI is required")
	p.require(m.Database != "", "MONGO_DATABASE is required")
	p.require(m.Timeout > 0, "MONGO_TIMEOUT must be greater than 0")
	p.require(m.MaxPoolSize > 0, "MONGO_MAX_POOL_SIZE must be greater than 0")
	p.require(m.MinPoolSize > 0, "MONGO_MIN_POOL_SIZE must be greater than 0")
	p.require(m.MaxConnIdleTime > 0, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
}

func (r RedisConfig) validate(p *problems) {
	p.require(r.Addr != "", "REDIS_ADDR is required")
	p.require(r.DB >= 0, "REDIS_DB must not be negative")
	p.require(r.IdempotencyTTL > 0, "REDIS_IDEMPOTENCY_TTL must be greater than 0")
	p.require(r.LockExpiry > 0, "REDIS_LOCK_EXPIRY must be greater than 0")
}
