// Package config loads process configuration from the environment.
// An optional .env file in the working directory is read first; variables
// already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/domain/pricing"
	"pharmapos/internal/domain/registers/loyalty"
	"pharmapos/internal/infrastructure/storage/postgres"
	"pharmapos/pkg/logger"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config is the full process configuration.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	Storage     string
	DatabaseURL string
	MaxConns    int32
	MinConns    int32

	StatementTimeout time.Duration

	InvoicePrefix string

	ExpiryWindowMonths    int
	ExpiryDiscountPercent types.Money
	PointsPerUnit         types.Money
	MinRedemption         int64

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxRetries   int
	OutboxBackoff      time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	e := env{get: getenv}

	cfg := Config{
		Env:      e.str("APP_ENV", "development"),
		Port:     e.str("APP_PORT", "8080"),
		LogLevel: e.str("LOG_LEVEL", "info"),

		Storage:     strings.ToLower(e.str("STORAGE", StoragePostgres)),
		DatabaseURL: e.str("DATABASE_URL", ""),
		MaxConns:    int32(e.int("DB_MAX_CONNS", 20)),
		MinConns:    int32(e.int("DB_MIN_CONNS", 2)),

		StatementTimeout: e.duration("TX_STATEMENT_TIMEOUT", 30*time.Second),

		InvoicePrefix: e.str("INVOICE_PREFIX", "INV"),

		ExpiryWindowMonths:    e.int("EXPIRY_WINDOW_MONTHS", 3),
		ExpiryDiscountPercent: e.money("EXPIRY_DISCOUNT_PERCENT", "20"),
		PointsPerUnit:         e.money("POINTS_PER_UNIT", "100"),
		MinRedemption:         int64(e.int("MIN_REDEMPTION_POINTS", 50)),

		OutboxPollInterval: e.duration("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatchSize:    e.int("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:   e.int("OUTBOX_MAX_RETRIES", 5),
		OutboxBackoff:      e.duration("OUTBOX_RETRY_BACKOFF", 30*time.Second),
	}

	if len(e.errs) > 0 {
		return Config{}, errors.Join(e.errs...)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE=postgres")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	if c.ExpiryWindowMonths < 0 {
		return errors.New("EXPIRY_WINDOW_MONTHS cannot be negative")
	}
	if !c.PointsPerUnit.IsPositive() {
		return errors.New("POINTS_PER_UNIT must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("OUTBOX_BATCH_SIZE must be positive")
	}
	return nil
}

// IsDevelopment reports whether APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Logger returns the logger configuration.
func (c Config) Logger() logger.Config {
	return logger.Config{Level: c.LogLevel, Development: c.IsDevelopment()}
}

// Pool returns the Postgres pool configuration.
func (c Config) Pool() postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(c.DatabaseURL)
	pc.MaxConns = c.MaxConns
	pc.MinConns = c.MinConns
	return pc
}

// TxOptions returns the transaction options.
func (c Config) TxOptions() postgres.TxOptions {
	opts := postgres.DefaultTxOptions()
	opts.StatementTimeout = c.StatementTimeout
	return opts
}

// Relay returns the outbox delivery options of the worker.
func (c Config) Relay() postgres.RelayOptions {
	opts := postgres.DefaultRelayOptions()
	opts.BatchSize = c.OutboxBatchSize
	opts.MaxRetries = c.OutboxMaxRetries
	opts.BaseBackoff = c.OutboxBackoff
	return opts
}

// Pricing returns the pricing policy.
func (c Config) Pricing() pricing.Policy {
	return pricing.Policy{
		ExpiryWindowMonths:    c.ExpiryWindowMonths,
		ExpiryDiscountPercent: c.ExpiryDiscountPercent,
	}
}

// Loyalty returns the points rules.
func (c Config) Loyalty() loyalty.Rules {
	return loyalty.Rules{
		MinRedemption: c.MinRedemption,
		PointsPerUnit: c.PointsPerUnit,
	}
}

// Sale returns the finalization service configuration.
func (c Config) Sale() sale.Config {
	sc := sale.DefaultConfig()
	sc.InvoicePrefix = c.InvoicePrefix
	return sc
}

// env reads typed values and collects parse errors.
type env struct {
	get  func(string) string
	errs []error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.get(key)); v != "" {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *env) money(key, def string) types.Money {
	m, err := types.NewMoneyFromString(e.str(key, def))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return types.MustMoney(def)
	}
	return m
}
