package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/GoCodeAlone/modular/modules/database"
	"github.com/GoCodeAlone/modular/modules/httpserver"

	"github.com/f-str/radishmq/internal/broker"
	"github.com/f-str/radishmq/internal/persistence"
)

// ErrMissingEnv reports a required setting absent from both the environment
// and the yaml config.
var ErrMissingEnv = errors.New("required configuration missing")

// envContractFeeder maps the deployment environment contract onto the
// registered config sections. It runs after the yaml feeder, so environment
// variables override file values and required settings may be satisfied by
// either source:
//
//	HTTP_ADDRESS, HTTP_PORT            -> httpserver host/port (required)
//	MAX_WORKER                         -> persistence workers (required)
//	DB_POOL_MAX_CONNECTIONS_THREAD     -> persistence per-worker pool budget (required)
//	DATABASE_URL                       -> database default connection DSN (required)
//	ENABLE_MIGRATIONS                  -> persistence migrations toggle (default false)
//	EVENT_QUEUE_CAPACITY               -> broker event queue capacity (defaulted)
//	EVENT_QUEUE_OVERFLOW               -> broker event queue overflow policy (defaulted)
//
// The database pool is sized to MAX_WORKER * DB_POOL_MAX_CONNECTIONS_THREAD
// open connections, one budget per worker.
type envContractFeeder struct{}

func newEnvContractFeeder() envContractFeeder {
	return envContractFeeder{}
}

// Feed implements the base Feeder interface; the contract applies per
// section, so the whole-struct pass has nothing to do.
func (envContractFeeder) Feed(interface{}) error {
	return nil
}

// FeedKey feeds one registered config section.
func (f envContractFeeder) FeedKey(section string, target interface{}) error {
	switch cfg := target.(type) {
	case *httpserver.HTTPServerConfig:
		return f.feedHTTPServer(cfg)
	case *database.Config:
		return f.feedDatabase(cfg)
	case *persistence.Config:
		return f.feedPersistence(cfg)
	case *broker.Config:
		return f.feedBroker(cfg)
	default:
		return nil
	}
}

func (envContractFeeder) feedHTTPServer(cfg *httpserver.HTTPServerConfig) error {
	if addr := os.Getenv("HTTP_ADDRESS"); addr != "" {
		cfg.Host = addr
	}
	if cfg.Host == "" {
		return fmt.Errorf("%w: HTTP_ADDRESS", ErrMissingEnv)
	}
	if port := os.Getenv("HTTP_PORT"); port != "" {
		p, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return fmt.Errorf("invalid HTTP_PORT %q: %w", port, err)
		}
		cfg.Port = int(p)
	}
	if cfg.Port == 0 {
		return fmt.Errorf("%w: HTTP_PORT", ErrMissingEnv)
	}
	return nil
}

func (envContractFeeder) feedDatabase(cfg *database.Config) error {
	if cfg.Default == "" {
		cfg.Default = "default"
	}
	if cfg.Connections == nil {
		cfg.Connections = make(map[string]*database.ConnectionConfig)
	}
	conn := cfg.Connections[cfg.Default]
	if conn == nil {
		conn = &database.ConnectionConfig{}
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		conn.DSN = dsn
	}
	if conn.DSN == "" {
		return fmt.Errorf("%w: DATABASE_URL", ErrMissingEnv)
	}
	if conn.Driver == "" {
		conn.Driver = "postgres"
	}

	workers, perWorker, err := workerEnv()
	if err != nil {
		return err
	}
	if workers > 0 && perWorker > 0 {
		conn.MaxOpenConnections = workers * perWorker
	}

	cfg.Connections[cfg.Default] = conn
	return nil
}

func (envContractFeeder) feedPersistence(cfg *persistence.Config) error {
	workers, perWorker, err := workerEnv()
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if cfg.Workers == 0 {
		return fmt.Errorf("%w: MAX_WORKER", ErrMissingEnv)
	}
	if perWorker > 0 {
		cfg.MaxConnsPerWorker = perWorker
	}
	if cfg.MaxConnsPerWorker == 0 {
		return fmt.Errorf("%w: DB_POOL_MAX_CONNECTIONS_THREAD", ErrMissingEnv)
	}

	if v := os.Getenv("ENABLE_MIGRATIONS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ENABLE_MIGRATIONS %q: %w", v, err)
		}
		cfg.EnableMigrations = enabled
	}
	return nil
}

func (envContractFeeder) feedBroker(cfg *broker.Config) error {
	if v := os.Getenv("EVENT_QUEUE_CAPACITY"); v != "" {
		capacity, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid EVENT_QUEUE_CAPACITY %q: %w", v, err)
		}
		cfg.EventQueueCapacity = capacity
	}
	if v := os.Getenv("EVENT_QUEUE_OVERFLOW"); v != "" {
		cfg.EventQueueOverflow = v
	}
	return nil
}

func workerEnv() (workers, perWorker int, err error) {
	if v := os.Getenv("MAX_WORKER"); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid MAX_WORKER %q: %w", v, err)
		}
		workers = int(n)
	}
	if v := os.Getenv("DB_POOL_MAX_CONNECTIONS_THREAD"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid DB_POOL_MAX_CONNECTIONS_THREAD %q: %w", v, err)
		}
		perWorker = int(n)
	}
	return workers, perWorker, nil
}
