package persistence

import "fmt"

// Config holds the write-behind pipeline settings, registered as the
// "persistence" config section.
type Config struct {
	// Workers is the number of goroutines draining the event queue. Required:
	// fed from yaml or the MAX_WORKER environment variable.
	Workers int `json:"workers" yaml:"workers" env:"MAX_WORKER" desc:"Number of workers draining the persistence event queue"`

	// MaxConnsPerWorker is each worker's database connection budget. The
	// shared pool is sized to Workers * MaxConnsPerWorker open connections.
	// Required: fed from yaml or DB_POOL_MAX_CONNECTIONS_THREAD.
	MaxConnsPerWorker int `json:"maxConnsPerWorker" yaml:"maxConnsPerWorker" env:"DB_POOL_MAX_CONNECTIONS_THREAD" desc:"Database connections budgeted per worker"`

	// EnableMigrations runs the schema migrations on startup.
	EnableMigrations bool `json:"enableMigrations" yaml:"enableMigrations" default:"false" env:"ENABLE_MIGRATIONS" desc:"Run schema migrations on startup"`
}

// Validate implements modular.ConfigValidator.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	if c.MaxConnsPerWorker < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPoolSize, c.MaxConnsPerWorker)
	}
	return nil
}
