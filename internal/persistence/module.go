package persistence

import (
	"context"
	"fmt"

	"github.com/GoCodeAlone/modular"
	"github.com/GoCodeAlone/modular/modules/database"

	"github.com/f-str/radishmq/internal/broker"
)

// Name is the module name.
const Name = "persistence"

// Module wires the write-behind pipeline into a modular application: it takes
// the broker engine and the database service, runs the schema migrations when
// enabled, and drives the worker pool over the broker's event queue.
type Module struct {
	config *Config
	logger modular.Logger

	broker *broker.Broker
	db     database.DatabaseService

	store Store
	pool  *WorkerPool
}

// NewModule creates the persistence module.
func NewModule() *Module {
	return &Module{}
}

// Name returns the name of the module.
func (m *Module) Name() string {
	return Name
}

// RegisterConfig registers the module's configuration structure.
func (m *Module) RegisterConfig(app modular.Application) error {
	app.RegisterConfigSection(m.Name(), modular.NewStdConfigProvider(&Config{}))
	return nil
}

// Dependencies returns the names of modules this module depends on.
func (m *Module) Dependencies() []string {
	return []string{broker.Name, database.Name}
}

// RequiresServices declares services required by this module.
func (m *Module) RequiresServices() []modular.ServiceDependency {
	return []modular.ServiceDependency{
		{Name: broker.ServiceName, Required: true},
		{Name: "database.service", Required: true},
	}
}

// ProvidesServices declares services provided by this module.
func (m *Module) ProvidesServices() []modular.ServiceProvider {
	return []modular.ServiceProvider{
		{
			Name:        "persistence.store",
			Description: "Durable store adapter for broker events",
			Instance:    m.store,
		},
	}
}

// Constructor provides a dependency injection constructor for the module.
func (m *Module) Constructor() modular.ModuleConstructor {
	return func(app modular.Application, services map[string]any) (modular.Module, error) {
		engine, ok := services[broker.ServiceName].(*broker.Broker)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, broker.ServiceName)
		}
		db, ok := services["database.service"].(database.DatabaseService)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, "database.service")
		}
		return &Module{broker: engine, db: db}, nil
	}
}

// Init builds the store adapter and the worker pool from configuration.
func (m *Module) Init(app modular.Application) error {
	provider, err := app.GetConfigSection(m.Name())
	if err != nil {
		return fmt.Errorf("failed to get config section: %w", err)
	}
	cfg, ok := provider.GetConfig().(*Config)
	if !ok {
		return ErrInvalidConfigType
	}
	m.config = cfg
	m.logger = app.Logger()

	m.store = NewSQLStore(m.db, m.logger)
	m.pool = NewWorkerPool(cfg.Workers, m.broker.Events(), m.store, m.logger)

	m.logger.Info("persistence pipeline initialized",
		"workers", cfg.Workers,
		"max_conns", cfg.Workers*cfg.MaxConnsPerWorker,
		"migrations", cfg.EnableMigrations)
	return nil
}

// Start runs migrations when enabled and spawns the worker pool.
func (m *Module) Start(ctx context.Context) error {
	if m.config.EnableMigrations {
		if err := RunMigrations(ctx, m.db, m.logger); err != nil {
			return err
		}
	}
	return m.pool.Start(ctx)
}

// Stop drains and stops the worker pool.
func (m *Module) Stop(ctx context.Context) error {
	return m.pool.Stop(ctx)
}
