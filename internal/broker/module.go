package broker

import (
	"fmt"

	"github.com/GoCodeAlone/modular"
)

// Name is the module name.
const Name = "broker"

// ServiceName is the service the engine is registered under.
const ServiceName = "broker.service"

// Module wires the broker engine into a modular application. It registers the
// "broker" config section and provides the engine as the "broker.service"
// service consumed by the httpapi and persistence modules.
type Module struct {
	config *Config
	broker *Broker
}

// NewModule creates the broker module.
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

// Init builds the engine from the fed configuration.
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
	m.broker = New(cfg, app.Logger())

	app.Logger().Info("broker engine initialized",
		"queue_capacity", cfg.EventQueueCapacity, "queue_overflow", cfg.EventQueueOverflow)
	return nil
}

// Dependencies returns the names of modules this module depends on.
func (m *Module) Dependencies() []string {
	return nil
}

// ProvidesServices declares services provided by this module.
func (m *Module) ProvidesServices() []modular.ServiceProvider {
	return []modular.ServiceProvider{
		{
			Name:        ServiceName,
			Description: "In-memory pub/sub broker engine",
			Instance:    m.broker,
		},
	}
}

// RequiresServices declares services required by this module.
func (m *Module) RequiresServices() []modular.ServiceDependency {
	return nil
}

// Broker returns the engine instance. Nil before Init.
func (m *Module) Broker() *Broker {
	return m.broker
}
