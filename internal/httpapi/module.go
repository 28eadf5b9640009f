// Package httpapi exposes the broker over HTTP. It registers the route tree
// on the chi router provided by the chimux module; the httpserver module
// serves it. Handlers translate broker sentinel errors into status codes and
// otherwise never surface engine internals.
package httpapi

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/GoCodeAlone/modular"
	"github.com/go-chi/chi/v5"

	"github.com/f-str/radishmq/internal/broker"
)

// Name is the module name.
const Name = "httpapi"

var ErrServiceNotFound = errors.New("required service not found or wrong type")

// Module registers the broker routes on the application router.
type Module struct {
	api *API
}

// NewModule creates the httpapi module.
func NewModule() *Module {
	return &Module{}
}

// Name returns the name of the module.
func (m *Module) Name() string {
	return Name
}

// Dependencies returns the names of modules this module depends on.
func (m *Module) Dependencies() []string {
	return []string{broker.Name, "chimux"}
}

// RequiresServices declares services required by this module.
func (m *Module) RequiresServices() []modular.ServiceDependency {
	return []modular.ServiceDependency{
		{Name: broker.ServiceName, Required: true},
		{
			Name:               "chi.router",
			Required:           true,
			MatchByInterface:   true,
			SatisfiesInterface: reflect.TypeOf((*chi.Router)(nil)).Elem(),
		},
	}
}

// ProvidesServices declares services provided by this module.
func (m *Module) ProvidesServices() []modular.ServiceProvider {
	return nil
}

// Constructor provides a dependency injection constructor for the module.
func (m *Module) Constructor() modular.ModuleConstructor {
	return func(app modular.Application, services map[string]any) (modular.Module, error) {
		engine, ok := services[broker.ServiceName].(*broker.Broker)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, broker.ServiceName)
		}
		router, ok := services["chi.router"].(chi.Router)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, "chi.router")
		}
		api := NewAPI(engine, app.Logger())
		api.Routes(router)
		return &Module{api: api}, nil
	}
}

// Init implements modular.Module. Route registration happens in the
// constructor, where the router is injected.
func (m *Module) Init(app modular.Application) error {
	app.Logger().Info("http api routes registered")
	return nil
}
