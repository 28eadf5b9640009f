// radishmq is an in-memory publish/subscribe broker with two topic flavors:
// fan-out message topics with per-subscriber read cursors and
// single-consumption task topics. Topic and membership metadata is mirrored
// to Postgres through a write-behind worker pool; payload bodies live only in
// memory.
package main

import (
	"log/slog"
	"os"

	"github.com/GoCodeAlone/modular"
	"github.com/GoCodeAlone/modular/feeders"
	"github.com/GoCodeAlone/modular/modules/chimux"
	"github.com/GoCodeAlone/modular/modules/database"
	"github.com/GoCodeAlone/modular/modules/httpserver"

	"github.com/f-str/radishmq/internal/broker"
	"github.com/f-str/radishmq/internal/httpapi"
	"github.com/f-str/radishmq/internal/persistence"

	// Postgres driver for the database module.
	_ "github.com/lib/pq"
)

// AppConfig is the main application configuration.
type AppConfig struct {
	Name string `yaml:"name" default:"radishmq"`
}

func main() {
	configFeeders := []modular.Feeder{}
	if _, err := os.Stat("config.yaml"); err == nil {
		configFeeders = append(configFeeders, feeders.NewYamlFeeder("config.yaml"))
	}
	configFeeders = append(configFeeders, feeders.NewEnvFeeder(), newEnvContractFeeder())
	modular.ConfigFeeders = configFeeders

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	app := modular.NewStdApplication(
		modular.NewStdConfigProvider(&AppConfig{}),
		logger,
	)

	app.RegisterModule(chimux.NewChiMuxModule())
	app.RegisterModule(httpserver.NewHTTPServerModule())
	app.RegisterModule(database.NewModule())
	app.RegisterModule(broker.NewModule())
	app.RegisterModule(persistence.NewModule())
	app.RegisterModule(httpapi.NewModule())

	if err := app.Run(); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}
