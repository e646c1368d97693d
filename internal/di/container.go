package di

import (
	"log/slog"
	"time"

	"github.com/samber/do/v2"
	"github.com/samber/oops"

	"feedsensor/internal/modules/feed/fetch"
	sensorRepo "feedsensor/internal/modules/sensor/repository"
	sensorService "feedsensor/internal/modules/sensor/service"
	"feedsensor/internal/shared/config"
	httpServer "feedsensor/internal/transport/http"
)

// Service names for dependency injection
const (
	ServiceConfig        = "config"
	ServiceFetcher       = "fetcher"
	ServiceSensorRepo    = "sensor-repository"
	ServiceSensorService = "sensor-service"
	ServiceHTTPServer    = "http-server"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register feed fetcher
	do.Provide(injector, func(i do.Injector) (*fetch.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return fetch.New(time.Duration(cfg.FetchTimeout) * time.Second), nil
	})

	// Register sensor repository
	do.Provide(injector, func(i do.Injector) (sensorRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := sensorRepo.NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to initialize storage").Wrap(err)
		}
		return repo, nil
	})

	// Register sensor service
	do.Provide(injector, func(i do.Injector) (*sensorService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[sensorRepo.Repository](i)
		fetcher := do.MustInvoke[*fetch.Client](i)
		return sensorService.New(cfg, repo, fetcher), nil
	})

	// Register HTTP server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		sensors := do.MustInvoke[*sensorService.Service](i)
		server := httpServer.New(cfg, sensors)
		// Set logger from default slog
		server.SetLogger(slog.Default())
		return server, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	// Stop the sensor service if it exists
	if sensors, err := do.Invoke[*sensorService.Service](injector); err == nil && sensors != nil {
		sensors.Stop()
	}

	return nil
}
