package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/nvxtech/hidroweb-go/hidroweb"
	"github.com/nvxtech/hidroweb-go/internal/api/proxy"
	"github.com/nvxtech/hidroweb-go/internal/archive"
	"github.com/nvxtech/hidroweb-go/internal/config"
	"github.com/nvxtech/hidroweb-go/internal/inventory"
	"github.com/nvxtech/hidroweb-go/internal/timedcache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"net/http"
	"os"
	"os/signal"
	"time"
)

func main() {
	// Set up zerolog to use pretty printing
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	})
	log.Info().Msg("starting up...")

	// Load the daemon configuration
	log.Info().Msg("loading configuration...")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load the configuration")
	}
	if cfg.IsEnvProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Str("config", fmt.Sprintf("%+v", cfg)).Msg("")

	// Create the upstream SDK client using its own HIDROWEB_* environment surface
	client, err := hidroweb.New(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create the upstream client")
	}
	client.SetLogger(log.Logger)
	defer client.Close()

	// Initialize the optional PostgreSQL measurement archive
	var measurementArchive archive.Repository
	if cfg.PostgresDSN != "" {
		log.Info().Msg("initializing the measurement archive...")
		driver := archive.New(cfg.PostgresDSN)
		if err := driver.Initialize(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("could not initialize the measurement archive")
		}
		defer driver.Close()
		measurementArchive = driver
	}

	// Create the inventory index and the series cache
	index, err := inventory.New()
	if err != nil {
		log.Fatal().Err(err).Msg("could not create the inventory index")
	}
	seriesCache := timedcache.New[string, []hidroweb.SeriesPoint](cfg.SeriesCacheLifetime)
	seriesCache.ScheduleCleanupTask(time.Minute)
	defer seriesCache.StopCleanupTask()

	// Start up the proxy API
	log.Info().Str("proxy_api", cfg.ListenAddress).Msg("starting up the proxy API...")
	service := &proxy.Service{
		Config:      cfg,
		Upstream:    client,
		Inventory:   index,
		SeriesCache: seriesCache,
		Archive:     measurementArchive,
	}
	apiErrs := make(chan error, 1)
	go func() {
		if err := service.Startup(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			apiErrs <- err
		}
	}()
	go func() {
		err := <-apiErrs
		log.Fatal().Err(err).Msg("the proxy API raised an unexpected error")
	}()
	defer func() {
		log.Info().Msg("shutting down the proxy API...")
		service.Shutdown()
	}()

	// Fill the inventory and schedule its periodic refresh
	log.Info().Msg("fetching the initial inventory snapshot...")
	if err := service.RefreshInventory(context.Background()); err != nil {
		log.Error().Err(err).Msg("could not fetch the initial inventory snapshot")
	}
	refreshStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.InventoryRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := service.RefreshInventory(context.Background()); err != nil {
					log.Error().Err(err).Msg("could not refresh the inventory snapshot")
				} else {
					log.Info().Msg("refreshed the inventory snapshot")
				}
			case <-refreshStop:
				return
			}
		}
	}()
	defer close(refreshStop)

	log.Info().Msg("done!")
	defer log.Info().Msg("shutting down...")

	// Wait for the application to be terminated
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt)
	<-shutdown
}
