// Package proxy implements a small caching HTTP front for the upstream
// Hidroweb service, so local consumers can query one fast endpoint instead of
// hitting the agency for every lookup.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nvxtech/hidroweb-go/hidroweb"
	"github.com/nvxtech/hidroweb-go/internal/api/schema"
	"github.com/nvxtech/hidroweb-go/internal/archive"
	"github.com/nvxtech/hidroweb-go/internal/config"
	"github.com/nvxtech/hidroweb-go/internal/inventory"
	"github.com/nvxtech/hidroweb-go/internal/timedcache"
	"github.com/rs/zerolog/log"
	"net/http"
)

// Upstream defines the subset of the SDK client the proxy relies on
type Upstream interface {
	Basins(ctx context.Context, filter *hidroweb.BasinFilter) ([]hidroweb.Basin, error)
	Stations(ctx context.Context, filter *hidroweb.StationFilter) ([]hidroweb.Station, error)
	Series(ctx context.Context, kind hidroweb.SeriesKind, stationCode, start, end string) ([]hidroweb.SeriesPoint, error)
}

// Service represents the proxy API service
type Service struct {
	server *http.Server

	Config      *config.Config
	Upstream    Upstream
	Inventory   *inventory.Index
	SeriesCache *timedcache.Cache[string, []hidroweb.SeriesPoint]

	// Archive is optional; series responses are persisted when it is set
	Archive archive.Repository

	writer *schema.Writer
}

// Startup starts up the proxy API
func (service *Service) Startup() error {
	// Create the HTTP schema writer
	service.writer = &schema.Writer{
		InternalErrorHook: func(err error) {
			log.Error().Err(err).Msg("the proxy API experienced an unexpected error")
		},
	}

	// Create the HTTP router
	router := chi.NewRouter()
	router.Use(middleware.RedirectSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://*", "https://*"},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowedHeaders: []string{"*"},
	}))
	router.NotFound(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusMethodNotAllowed, schema.ErrMethodNotAllowed)
	})

	// Register the API endpoint handlers
	router.Get("/v1/basins", service.EndpointGetBasins)
	router.Get("/v1/stations", service.EndpointGetStations)
	router.Get("/v1/stations/{code}", service.EndpointGetStation)
	router.Get("/v1/series/{kind}/{code}", service.EndpointGetSeries)
	router.Get("/v1/archive/{kind}/{code}", service.EndpointGetArchive)

	// Start up the server
	server := &http.Server{
		Addr:    service.Config.ListenAddress,
		Handler: router,
	}
	service.server = server
	return server.ListenAndServe()
}

// Shutdown shuts down the proxy API
func (service *Service) Shutdown() {
	if service.server != nil {
		service.server.Close()
		service.server = nil
	}
}

// RefreshInventory replaces the station and basin snapshots with fresh
// upstream data
func (service *Service) RefreshInventory(ctx context.Context) error {
	stations, err := service.Upstream.Stations(ctx, nil)
	if err != nil {
		return err
	}
	if err := service.Inventory.ReplaceStations(stations); err != nil {
		return err
	}

	basins, err := service.Upstream.Basins(ctx, nil)
	if err != nil {
		return err
	}
	return service.Inventory.ReplaceBasins(basins)
}

var (
	errUpstreamUnavailable = func(attempts int) *schema.Error {
		return &schema.Error{
			Type:    "proxy.upstream.unavailable",
			Message: "The upstream service could not be reached.",
			Details: map[string]interface{}{
				"attempts": attempts,
			},
		}
	}
	errUpstreamRejected = func(status int, message string) *schema.Error {
		return &schema.Error{
			Type:    "proxy.upstream.rejected",
			Message: fmt.Sprintf("The upstream service rejected the request: %s", message),
			Details: map[string]interface{}{
				"upstream_status": status,
			},
		}
	}
	errInvalidInput = func(message string) *schema.Error {
		return &schema.Error{
			Type:    "validation.input",
			Message: message,
			Details: map[string]interface{}{},
		}
	}
)

// writeUpstreamError maps an SDK error onto the proxy's error schema
func (service *Service) writeUpstreamError(rw http.ResponseWriter, err error) {
	var connErr *hidroweb.ConnectionError
	if errors.As(err, &connErr) {
		service.writer.WriteErrors(rw, http.StatusBadGateway, errUpstreamUnavailable(connErr.Attempts))
		return
	}
	var apiErr *hidroweb.APIError
	if errors.As(err, &apiErr) {
		service.writer.WriteErrors(rw, http.StatusBadGateway, errUpstreamRejected(apiErr.StatusCode, apiErr.Message))
		return
	}
	var authErr *hidroweb.AuthenticationError
	if errors.As(err, &authErr) {
		service.writer.WriteErrors(rw, http.StatusBadGateway, errUpstreamRejected(authErr.StatusCode, "authentication failed"))
		return
	}
	var validationErr *hidroweb.ValidationError
	if errors.As(err, &validationErr) {
		service.writer.WriteErrors(rw, http.StatusBadRequest, errInvalidInput(validationErr.Error()))
		return
	}
	service.writer.WriteInternalError(rw, err)
}
