// Package hidroweb implements a client for the Hidroweb REST service of the
// Brazilian National Water Agency (ANA), serving hydrological and
// pluviometric data of the national monitoring station network.
package hidroweb

import (
	"context"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client represents an authenticated Hidroweb API client.
// A client is safe for concurrent use; concurrent calls share one session and
// one underlying connection pool.
type Client struct {
	config  *Config
	http    *http.Client
	session *session
	logger  zerolog.Logger

	// sleep and backoffBase drive the retry loop and are swapped out in tests
	sleep       func(time.Duration)
	backoffBase time.Duration
}

// New creates a new client using the given configuration.
// If config is nil, the configuration is loaded from the environment.
func New(config *Config) (*Client, error) {
	if config == nil {
		loaded, err := LoadConfigFromEnv()
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if config.MaxRetries < 0 {
		return nil, &ValidationError{Field: "max retries", Message: "may not be negative"}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil || !baseURL.IsAbs() {
		return nil, &ValidationError{Field: "base URL", Message: "not an absolute URL"}
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
	}
	return &Client{
		config: config,
		http:   httpClient,
		session: &session{
			http:     httpClient,
			baseURL:  baseURL,
			user:     config.User,
			password: config.Password,
		},
		logger:      zerolog.Nop(),
		sleep:       time.Sleep,
		backoffBase: time.Second,
	}, nil
}

// SetLogger attaches a logger the client emits request, retry and
// re-authentication events to at debug level
func (client *Client) SetLogger(logger zerolog.Logger) {
	client.logger = logger
}

// TokenSource exposes the client's session as an oauth2.TokenSource
func (client *Client) TokenSource() oauth2.TokenSource {
	return client.session
}

// Close releases the underlying connection pool.
// The client must not be used afterwards.
func (client *Client) Close() {
	client.http.CloseIdleConnections()
}

// Basins retrieves the hydrographic basin inventory
func (client *Client) Basins(ctx context.Context, filter *BasinFilter) ([]Basin, error) {
	params, err := filter.values()
	if err != nil {
		return nil, err
	}
	envelope, err := client.Fetch(ctx, "HidroBacia/v1", params)
	if err != nil {
		return nil, err
	}
	return decodeItems[Basin](envelope, "HidroBacia/v1")
}

// Entities retrieves the inventory of organizations operating stations
func (client *Client) Entities(ctx context.Context, filter *EntityFilter) ([]Entity, error) {
	params, err := filter.values()
	if err != nil {
		return nil, err
	}
	envelope, err := client.Fetch(ctx, "HidroEntidade/v1", params)
	if err != nil {
		return nil, err
	}
	return decodeItems[Entity](envelope, "HidroEntidade/v1")
}

// Stations retrieves the monitoring station inventory
func (client *Client) Stations(ctx context.Context, filter *StationFilter) ([]Station, error) {
	params, err := filter.values()
	if err != nil {
		return nil, err
	}
	envelope, err := client.Fetch(ctx, "HidroInventarioEstacoes/v1", params)
	if err != nil {
		return nil, err
	}
	return decodeItems[Station](envelope, "HidroInventarioEstacoes/v1")
}

// Series retrieves the dated measurements of one station and one measurement
// kind within the given date range.
// The dates are accepted in any of the supported layouts.
func (client *Client) Series(ctx context.Context, kind SeriesKind, stationCode, start, end string) ([]SeriesPoint, error) {
	endpoint, err := kind.endpoint()
	if err != nil {
		return nil, err
	}
	if err := ValidateStationCode(stationCode); err != nil {
		return nil, err
	}
	normalizedStart, normalizedEnd, err := ValidateDateRange(start, end)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("Código da Estação", strings.TrimSpace(stationCode))
	params.Set("Data Inicial (yyyy-MM-dd)", normalizedStart)
	params.Set("Data Final (yyyy-MM-dd)", normalizedEnd)

	envelope, err := client.Fetch(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	return decodeItems[SeriesPoint](envelope, endpoint)
}

// BasinsTable retrieves the hydrographic basin inventory as a table
func (client *Client) BasinsTable(ctx context.Context, filter *BasinFilter) (*Table, error) {
	params, err := filter.values()
	if err != nil {
		return nil, err
	}
	return client.fetchTable(ctx, "HidroBacia/v1", params)
}

// EntitiesTable retrieves the entity inventory as a table
func (client *Client) EntitiesTable(ctx context.Context, filter *EntityFilter) (*Table, error) {
	params, err := filter.values()
	if err != nil {
		return nil, err
	}
	return client.fetchTable(ctx, "HidroEntidade/v1", params)
}

// StationsTable retrieves the monitoring station inventory as a table
func (client *Client) StationsTable(ctx context.Context, filter *StationFilter) (*Table, error) {
	params, err := filter.values()
	if err != nil {
		return nil, err
	}
	return client.fetchTable(ctx, "HidroInventarioEstacoes/v1", params)
}

// SeriesTable retrieves the dated measurements of one station and one
// measurement kind as a table
func (client *Client) SeriesTable(ctx context.Context, kind SeriesKind, stationCode, start, end string) (*Table, error) {
	endpoint, err := kind.endpoint()
	if err != nil {
		return nil, err
	}
	if err := ValidateStationCode(stationCode); err != nil {
		return nil, err
	}
	normalizedStart, normalizedEnd, err := ValidateDateRange(start, end)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("Código da Estação", strings.TrimSpace(stationCode))
	params.Set("Data Inicial (yyyy-MM-dd)", normalizedStart)
	params.Set("Data Final (yyyy-MM-dd)", normalizedEnd)
	return client.fetchTable(ctx, endpoint, params)
}

func (client *Client) fetchTable(ctx context.Context, endpoint string, params url.Values) (*Table, error) {
	envelope, err := client.Fetch(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	return envelope.Table()
}
