package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nvxtech/hidroweb-go/hidroweb"
	"github.com/nvxtech/hidroweb-go/internal/api/schema"
	"github.com/nvxtech/hidroweb-go/internal/archive"
	"github.com/nvxtech/hidroweb-go/internal/config"
	"github.com/nvxtech/hidroweb-go/internal/inventory"
	"github.com/nvxtech/hidroweb-go/internal/timedcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUpstream struct {
	seriesCalls int
	seriesErr   error
}

func (stub *stubUpstream) Basins(_ context.Context, _ *hidroweb.BasinFilter) ([]hidroweb.Basin, error) {
	return []hidroweb.Basin{{Code: "1", Name: "RIO AMAZONAS"}}, nil
}

func (stub *stubUpstream) Stations(_ context.Context, _ *hidroweb.StationFilter) ([]hidroweb.Station, error) {
	return []hidroweb.Station{
		{Code: "00000001", Name: "a", State: "SP"},
		{Code: "00000002", Name: "b", State: "MG"},
	}, nil
}

func (stub *stubUpstream) Series(_ context.Context, _ hidroweb.SeriesKind, _, _, _ string) ([]hidroweb.SeriesPoint, error) {
	stub.seriesCalls++
	if stub.seriesErr != nil {
		return nil, stub.seriesErr
	}
	return []hidroweb.SeriesPoint{
		{Date: "2024-01-01", Value: hidroweb.Value{Float: 1.5, Valid: true}},
	}, nil
}

type stubArchive struct {
	storeCalls   int
	storeErr     error
	storedKind   hidroweb.SeriesKind
	storedCode   string
	storedPoints []hidroweb.SeriesPoint

	measurements []*archive.Measurement
}

var _ archive.Repository = (*stubArchive)(nil)

func (stub *stubArchive) Store(_ context.Context, kind hidroweb.SeriesKind, stationCode string, points []hidroweb.SeriesPoint) (int, error) {
	stub.storeCalls++
	if stub.storeErr != nil {
		return 0, stub.storeErr
	}
	stub.storedKind = kind
	stub.storedCode = stationCode
	stub.storedPoints = points
	return len(points), nil
}

func (stub *stubArchive) GetByFilter(_ context.Context, filter *archive.Filter, _ uint64) ([]*archive.Measurement, error) {
	objs := []*archive.Measurement{}
	for _, obj := range stub.measurements {
		if filter.StationCode != nil && obj.StationCode != *filter.StationCode {
			continue
		}
		if filter.Kind != nil && obj.Kind != *filter.Kind {
			continue
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func newTestService(t *testing.T) (*Service, *stubUpstream, *httptest.Server) {
	t.Helper()

	index, err := inventory.New()
	require.NoError(t, err)

	upstream := &stubUpstream{}
	service := &Service{
		Config:      &config.Config{},
		Upstream:    upstream,
		Inventory:   index,
		SeriesCache: timedcache.New[string, []hidroweb.SeriesPoint](time.Minute),
		writer: &schema.Writer{
			InternalErrorHook: func(err error) {
				t.Errorf("unexpected internal error: %v", err)
			},
		},
	}
	require.NoError(t, service.RefreshInventory(context.Background()))

	router := chi.NewRouter()
	router.Get("/v1/basins", service.EndpointGetBasins)
	router.Get("/v1/stations", service.EndpointGetStations)
	router.Get("/v1/stations/{code}", service.EndpointGetStation)
	router.Get("/v1/series/{kind}/{code}", service.EndpointGetSeries)
	router.Get("/v1/archive/{kind}/{code}", service.EndpointGetArchive)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return service, upstream, server
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	response, err := http.Get(url)
	require.NoError(t, err)
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	return response.StatusCode, body
}

func TestEndpointGetStations(t *testing.T) {
	_, _, server := newTestService(t)

	status, body := get(t, server.URL+"/v1/stations")
	require.Equal(t, http.StatusOK, status)

	var response Page[hidroweb.Station]
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, uint64(2), response.TotalCount)
	assert.Len(t, response.Data, 2)

	status, body = get(t, server.URL+"/v1/stations?state=sp")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &response))
	require.Len(t, response.Data, 1)
	assert.Equal(t, "00000001", response.Data[0].Code)

	status, _ = get(t, server.URL+"/v1/stations?limit=not-a-number")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestEndpointGetStation(t *testing.T) {
	_, _, server := newTestService(t)

	status, body := get(t, server.URL+"/v1/stations/00000001")
	require.Equal(t, http.StatusOK, status)
	var station hidroweb.Station
	require.NoError(t, json.Unmarshal(body, &station))
	assert.Equal(t, "a", station.Name)

	status, _ = get(t, server.URL+"/v1/stations/99999999")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get(t, server.URL+"/v1/stations/123")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestEndpointGetSeries(t *testing.T) {
	_, upstream, server := newTestService(t)

	url := server.URL + "/v1/series/vazao/00000001?start=2024-01-01&end=2024-01-31"
	status, body := get(t, url)
	require.Equal(t, http.StatusOK, status)
	var points []hidroweb.SeriesPoint
	require.NoError(t, json.Unmarshal(body, &points))
	require.Len(t, points, 1)
	assert.Equal(t, 1, upstream.seriesCalls)

	// The second identical request is served from the cache
	status, _ = get(t, url)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, upstream.seriesCalls)
}

func TestEndpointGetSeries_Validation(t *testing.T) {
	_, upstream, server := newTestService(t)

	tests := []string{
		"/v1/series/snow/00000001?start=2024-01-01&end=2024-01-31",
		"/v1/series/vazao/123?start=2024-01-01&end=2024-01-31",
		"/v1/series/vazao/00000001?end=2024-01-31",
		"/v1/series/vazao/00000001?start=2024-01-01",
		"/v1/series/vazao/00000001?start=2024-02-01&end=2024-01-01",
		"/v1/series/vazao/00000001?start=whenever&end=2024-01-31",
	}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			status, _ := get(t, server.URL+path)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
	assert.Equal(t, 0, upstream.seriesCalls)
}

func TestEndpointGetSeries_UpstreamErrors(t *testing.T) {
	service, upstream, server := newTestService(t)
	service.writer.InternalErrorHook = func(error) {}

	upstream.seriesErr = &hidroweb.ConnectionError{Attempts: 4, Last: fmt.Errorf("connection refused")}
	status, _ := get(t, server.URL+"/v1/series/vazao/00000001?start=2024-01-01&end=2024-01-31")
	assert.Equal(t, http.StatusBadGateway, status)

	upstream.seriesErr = &hidroweb.APIError{StatusCode: 500, Message: "boom"}
	status, _ = get(t, server.URL+"/v1/series/chuva/00000001?start=2024-01-01&end=2024-01-31")
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestEndpointGetSeries_ArchiveWriteThrough(t *testing.T) {
	service, upstream, server := newTestService(t)
	stub := &stubArchive{}
	service.Archive = stub

	url := server.URL + "/v1/series/vazao/00000001?start=2024-01-01&end=2024-01-31"
	status, _ := get(t, url)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, stub.storeCalls)
	assert.Equal(t, hidroweb.SeriesFlow, stub.storedKind)
	assert.Equal(t, "00000001", stub.storedCode)
	require.Len(t, stub.storedPoints, 1)
	assert.Equal(t, "2024-01-01", stub.storedPoints[0].Date)

	// A cache hit reaches neither the upstream nor the archive
	status, _ = get(t, url)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, upstream.seriesCalls)
	assert.Equal(t, 1, stub.storeCalls)
}

func TestEndpointGetSeries_ArchiveErrorDoesNotFailResponse(t *testing.T) {
	service, _, server := newTestService(t)
	service.Archive = &stubArchive{storeErr: fmt.Errorf("connection reset")}

	status, body := get(t, server.URL+"/v1/series/vazao/00000001?start=2024-01-01&end=2024-01-31")
	require.Equal(t, http.StatusOK, status)
	var points []hidroweb.SeriesPoint
	require.NoError(t, json.Unmarshal(body, &points))
	assert.Len(t, points, 1)
}

func TestEndpointGetArchive(t *testing.T) {
	service, _, server := newTestService(t)

	// The endpoint is disabled as long as no archive is configured
	status, _ := get(t, server.URL+"/v1/archive/vazao/00000001")
	assert.Equal(t, http.StatusNotFound, status)

	service.Archive = &stubArchive{measurements: []*archive.Measurement{
		{StationCode: "00000001", Kind: "vazao", MeasuredAt: "2024-01-01"},
		{StationCode: "00000001", Kind: "chuva", MeasuredAt: "2024-01-02"},
		{StationCode: "00000002", Kind: "vazao", MeasuredAt: "2024-01-03"},
	}}

	status, body := get(t, server.URL+"/v1/archive/vazao/00000001")
	require.Equal(t, http.StatusOK, status)
	var measurements []*archive.Measurement
	require.NoError(t, json.Unmarshal(body, &measurements))
	require.Len(t, measurements, 1)
	assert.Equal(t, "2024-01-01", measurements[0].MeasuredAt)
}

func TestEndpointGetArchive_Validation(t *testing.T) {
	service, _, server := newTestService(t)
	service.Archive = &stubArchive{}

	tests := []string{
		"/v1/archive/snow/00000001",
		"/v1/archive/vazao/123",
		"/v1/archive/vazao/00000001?before=whenever",
		"/v1/archive/vazao/00000001?after=whenever",
		"/v1/archive/vazao/00000001?limit=not-a-number",
	}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			status, _ := get(t, server.URL+path)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestEndpointGetBasins(t *testing.T) {
	_, _, server := newTestService(t)

	status, body := get(t, server.URL+"/v1/basins")
	require.Equal(t, http.StatusOK, status)
	var basins []hidroweb.Basin
	require.NoError(t, json.Unmarshal(body, &basins))
	require.Len(t, basins, 1)
	assert.Equal(t, "RIO AMAZONAS", basins[0].Name)
}
