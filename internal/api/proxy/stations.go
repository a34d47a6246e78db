package proxy

import (
	"github.com/go-chi/chi/v5"
	"github.com/nvxtech/hidroweb-go/hidroweb"
	"github.com/nvxtech/hidroweb-go/internal/api/schema"
	"github.com/nvxtech/hidroweb-go/internal/api/validation"
	"math"
	"net/http"
	"strings"
)

// EndpointGetStations handles the 'GET /v1/stations?state={string?}&basin={string?}&offset={number?:0}&limit={number?:100}' endpoint
func (service *Service) EndpointGetStations(writer http.ResponseWriter, request *http.Request) {
	var validationErrs []*schema.Error

	state := strings.ToUpper(strings.TrimSpace(request.URL.Query().Get("state")))
	basin := strings.TrimSpace(request.URL.Query().Get("basin"))

	offset, validationErr := validation.QueryNumber(request, "offset", false, 0, 0, math.MaxInt64)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}

	limit, validationErr := validation.QueryNumber(request, "limit", false, 100, 1, 1000)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}

	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}

	stations, err := service.Inventory.Stations(state, basin)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}

	service.writer.WriteJSON(writer, NewPage(stations, uint64(offset), uint64(limit)))
}

// EndpointGetStation handles the 'GET /v1/stations/{code}' endpoint
func (service *Service) EndpointGetStation(writer http.ResponseWriter, request *http.Request) {
	code := chi.URLParam(request, "code")
	if err := hidroweb.ValidateStationCode(code); err != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, errInvalidInput(err.Error()))
		return
	}

	station, err := service.Inventory.StationByCode(code)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if station == nil {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
		return
	}
	service.writer.WriteJSON(writer, station)
}
