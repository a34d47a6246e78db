package proxy

import (
	"github.com/go-chi/chi/v5"
	"github.com/nvxtech/hidroweb-go/hidroweb"
	"github.com/nvxtech/hidroweb-go/internal/api/schema"
	"github.com/nvxtech/hidroweb-go/internal/api/validation"
	"github.com/nvxtech/hidroweb-go/internal/archive"
	"net/http"
)

var errArchiveDisabled = &schema.Error{
	Type:    "proxy.archive.disabled",
	Message: "No measurement archive is configured.",
	Details: map[string]interface{}{},
}

// EndpointGetArchive handles the 'GET /v1/archive/{kind}/{code}?before={date?}&after={date?}&limit={number?:100}' endpoint.
// It serves previously archived measurements, so consumers can keep reading
// data while the upstream service is unreachable.
func (service *Service) EndpointGetArchive(writer http.ResponseWriter, request *http.Request) {
	if service.Archive == nil {
		service.writer.WriteErrors(writer, http.StatusNotFound, errArchiveDisabled)
		return
	}

	kind, err := hidroweb.ParseSeriesKind(chi.URLParam(request, "kind"))
	if err != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, errInvalidInput(err.Error()))
		return
	}

	code := chi.URLParam(request, "code")
	if err := hidroweb.ValidateStationCode(code); err != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, errInvalidInput(err.Error()))
		return
	}

	var validationErrs []*schema.Error
	before, validationErr := validation.QueryDate(request, "before", false)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}
	after, validationErr := validation.QueryDate(request, "after", false)
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

	kindStr := string(kind)
	filter := &archive.Filter{
		StationCode: &code,
		Kind:        &kindStr,
	}
	if before != "" {
		filter.Before = &before
	}
	if after != "" {
		filter.After = &after
	}

	measurements, err := service.Archive.GetByFilter(request.Context(), filter, uint64(limit))
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	service.writer.WriteJSON(writer, measurements)
}
