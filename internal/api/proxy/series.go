package proxy

import (
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/nvxtech/hidroweb-go/hidroweb"
	"github.com/nvxtech/hidroweb-go/internal/api/schema"
	"github.com/nvxtech/hidroweb-go/internal/api/validation"
	"github.com/rs/zerolog/log"
	"net/http"
)

// EndpointGetSeries handles the 'GET /v1/series/{kind}/{code}?start={date}&end={date}' endpoint
func (service *Service) EndpointGetSeries(writer http.ResponseWriter, request *http.Request) {
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
	start, validationErr := validation.QueryDate(request, "start", true)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}
	end, validationErr := validation.QueryDate(request, "end", true)
	if validationErr != nil {
		validationErrs = append(validationErrs, validationErr)
	}
	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}
	if _, _, err := hidroweb.ValidateDateRange(start, end); err != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, errInvalidInput(err.Error()))
		return
	}

	// Serve from the cache if the exact same window was fetched recently
	cacheKey := fmt.Sprintf("%s/%s/%s/%s", kind, code, start, end)
	if points, ok := service.SeriesCache.Lookup(cacheKey); ok {
		service.writer.WriteJSON(writer, points)
		return
	}

	points, err := service.Upstream.Series(request.Context(), kind, code, start, end)
	if err != nil {
		service.writeUpstreamError(writer, err)
		return
	}
	service.SeriesCache.Set(cacheKey, points)

	if service.Archive != nil {
		stored, err := service.Archive.Store(request.Context(), kind, code, points)
		if err != nil {
			log.Error().Err(err).Str("station", code).Msg("could not archive series points")
		} else if stored > 0 {
			log.Debug().Int("amount", stored).Str("station", code).Msg("archived series points")
		}
	}

	service.writer.WriteJSON(writer, points)
}
