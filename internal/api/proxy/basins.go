package proxy

import (
	"net/http"
)

// EndpointGetBasins handles the 'GET /v1/basins' endpoint
func (service *Service) EndpointGetBasins(writer http.ResponseWriter, request *http.Request) {
	basins, err := service.Inventory.Basins()
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	service.writer.WriteJSON(writer, basins)
}
