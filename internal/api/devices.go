package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/remotecam/internal/api/models"
)

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/v1/devices",
		Summary:     "List Devices",
		Description: "V4L2 capture devices present on this host",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(_ context.Context, _ *struct{}) (*models.DevicesResponse, error) {
		devices, err := s.options.ListDevices()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list devices", err)
		}
		return &models.DevicesResponse{Body: models.DevicesData{Devices: devices, Count: len(devices)}}, nil
	})
}
