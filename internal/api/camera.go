package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/image/draw"

	"github.com/smazurov/remotecam/internal/api/models"
	"github.com/smazurov/remotecam/internal/consumer"
	"github.com/smazurov/remotecam/internal/frame"
)

// JPEGQuality is used for images returned by the API.
const JPEGQuality = 85

// envelope converts a camera error into the response envelope. Timeouts
// and unexpected errors become HTTP errors instead.
func envelope(err error, failure string) (models.Envelope, error) {
	if err == nil {
		return models.Envelope{Success: true}, nil
	}

	var rejected *consumer.RejectedError
	switch {
	case errors.As(err, &rejected):
		return models.Envelope{Message: rejected.Message}, nil
	case errors.Is(err, consumer.ErrMalformedFrame):
		return models.Envelope{Message: failure}, nil
	case errors.Is(err, consumer.ErrTimeout):
		return models.Envelope{}, huma.Error504GatewayTimeout("Camera did not respond", err)
	default:
		return models.Envelope{}, huma.Error502BadGateway(failure, err)
	}
}

func (s *Server) registerCameraRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-image",
		Method:      http.MethodGet,
		Path:        "/api/v1/image",
		Summary:     "Get Image",
		Description: "Capture the next frame as a base64 JPEG, scaled when width and height are both given",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 502, 504},
	}, func(ctx context.Context, input *models.ImageInput) (*models.ImageResponse, error) {
		f, err := s.camera.Capture(ctx)
		env, err := envelope(err, "Failed to capture an image.")
		if err != nil || !env.Success {
			return &models.ImageResponse{Body: models.ImageData{Envelope: env}}, err
		}

		img, err := f.Image()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to convert frame", err)
		}
		encoded, size, err := encodeJPEG(img, input.Width, input.Height)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to encode image", err)
		}

		return &models.ImageResponse{Body: models.ImageData{
			Envelope: env,
			Image:    encoded,
			Width:    size.X,
			Height:   size.Y,
			Seq:      f.Seq,
		}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-exposure",
		Method:      http.MethodGet,
		Path:        "/api/v1/exposure",
		Summary:     "Get Exposure",
		Description: "Current exposure in milliseconds, 0 is auto",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 502, 504},
	}, func(ctx context.Context, _ *struct{}) (*models.ExposureResponse, error) {
		ms, err := s.camera.GetExposure(ctx)
		return exposureResponse(ms, err, "Failed to read exposure from camera.")
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-exposure",
		Method:      http.MethodPut,
		Path:        "/api/v1/exposure",
		Summary:     "Set Exposure",
		Description: "Set the exposure in milliseconds; 0 selects auto exposure",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 422, 502, 504},
	}, func(ctx context.Context, input *models.ExposureRequest) (*models.ExposureResponse, error) {
		ms, err := s.camera.SetExposure(ctx, input.Body.ExposureMS)
		return exposureResponse(ms, err, "Failed to set exposure.")
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-resolution",
		Method:      http.MethodGet,
		Path:        "/api/v1/resolution",
		Summary:     "Get Resolution",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 502, 504},
	}, func(ctx context.Context, _ *struct{}) (*models.ResolutionResponse, error) {
		res, err := s.camera.GetResolution(ctx)
		return resolutionResponse(res, err, "Failed to read resolution.")
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-resolution",
		Method:      http.MethodPut,
		Path:        "/api/v1/resolution",
		Summary:     "Set Resolution",
		Description: "Set the capture resolution by size or preset name; later frames use it once the camera has reset",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 422, 502, 504},
	}, func(ctx context.Context, input *models.ResolutionRequest) (*models.ResolutionResponse, error) {
		res := frame.Resolution{Width: input.Body.Width, Height: input.Body.Height}
		if input.Body.Preset != "" {
			var err error
			if res, err = s.options.Presets.Resolve(input.Body.Preset); err != nil {
				return nil, huma.Error422UnprocessableEntity(err.Error())
			}
		}
		res, err := s.camera.SetResolution(ctx, res)
		return resolutionResponse(res, err, "Failed to set resolution.")
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-resolution-presets",
		Method:      http.MethodGet,
		Path:        "/api/v1/resolution/presets",
		Summary:     "Resolution Presets",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.PresetsResponse, error) {
		presets := make(map[string]string, len(s.options.Presets))
		for name, res := range s.options.Presets {
			presets[name] = res.String()
		}
		return &models.PresetsResponse{Body: models.PresetsData{Presets: presets}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-capture",
		Method:      http.MethodPost,
		Path:        "/api/v1/capture/start",
		Summary:     "Start Capture",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 502, 504},
	}, func(ctx context.Context, _ *struct{}) (*models.PhaseResponse, error) {
		phase, err := s.camera.StartCapture(ctx)
		env, err := envelope(err, "Failed to start camera capture.")
		return &models.PhaseResponse{Body: models.PhaseData{Envelope: env, Phase: string(phase)}}, err
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-capture",
		Method:      http.MethodPost,
		Path:        "/api/v1/capture/stop",
		Summary:     "Stop Capture",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 502, 504},
	}, func(ctx context.Context, _ *struct{}) (*models.PhaseResponse, error) {
		phase, err := s.camera.StopCapture(ctx)
		env, err := envelope(err, "Failed to stop camera capture.")
		return &models.PhaseResponse{Body: models.PhaseData{Envelope: env, Phase: string(phase)}}, err
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Camera Status",
		Description: "Capture phase, resolution and exposure",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 502, 504},
	}, func(ctx context.Context, _ *struct{}) (*models.StatusResponse, error) {
		st, err := s.camera.Status(ctx)
		env, err := envelope(err, "Failed to read camera status.")
		if err != nil || !env.Success {
			return &models.StatusResponse{Body: models.StatusData{Envelope: env}}, err
		}
		return &models.StatusResponse{Body: models.StatusData{
			Envelope:   env,
			Phase:      string(st.Phase),
			Width:      st.Resolution.Width,
			Height:     st.Resolution.Height,
			ExposureMS: &st.Exposure,
		}}, nil
	})
}

func exposureResponse(ms float64, err error, failure string) (*models.ExposureResponse, error) {
	env, err := envelope(err, failure)
	if err != nil {
		return nil, err
	}
	body := models.ExposureData{Envelope: env}
	if env.Success {
		body.ExposureMS = &ms
	}
	return &models.ExposureResponse{Body: body}, nil
}

func resolutionResponse(res frame.Resolution, err error, failure string) (*models.ResolutionResponse, error) {
	env, err := envelope(err, failure)
	if err != nil {
		return nil, err
	}
	body := models.ResolutionData{Envelope: env}
	if env.Success {
		body.Width, body.Height = res.Width, res.Height
	}
	return &models.ResolutionResponse{Body: body}, nil
}

// encodeJPEG scales img to width x height when both are positive and
// returns it base64 encoded.
func encodeJPEG(img image.Image, width, height int) (string, image.Point, error) {
	if width > 0 && height > 0 && img.Bounds().Size() != image.Pt(width, height) {
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", image.Point{}, fmt.Errorf("jpeg: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), img.Bounds().Size(), nil
}
