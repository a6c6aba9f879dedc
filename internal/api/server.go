package api

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/remotecam/internal/api/models"
	"github.com/smazurov/remotecam/internal/config"
	"github.com/smazurov/remotecam/internal/control"
	"github.com/smazurov/remotecam/internal/events"
	"github.com/smazurov/remotecam/internal/frame"
	"github.com/smazurov/remotecam/internal/logging"
	"github.com/smazurov/remotecam/internal/source"
	"github.com/smazurov/remotecam/internal/version"
	"github.com/smazurov/remotecam/ui"
)

// Camera is the frame consumer the API serves requests through.
type Camera interface {
	Capture(ctx context.Context) (*frame.Frame, error)
	GetExposure(ctx context.Context) (float64, error)
	SetExposure(ctx context.Context, ms float64) (float64, error)
	GetResolution(ctx context.Context) (frame.Resolution, error)
	SetResolution(ctx context.Context, res frame.Resolution) (frame.Resolution, error)
	StartCapture(ctx context.Context) (control.Phase, error)
	StopCapture(ctx context.Context) (control.Phase, error)
	Status(ctx context.Context) (control.Status, error)
}

// Options configures the API server.
type Options struct {
	Camera            Camera
	EventBus          *events.Bus
	Presets           config.Presets
	ListDevices       func() ([]source.Device, error)
	AuthUsername      string
	AuthPassword      string
	CORSOrigin        string
	PrometheusHandler http.Handler
}

// Server is the huma v2 HTTP API over one camera.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	camera     Camera
	eventBus   *events.Bus
	options    *Options
	logger     *slog.Logger
}

// NewServer builds the API on Go's native mux.
func NewServer(opts *Options) *Server {
	if opts.Presets == nil {
		opts.Presets = config.PiCameraV2Presets
	}
	if opts.ListDevices == nil {
		opts.ListDevices = source.ListDevices
	}

	mux := http.NewServeMux()
	cors := DefaultCORSConfig()
	if opts.CORSOrigin != "" {
		cors.AllowOrigin = opts.CORSOrigin
	}
	AddCORSHandler(mux, cors)

	cfg := huma.DefaultConfig("remotecam API", version.String())
	cfg.Info.Description = "Remote camera frames and settings"
	cfg.Servers = []*huma.Server{}
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, cfg)
	s := &Server{
		api:      api,
		mux:      mux,
		camera:   opts.Camera,
		eventBus: opts.EventBus,
		options:  opts,
		logger:   logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(cors))
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(s.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	s.registerRoutes()

	if viewer, err := ui.Handler(); err == nil {
		mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api") {
				http.NotFound(w, r)
				return
			}
			viewer.ServeHTTP(w, r)
		})
	}
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// API returns the huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

// Start listens on addr and serves until Stop. It returns nil after Stop.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting remotecam API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop closes the listener and open connections, including SSE streams.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		v := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   v.Version,
				GitCommit: v.GitCommit,
				BuildDate: v.BuildDate,
				BuildID:   v.BuildID,
				GoVersion: v.GoVersion,
				Compiler:  v.Compiler,
				Platform:  v.Platform,
			},
		}, nil
	})

	s.registerCameraRoutes()
	s.registerDeviceRoutes()
	s.registerSSERoutes()
	s.registerMetricsRoutes()
	s.registerLogRoutes()
}

// withAuth returns the basic auth security requirement.
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}

// basicAuthMiddleware checks credentials on operations that declare security.
// SSE clients that cannot set headers may pass base64 credentials in ?auth=.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	want := []byte(username + ":" + password)

	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		encoded, ok := strings.CutPrefix(ctx.Header("Authorization"), "Basic ")
		if !ok {
			encoded = ctx.Query("auth")
		}
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if encoded == "" || err != nil || subtle.ConstantTimeCompare(decoded, want) != 1 {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="remotecam"`)
			_ = huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Authentication required")
			return
		}
		next(ctx)
	}
}
