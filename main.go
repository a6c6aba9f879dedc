package main

import (
	"log/slog"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/remotecam/cmd"
	"github.com/smazurov/remotecam/internal/config"
	"github.com/smazurov/remotecam/internal/logging"
	"github.com/smazurov/remotecam/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port       string `help:"HTTP listen address" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	CORSOrigin string `help:"Allowed CORS origin" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// Broker settings
	NatsEmbedded bool   `help:"Run the embedded NATS broker" default:"true" toml:"nats.embedded" env:"NATS_EMBEDDED"`
	NatsHost     string `help:"Embedded broker listen host" default:"127.0.0.1" toml:"nats.host" env:"NATS_HOST"`
	NatsPort     int    `help:"Embedded broker listen port" default:"4222" toml:"nats.port" env:"NATS_PORT"`
	NatsServer   string `help:"External broker URL, used when the embedded broker is off" default:"nats://127.0.0.1:4222" toml:"nats.server" env:"NATS_SERVER"`

	// Camera settings
	CameraName     string `help:"Camera name used in NATS subjects" default:"default" toml:"camera.name" env:"CAMERA_NAME"`
	SettingsFile   string `help:"Camera settings file, watched for changes" default:"camera.toml" toml:"camera.settings_file" env:"CAMERA_SETTINGS_FILE"`
	Resolution     string `help:"Initial resolution as WxH or preset name" default:"640x480" toml:"capture.resolution" env:"CAPTURE_RESOLUTION"`
	Autostart      bool   `help:"Start capturing at startup" default:"true" toml:"capture.autostart" env:"CAPTURE_AUTOSTART"`
	MaxDimension   int    `help:"Largest accepted width or height" default:"4096" toml:"capture.max_dimension" env:"CAPTURE_MAX_DIMENSION"`
	IdleIntervalMs int    `help:"Control wait while stopped, in milliseconds" default:"1000" toml:"capture.idle_interval_ms" env:"CAPTURE_IDLE_INTERVAL_MS"`

	// Source settings
	SourceKind            string `help:"Frame source (auto, hardware, simulated)" default:"auto" toml:"source.kind" env:"SOURCE_KIND"`
	SourceDevice          string `help:"V4L2 device path, empty picks the first" default:"" toml:"source.device" env:"SOURCE_DEVICE"`
	SourceInputFormat     string `help:"V4L2 input format" default:"mjpeg" toml:"source.input_format" env:"SOURCE_INPUT_FORMAT"`
	SourceFPS             int    `help:"Hardware capture frame rate" default:"15" toml:"source.fps" env:"SOURCE_FPS"`
	SourceImage           string `help:"Still image served by the simulated source" default:"" toml:"source.image" env:"SOURCE_IMAGE"`
	SourceFrameIntervalMs int    `help:"Simulated source frame interval in milliseconds" default:"100" toml:"source.frame_interval_ms" env:"SOURCE_FRAME_INTERVAL_MS"`

	// Transport settings
	HighWaterMark    int `help:"Frames queued per consumer before the oldest is dropped" default:"4" toml:"transport.high_water_mark" env:"TRANSPORT_HIGH_WATER_MARK"`
	InboxSize        int `help:"Pending control requests before new ones are dropped" default:"16" toml:"transport.inbox_size" env:"TRANSPORT_INBOX_SIZE"`
	ControlTimeoutMs int `help:"Control reply timeout in milliseconds" default:"5000" toml:"transport.control_timeout_ms" env:"TRANSPORT_CONTROL_TIMEOUT_MS"`

	// Metrics settings
	MetricsPrometheus bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.prometheus_enabled" env:"METRICS_PROMETHEUS_ENABLED"`
	MetricsSSE        bool `help:"Stream producer metrics on /api/metrics" default:"true" toml:"metrics.sse_enabled" env:"METRICS_SSE_ENABLED"`

	// Indicator LED settings
	LEDEnabled bool   `help:"Show the capture phase on a board LED" default:"false" toml:"led.enabled" env:"LED_ENABLED"`
	LEDName    string `help:"sysfs LED name, empty picks the board status LED" default:"" toml:"led.name" env:"LED_NAME"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingProducer  string `help:"Producer logging level" default:"info" toml:"logging.producer" env:"LOGGING_PRODUCER"`
	LoggingSource    string `help:"Source logging level" default:"info" toml:"logging.source" env:"LOGGING_SOURCE"`
	LoggingTransport string `help:"Transport logging level" default:"info" toml:"logging.transport" env:"LOGGING_TRANSPORT"`
	LoggingConsumer  string `help:"Consumer logging level" default:"info" toml:"logging.consumer" env:"LOGGING_CONSUMER"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingConfig    string `help:"Config logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"producer":  opts.LoggingProducer,
				"source":    opts.LoggingSource,
				"transport": opts.LoggingTransport,
				"consumer":  opts.LoggingConsumer,
				"api":       opts.LoggingAPI,
				"http":      opts.LoggingAPI,
				"config":    opts.LoggingConfig,
			},
		})

		// Sub-commands also pass through here; nothing is started until OnStart.
		svc := newService(opts, logging.GetLogger("main"))
		hooks.OnStart(svc.Run)
		hooks.OnStop(svc.Stop)
	})

	cli.Root().Use = "remotecam"
	cli.Root().Short = "Camera frame producer with NATS broadcast and an HTTP API"
	cli.Root().Version = version.Get().Long()
	cli.Root().AddCommand(cmd.CreateCaptureCmd(), cmd.CreateControlCmd(), cmd.CreateWatchCmd())

	cli.Run()
}
