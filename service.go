package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/remotecam/internal/api"
	"github.com/smazurov/remotecam/internal/config"
	"github.com/smazurov/remotecam/internal/consumer"
	"github.com/smazurov/remotecam/internal/events"
	"github.com/smazurov/remotecam/internal/frame"
	"github.com/smazurov/remotecam/internal/led"
	"github.com/smazurov/remotecam/internal/logging"
	"github.com/smazurov/remotecam/internal/metrics/exporters"
	rcnats "github.com/smazurov/remotecam/internal/nats"
	"github.com/smazurov/remotecam/internal/producer"
	"github.com/smazurov/remotecam/internal/source"
	"github.com/smazurov/remotecam/internal/systemd"
)

// service owns every component of the serve command. Stop may be called
// from another goroutine while Run is blocked serving HTTP.
type service struct {
	opts   *Options
	logger *slog.Logger

	mu        sync.Mutex
	stopped   bool
	cancel    context.CancelFunc
	broker    *rcnats.Server
	conn      *nats.Conn
	inbox     *rcnats.ControlInbox
	done      chan struct{}
	forwarder *rcnats.StatusForwarder
	camera    *consumer.Consumer
	watcher   *config.Watcher[config.CameraSettings]
	exporter  *exporters.SSEExporter
	leds      *led.Manager
	server    *api.Server
	notifier  *systemd.Notifier
}

func newService(opts *Options, logger *slog.Logger) *service {
	return &service{opts: opts, logger: logger}
}

// Run starts all components and serves HTTP until Stop. Startup failures
// exit the process with status 1.
func (s *service) Run() {
	server, err := s.start()
	if err != nil {
		s.logger.Error("Startup failed", "error", err)
		s.Stop()
		os.Exit(1)
	}

	s.logger.Info("Starting HTTP server", "port", s.opts.Port)
	if err := server.Start(s.opts.Port); err != nil {
		s.logger.Error("Failed to start HTTP server", "error", err)
		s.Stop()
		os.Exit(1)
	}
}

func (s *service) start() (*api.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, errors.New("stopped before start")
	}

	opts := s.opts
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	eventBus := events.New()
	logging.SetLogCallback(func(entry logging.LogEntry) {
		eventBus.Publish(events.LogEntryEvent{
			Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
			Level:      entry.Level,
			Module:     entry.Module,
			Message:    entry.Message,
			Attributes: entry.Attributes,
		})
	})

	transportLogger := logging.GetLogger("transport")
	url := opts.NatsServer
	if opts.NatsEmbedded {
		s.broker = rcnats.NewServer(rcnats.ServerOptions{
			Host:   opts.NatsHost,
			Port:   opts.NatsPort,
			Logger: transportLogger,
		})
		if err := s.broker.Start(); err != nil {
			return nil, fmt.Errorf("start NATS broker: %w", err)
		}
		url = s.broker.ClientURL()
	}

	conn, err := rcnats.Connect(url, "remotecam-"+opts.CameraName, transportLogger)
	if err != nil {
		return nil, err
	}
	s.conn = conn

	presets, err := config.LoadPresets(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}

	initial, err := s.initialSettings(presets)
	if err != nil {
		return nil, err
	}

	src, err := source.New(source.Config{
		Kind:          source.Kind(opts.SourceKind),
		Device:        opts.SourceDevice,
		InputFormat:   opts.SourceInputFormat,
		FPS:           opts.SourceFPS,
		ImagePath:     opts.SourceImage,
		FrameInterval: time.Duration(opts.SourceFrameIntervalMs) * time.Millisecond,
	}, logging.GetLogger("source"))
	if err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}

	s.inbox, err = rcnats.NewControlInbox(conn, opts.CameraName, opts.InboxSize, transportLogger)
	if err != nil {
		src.Close()
		return nil, err
	}

	p, err := producer.New(producer.Options{
		Source:       src,
		Publisher:    rcnats.NewFramePublisher(conn, opts.CameraName),
		Inbox:        s.inbox,
		Resolution:   initial.resolution,
		Exposure:     initial.exposure,
		Autostart:    opts.Autostart,
		IdleInterval: time.Duration(opts.IdleIntervalMs) * time.Millisecond,
		MaxDimension: opts.MaxDimension,
		Events:       eventBus,
		Logger:       logging.GetLogger("producer"),
	})
	if err != nil {
		src.Close()
		return nil, err
	}

	if opts.LEDEnabled {
		s.leds = led.NewManager(led.New(opts.LEDName, s.logger), eventBus, s.logger)
		s.leds.Start()
	}

	s.forwarder = rcnats.NewStatusForwarder(conn, eventBus, opts.CameraName, transportLogger)
	s.forwarder.Start()

	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		if err := p.Run(ctx); err != nil {
			s.logger.Error("Producer stopped", "error", err)
		}
	}()

	controlTimeout := time.Duration(opts.ControlTimeoutMs) * time.Millisecond
	s.camera, err = consumer.NewFromConn(conn, consumer.Options{
		Camera:         opts.CameraName,
		HighWaterMark:  opts.HighWaterMark,
		ControlTimeout: controlTimeout,
		Logger:         logging.GetLogger("consumer"),
	})
	if err != nil {
		return nil, err
	}

	configLogger := logging.GetLogger("config")
	s.watcher = config.NewWatcher(opts.SettingsFile, config.LoadCameraSettings, configLogger)
	s.watcher.OnReload(func(settings config.CameraSettings) {
		applyCtx, cancel := context.WithTimeout(ctx, 2*controlTimeout)
		defer cancel()
		if err := config.ApplyCameraSettings(applyCtx, s.camera, settings, presets, configLogger); err != nil {
			configLogger.Warn("Camera settings not fully applied", "error", err)
		}
	})
	if err := s.watcher.Start(); err != nil {
		configLogger.Warn("Camera settings will not be reloaded", "file", opts.SettingsFile, "error", err)
	}

	apiOpts := &api.Options{
		Camera:       s.camera,
		EventBus:     eventBus,
		Presets:      presets,
		ListDevices:  source.ListDevices,
		AuthUsername: opts.AuthUsername,
		AuthPassword: opts.AuthPassword,
		CORSOrigin:   opts.CORSOrigin,
	}
	if opts.MetricsPrometheus {
		apiOpts.PrometheusHandler = exporters.HTTPHandler()
	}
	if opts.MetricsSSE {
		s.exporter = exporters.NewSSEExporter(eventBus)
		s.exporter.Start(ctx)
	}
	s.server = api.NewServer(apiOpts)

	s.notifier = systemd.NewNotifier(s.logger)
	s.notifier.Ready(ctx)

	s.logger.Info("Camera ready",
		"camera", opts.CameraName,
		"source", src.Name(),
		"nats", url,
		"resolution", initial.resolution.String())
	return s.server, nil
}

type startupSettings struct {
	resolution frame.Resolution
	exposure   float64
}

// initialSettings combines the configured resolution with the settings
// file, which wins when present.
func (s *service) initialSettings(presets config.Presets) (startupSettings, error) {
	var out startupSettings
	resolution := s.opts.Resolution

	settings, err := config.LoadCameraSettings(s.opts.SettingsFile)
	switch {
	case err == nil:
		if settings.Resolution != "" {
			resolution = settings.Resolution
		}
		if settings.ExposureMS != nil {
			out.exposure = *settings.ExposureMS
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		s.logger.Warn("Ignoring camera settings file", "file", s.opts.SettingsFile, "error", err)
	}

	out.resolution, err = presets.Resolve(resolution)
	if err != nil {
		return out, fmt.Errorf("initial resolution: %w", err)
	}
	return out, nil
}

// Stop shuts components down in reverse order of start. It is safe to call
// more than once.
func (s *service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.logger.Info("Shutting down")

	if s.notifier != nil {
		s.notifier.Stopping()
	}
	if s.server != nil {
		if err := s.server.Stop(); err != nil {
			s.logger.Error("Error stopping HTTP server", "error", err)
		}
	}
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn("Error stopping settings watcher", "error", err)
		}
	}
	if s.exporter != nil {
		s.exporter.Stop()
	}
	if s.camera != nil {
		_ = s.camera.Close()
	}
	if s.forwarder != nil {
		s.forwarder.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
	if s.leds != nil {
		s.leds.Stop()
	}
	if s.inbox != nil {
		_ = s.inbox.Close()
	}
	logging.SetLogCallback(nil)
	if s.conn != nil {
		s.conn.Close()
	}
	if s.broker != nil {
		s.broker.Stop()
	}
}
