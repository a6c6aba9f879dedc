// Package logging provides structured logging with per-module log levels.
//
// Output is routed automatically: to stdout when a terminal, pipe or file is
// attached, to the systemd journal when journald is running, and always to
// an in-memory history of recent entries served by the HTTP API.
//
// Initialize once at startup, then obtain module loggers:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"producer": "debug",
//			"api":      "warn",
//		},
//	})
//
//	logger := logging.GetLogger("producer")
//	logger.Info("Capture started", "resolution", "640x480")
//
// Module names used by remotecam: producer, source, transport, consumer,
// api, config.
//
// # Viewing Logs
//
//	journalctl -t remotecam -f
//	journalctl -t remotecam MODULE=producer
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	transport = "debug"
package logging
