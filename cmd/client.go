// Package cmd holds the client sub-commands that talk to a running camera
// over NATS.
package cmd

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/smazurov/remotecam/internal/config"
	"github.com/smazurov/remotecam/internal/consumer"
	"github.com/smazurov/remotecam/internal/logging"
)

// ClientOptions are shared by every client command. Flag names follow the
// field names; the config file and env can supply them too.
type ClientOptions struct {
	Config  string
	Server  string        `toml:"client.server" env:"CLIENT_SERVER"`
	Camera  string        `toml:"client.camera" env:"CLIENT_CAMERA"`
	Timeout time.Duration `toml:"client.timeout" env:"CLIENT_TIMEOUT"`
}

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("server", nats.DefaultURL, "NATS server URL")
	cmd.Flags().String("camera", "default", "Camera name")
	cmd.Flags().Duration("timeout", consumer.DefaultTimeout, "Timeout for frames and control replies")
}

// loadClientOptions reads flag values, then lets the config file and env
// fill in whatever was not given on the command line.
func loadClientOptions(cmd *cobra.Command) (ClientOptions, error) {
	var opts ClientOptions
	flags := cmd.Flags()
	opts.Server, _ = flags.GetString("server")
	opts.Camera, _ = flags.GetString("camera")
	opts.Timeout, _ = flags.GetDuration("timeout")
	// Inherited from the root command when present.
	opts.Config, _ = flags.GetString("config")

	if err := config.LoadConfig(&opts, cmd); err != nil {
		return opts, fmt.Errorf("load config: %w", err)
	}

	logCfg := config.LoadLoggingConfig(opts.Config)
	if level, _ := flags.GetString("logging-level"); flags.Changed("logging-level") {
		logCfg.Level = level
	}
	logging.Initialize(logCfg)
	return opts, nil
}

func dial(opts ClientOptions) (*consumer.Consumer, error) {
	c, err := consumer.Dial(opts.Server, consumer.Options{
		Camera:         opts.Camera,
		FrameTimeout:   opts.Timeout,
		ControlTimeout: opts.Timeout,
		Logger:         logging.GetLogger("consumer"),
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", opts.Server, err)
	}
	return c, nil
}
