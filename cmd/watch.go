package cmd

import (
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smazurov/remotecam/internal/logging"
	rcnats "github.com/smazurov/remotecam/internal/nats"
)

// CreateWatchCmd creates the watch command.
func CreateWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "watch",
		Short:        "Print camera state changes as they happen",
		Long:         `Follows the camera's status subject: phase changes, settings changes and capture failures.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := loadClientOptions(cmd)
			if err != nil {
				return err
			}
			logger := logging.GetLogger("transport")
			conn, err := rcnats.Connect(opts.Server, "remotecam-watch", logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			sub, err := rcnats.WatchStatus(conn, opts.Camera, logger, func(m rcnats.StatusMessage) {
				mu.Lock()
				defer mu.Unlock()
				printStatus(out, m)
			})
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()

			fmt.Fprintf(out, "Watching camera %q on %s\n", opts.Camera, opts.Server)
			<-ctx.Done()
			return nil
		},
	}
	addClientFlags(cmd)
	return cmd
}

func printStatus(w io.Writer, m rcnats.StatusMessage) {
	switch m.Kind {
	case rcnats.StatusPhase:
		fmt.Fprintf(w, "%s phase %s -> %s (%s)\n", m.Timestamp, m.Previous, m.Phase, m.Resolution)
	case rcnats.StatusSettings:
		exposure := "unknown"
		if m.Exposure != nil {
			exposure = formatExposure(*m.Exposure)
		}
		fmt.Fprintf(w, "%s settings resolution=%s exposure=%s\n", m.Timestamp, m.Resolution, exposure)
	case rcnats.StatusCaptureFailed:
		fmt.Fprintf(w, "%s %s failed: %s\n", m.Timestamp, m.Stage, m.Error)
	default:
		fmt.Fprintf(w, "%s %s\n", m.Timestamp, m.Kind)
	}
}
