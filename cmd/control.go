package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smazurov/remotecam/internal/config"
	"github.com/smazurov/remotecam/internal/consumer"
)

// CreateControlCmd creates the control command and its sub-commands.
func CreateControlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "control",
		Short: "Send control requests to a camera",
	}
	cmd.AddCommand(
		exposureCmd(),
		resolutionCmd(),
		clientCmd("start", "Resume capturing", func(cmd *cobra.Command, cam *consumer.Consumer, _ []string) error {
			phase, err := cam.StartCapture(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Capture %s\n", phase)
			return nil
		}),
		clientCmd("stop", "Pause capturing", func(cmd *cobra.Command, cam *consumer.Consumer, _ []string) error {
			phase, err := cam.StopCapture(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Capture %s\n", phase)
			return nil
		}),
		clientCmd("status", "Show phase, resolution and exposure", func(cmd *cobra.Command, cam *consumer.Consumer, _ []string) error {
			st, err := cam.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Phase: %s\nResolution: %s\nExposure: %s\n", st.Phase, st.Resolution, formatExposure(st.Exposure))
			return nil
		}),
	)
	return cmd
}

// clientCmd builds a command that dials the camera and runs fn.
func clientCmd(use, short string, fn func(*cobra.Command, *consumer.Consumer, []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:          use,
		Short:        short,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadClientOptions(cmd)
			if err != nil {
				return err
			}
			cam, err := dial(opts)
			if err != nil {
				return err
			}
			defer cam.Close()
			return fn(cmd, cam, args)
		},
	}
	addClientFlags(cmd)
	return cmd
}

func exposureCmd() *cobra.Command {
	cmd := clientCmd("exposure [ms]", "Show or set the exposure in milliseconds (0 is auto)", func(cmd *cobra.Command, cam *consumer.Consumer, args []string) error {
		var ms float64
		var err error
		if len(args) == 0 {
			ms, err = cam.GetExposure(cmd.Context())
		} else {
			if ms, err = strconv.ParseFloat(args[0], 64); err != nil {
				return fmt.Errorf("invalid exposure %q: %w", args[0], err)
			}
			ms, err = cam.SetExposure(cmd.Context(), ms)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exposure: %s\n", formatExposure(ms))
		return nil
	})
	cmd.Args = cobra.MaximumNArgs(1)
	return cmd
}

func resolutionCmd() *cobra.Command {
	cmd := clientCmd("resolution [WxH|preset]", "Show or set the capture resolution", func(cmd *cobra.Command, cam *consumer.Consumer, args []string) error {
		if len(args) == 0 {
			res, err := cam.GetResolution(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resolution: %s\n", res)
			return nil
		}

		configPath, _ := cmd.Flags().GetString("config")
		presets, err := config.LoadPresets(configPath)
		if err != nil {
			return err
		}
		want, err := presets.Resolve(args[0])
		if err != nil {
			return err
		}
		res, err := cam.SetResolution(cmd.Context(), want)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Resolution: %s\n", res)
		return nil
	})
	cmd.Args = cobra.MaximumNArgs(1)
	return cmd
}

func formatExposure(ms float64) string {
	if ms == 0 {
		return "auto"
	}
	return strconv.FormatFloat(ms, 'g', -1, 64) + " ms"
}
