package cmd

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"
)

// CreateCaptureCmd creates the capture command.
func CreateCaptureCmd() *cobra.Command {
	var output string
	var width, height, quality int

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Save the next frame from a camera",
		Long: `Subscribes to the camera's frame broadcast, waits for one frame and writes it ` +
			`to a JPEG or PNG file chosen by the output extension.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := loadClientOptions(cmd)
			if err != nil {
				return err
			}
			cam, err := dial(opts)
			if err != nil {
				return err
			}
			defer cam.Close()

			f, err := cam.Capture(cmd.Context())
			if err != nil {
				return fmt.Errorf("capture: %w", err)
			}
			var img image.Image
			if img, err = f.Image(); err != nil {
				return fmt.Errorf("convert frame %d: %w", f.Seq, err)
			}
			if width > 0 && height > 0 {
				scaled := image.NewRGBA(image.Rect(0, 0, width, height))
				draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
				img = scaled
			}

			if err := writeImage(output, img, quality); err != nil {
				return err
			}
			size := img.Bounds().Size()
			fmt.Fprintf(cmd.OutOrStdout(), "Saved frame %d (%dx%d) to %s\n", f.Seq, size.X, size.Y, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "frame.jpg", "Output file (.jpg, .jpeg or .png)")
	cmd.Flags().IntVar(&width, "width", 0, "Scale to this width; requires --height")
	cmd.Flags().IntVar(&height, "height", 0, "Scale to this height; requires --width")
	cmd.Flags().IntVar(&quality, "quality", 90, "JPEG quality")
	addClientFlags(cmd)
	return cmd
}

func writeImage(path string, img image.Image, quality int) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		err = png.Encode(out, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: quality})
	default:
		err = fmt.Errorf("unsupported image extension %q", ext)
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
