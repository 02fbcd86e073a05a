package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/photogridlab/photogrid/pkg/gallery"
	"github.com/photogridlab/photogrid/pkg/pipeline"
)

// scanCommand creates the scan command for discovering images.
func (c *CLI) scanCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan a photo directory into a gallery file",
		Long: `Scan a photo directory into a gallery file.

The scan command walks the directory recursively, reads image headers for
their dimensions (no pixels are decoded), and writes a gallery.json that
the 'layout' command consumes. Files with unreadable headers are kept
with unknown dimensions and laid out as squares.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) > 0 {
				root = args[0]
			}
			return c.runScan(cmd.Context(), root, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "gallery.json", "output file")

	return cmd
}

func (c *CLI) runScan(ctx context.Context, root, output string) error {
	opts := pipeline.Options{Root: root, Logger: c.Logger}
	c.Config.ApplyTo(&opts)

	runner, err := c.newRunner(true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	g, err := runner.Scan(ctx, opts)
	if err != nil {
		return fmt.Errorf("scan %s: %w", opts.Root, err)
	}
	prog.done(fmt.Sprintf("Scanned %d images", len(g.Images)))

	if err := gallery.WriteGalleryFile(output, *g); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Scan complete")
	printFile(output)
	printStats(len(g.Images), 0, false)
	printNewline()
	printNextStep("Layout", "photogrid layout "+output)

	return nil
}
