package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/photogridlab/photogrid/pkg/pipeline"
	"github.com/photogridlab/photogrid/pkg/thumb"
)

// thumbsCommand creates the thumbs command for pre-decoding thumbnails.
func (c *CLI) thumbsCommand() *cobra.Command {
	var (
		width   int
		height  int
		workers int
	)

	cmd := &cobra.Command{
		Use:   "thumbs [directory]",
		Short: "Warm the thumbnail cache for a directory",
		Long: `Warm the thumbnail cache for a directory.

Every image is decoded and downscaled to fit the target box. Decode
failures are reported but never abort the warm; the remaining images
still decode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runThumbs(cmd.Context(), args[0], width, height, workers)
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, fmt.Sprintf("thumbnail box width (default %d)", pipeline.DefaultThumbWidth))
	cmd.Flags().IntVar(&height, "height", 0, fmt.Sprintf("thumbnail box height (default %d)", pipeline.DefaultThumbHeight))
	cmd.Flags().IntVar(&workers, "workers", 0, fmt.Sprintf("decode workers (default %d)", thumb.DefaultWorkers))

	return cmd
}

func (c *CLI) runThumbs(ctx context.Context, root string, width, height, workers int) error {
	if workers == 0 {
		workers = c.Config.Thumbs.Workers
	}
	loader := thumb.NewLoader(thumb.NewCache(c.Config.Thumbs.MaxEntries, c.Config.Thumbs.MaxBytes), nil, workers)
	runner := pipeline.NewRunner(nil, nil, loader, c.Logger)
	defer runner.Close()

	opts := pipeline.Options{Root: root, ThumbWidth: width, ThumbHeight: height, Logger: c.Logger}
	c.Config.ApplyTo(&opts)
	opts.Root = root

	g, err := runner.Scan(ctx, opts)
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Decoding %d thumbnails...", len(g.Images)))
	spinner.Start()
	decoded, failed := runner.Warm(ctx, g, opts)
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if failed > 0 {
		printWarning("%d images failed to decode", failed)
	}
	printSuccess("Warmed %d thumbnails", decoded)
	printDetail("Cache: %d entries, %d bytes", loader.Cache().Len(), loader.Cache().Bytes())

	return nil
}
