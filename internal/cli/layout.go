package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/photogridlab/photogrid/pkg/gallery"
	"github.com/photogridlab/photogrid/pkg/layout"
	"github.com/photogridlab/photogrid/pkg/pipeline"
)

// layoutCommand creates the layout command for computing grid layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		svg     string
		policy  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [directory|gallery.json]",
		Short: "Compute a grid layout for a gallery",
		Long: `Compute a grid layout for a gallery.

The layout command takes either a photo directory or a gallery.json file
(produced by 'scan') and partitions the images into rows for the given
viewport width. Two policies are available: 'justified' searches for
variable-count rows that best fill the width at heights near the target;
'grid' places a fixed number of images per row.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Config.ApplyTo(&opts)
			if policy != "" {
				opts.Policy = layout.Policy(policy)
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, svg, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&svg, "svg", "", "also write an SVG contact sheet")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the cross-run cache")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")

	// Geometry flags
	cmd.Flags().StringVarP(&policy, "policy", "p", "", "row policy: justified (default), grid")
	cmd.Flags().Float64VarP(&opts.Width, "width", "w", opts.Width, "viewport width in pixels")
	cmd.Flags().Float64Var(&opts.Spacing, "spacing", opts.Spacing, "gap between images in pixels")
	cmd.Flags().Float64Var(&opts.TargetRowHeight, "target-height", opts.TargetRowHeight, "target row height (justified)")
	cmd.Flags().Float64Var(&opts.MinRowHeight, "min-height", opts.MinRowHeight, "minimum row height")
	cmd.Flags().Float64Var(&opts.MaxRowHeight, "max-height", opts.MaxRowHeight, "maximum row height")
	cmd.Flags().IntVar(&opts.ImagesPerRow, "per-row", opts.ImagesPerRow, "images per row (grid)")

	return cmd
}

// runLayout loads or scans the gallery, computes the layout, and writes
// the output files.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output, svg string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	g, err := c.loadGallery(ctx, runner, input, &opts)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", opts.Policy))
	spinner.Start()

	l, cacheHit, err := runner.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := gallery.WriteLayoutFile(outputPath, l); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)

	if svg != "" {
		f, err := os.Create(svg)
		if err != nil {
			return fmt.Errorf("write svg %s: %w", svg, err)
		}
		if err := gallery.WriteSVG(f, l); err != nil {
			f.Close()
			return fmt.Errorf("render svg: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		printFile(svg)
	}

	printStats(l.ImageCount(), l.RowCount(), cacheHit)
	printNewline()
	printNextStep("Browse", "photogrid browse "+input)

	return nil
}

// loadGallery resolves the input argument: a directory is scanned, a
// file is read as gallery.json. Either way opts.Root ends up set.
func (c *CLI) loadGallery(ctx context.Context, runner *pipeline.Runner, input string, opts *pipeline.Options) (*gallery.Gallery, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", input, err)
	}
	if info.IsDir() {
		opts.Root = input
		g, err := runner.Scan(ctx, *opts)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", input, err)
		}
		return g, nil
	}
	g, err := gallery.ReadGalleryFile(input)
	if err != nil {
		return nil, fmt.Errorf("load gallery %s: %w", input, err)
	}
	if opts.Root == "" {
		opts.Root = g.Root
	}
	return &g, nil
}
