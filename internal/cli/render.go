package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/pipeline"
	"github.com/open-physiology/lyphgraph/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file (single format) or base path (multiple)
	formats  []string // dot, svg, png, pdf
	input    string   // input format override
	class    string   // class of the document root
	detailed bool     // label nodes and edges with class names
	hidden   bool     // draw resources marked hidden
	stubs    bool     // draw unresolved references
	scale    float64  // PNG scale factor
	noCache  bool
	refresh  bool
}

var renderFormats = []string{pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatPDF}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: 2}

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render the hydrated resource graph as DOT, SVG, PNG or PDF",
		Long: `Render the hydrated resource graph as a node-link diagram.

Nodes are drawn as circles, lyphs as rounded boxes with their layers,
links as edges labelled with their conveying lyph, and groups as clusters.
PNG and PDF output require rsvg-convert on the PATH.

Rendered artifacts are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr, pipeline.FormatSVG)
			for _, f := range opts.formats {
				if !slices.Contains(renderFormats, f) {
					return errors.New(errors.ErrCodeInvalidFormat, "render format must be one of dot, svg, png, pdf, got %q", f)
				}
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, pdf (comma-separated)")
	cmd.Flags().StringVar(&opts.input, "input-format", "", "input format: json, yaml (default by extension)")
	cmd.Flags().StringVar(&opts.class, "class", "", "class of the document root (default from config)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show class names in labels")
	cmd.Flags().BoolVar(&opts.hidden, "hidden", false, "draw hidden resources")
	cmd.Flags().BoolVar(&opts.stubs, "stubs", false, "draw unresolved references")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts")

	return cmd
}

// runRender hydrates input and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)

	for _, f := range opts.formats {
		if (f == pipeline.FormatPNG || f == pipeline.FormatPDF) && !render.Available() {
			return errors.New(errors.ErrCodeUnsupported, "%s output needs %s on the PATH", f, render.Converter)
		}
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	doc, err := c.readModel(ctx, runner.Cache, input, opts.input, opts.refresh)
	if err != nil {
		return err
	}

	popts := c.pipelineOptions(input, opts.class)
	popts.Formats = opts.formats
	popts.Detailed = opts.detailed
	popts.Hidden = opts.hidden
	popts.Stubs = opts.stubs
	popts.Scale = opts.scale
	popts.Refresh = opts.refresh

	spinner := newSpinnerWithContext(ctx, c.Err, "Rendering "+input+"...")
	spinner.Start()
	res, err := runner.Execute(ctx, doc, popts)
	spinner.Stop()
	if err != nil {
		printError(c.Err, "Rendering failed")
		return err
	}

	paths := outputPaths(opts.output, input, opts.formats)
	for _, f := range opts.formats {
		if err := os.WriteFile(paths[f], res.Artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", paths[f], err)
		}
		logger.Debug("wrote artifact", "format", f, "path", paths[f], "bytes", len(res.Artifacts[f]))
	}

	printSuccess(c.Err, "Rendered %s", input)
	printStats(c.Err, res.Document.Summary, res.CacheInfo.RenderHit)
	for _, f := range opts.formats {
		printFile(c.Err, paths[f])
	}
	return nil
}

// outputPaths maps each format to its file. A single format with an
// explicit output writes exactly there; otherwise files share a base path.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}
