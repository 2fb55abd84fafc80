package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/pipeline"
)

// hydrateOpts holds the command-line flags for the hydrate command.
type hydrateOpts struct {
	output   string // output file (stdout when empty)
	format   string // export format: json or yaml
	input    string // input format override: json or yaml
	class    string // default class of the document root
	depth    int    // export depth
	inline   bool   // inline nested resources up to depth
	noCache  bool   // disable caching
	refresh  bool   // recompute even on a cache hit
	strict   bool   // fail when hydration recorded warnings
	all      bool   // list every diagnostic
	depthSet bool
}

// hydrateCommand creates the hydrate command.
func (c *CLI) hydrateCommand() *cobra.Command {
	var opts hydrateOpts

	cmd := &cobra.Command{
		Use:   "hydrate [file|-]",
		Short: "Hydrate a model document and export the resource graph",
		Long: `Hydrate a model document and export the resource graph.

The document is read from a JSON or YAML file (or stdin with "-"). Every
object becomes a typed resource, id strings become references, inverse
relationships are synchronized and assign/interpolate directives are
applied. The export lists every defined resource; nested resources are
written as ids unless --inline is given.

Diagnostics (dangling references, unknown properties, ...) are printed to
stderr. Use --strict to turn warnings into a failing exit status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.depthSet = cmd.Flags().Changed("depth")
			return c.runHydrate(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "export format: json, yaml (default from config)")
	cmd.Flags().StringVar(&opts.input, "input-format", "", "input format: json, yaml (default by extension)")
	cmd.Flags().StringVar(&opts.class, "class", "", "class of the document root (default from config)")
	cmd.Flags().IntVar(&opts.depth, "depth", 0, "depth of nested resources in the export")
	cmd.Flags().BoolVar(&opts.inline, "inline", false, "inline nested resources instead of writing ids")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached exports")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with an error when hydration records warnings")
	cmd.Flags().BoolVar(&opts.all, "all", false, "list every diagnostic")

	return cmd
}

// pipelineOptions merges the flags with the config defaults.
func (c *CLI) pipelineOptions(source, class string) pipeline.Options {
	if class == "" {
		class = c.Config.Schema.DefaultClass
	}
	return pipeline.Options{
		Source: source,
		Class:  class,
		Logger: c.Logger,
	}
}

// runHydrate hydrates input and writes the export.
func (c *CLI) runHydrate(ctx context.Context, input string, opts hydrateOpts) error {
	logger := loggerFromContext(ctx)

	format := opts.format
	if format == "" {
		format = c.Config.Export.Format
	}
	if !pipeline.IsExportFormat(format) {
		return errors.New(errors.ErrCodeInvalidFormat, "export format must be json or yaml, got %q", format)
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
	popts.Formats = []string{format}
	popts.Depth = c.Config.Export.Depth
	if opts.depthSet {
		popts.Depth = opts.depth
	}
	popts.Inline = opts.inline || c.Config.Export.Inline
	popts.Refresh = opts.refresh

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, c.Err, "Hydrating "+input+"...")
	spinner.Start()
	res, err := runner.Execute(ctx, doc, popts)
	spinner.Stop()
	if err != nil {
		printError(c.Err, "Hydration failed")
		return err
	}
	prog.done("Hydrated model", "resources", res.Document.Summary.Resources, "cached", res.CacheInfo.ExportHit)

	out, err := c.openOutput(opts.output)
	if err != nil {
		return err
	}
	if _, err := out.Write(res.Artifacts[format]); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	summary := res.Document.Summary
	printStats(c.Err, summary, res.CacheInfo.ExportHit)
	limit := 10
	if opts.all {
		limit = 0
	}
	printDiagnostics(c.Err, res.Diagnostics(), limit)
	if opts.output != "" {
		printFile(c.Err, opts.output)
		printNextStep(c.Err, "Render it", fmt.Sprintf("%s render %s", appName, input))
	}

	if n := summary.Errors + summary.Warnings; opts.strict && n > 0 {
		return errors.New(errors.ErrCodeConsistency, "%d warnings (strict mode)", n)
	}
	return nil
}
