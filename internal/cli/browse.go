package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// browseCommand creates the interactive browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var inputFormat, class string

	cmd := &cobra.Command{
		Use:   "browse [file|-]",
		Short: "Explore a hydrated model interactively",
		Long: `Explore a hydrated model interactively.

The model is hydrated without touching the cache. The browser lists every
resource; open one to see its fields and follow references to related
resources.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], inputFormat, class)
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "input format: json, yaml (default by extension)")
	cmd.Flags().StringVar(&class, "class", "", "class of the document root (default from config)")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, input, inputFormat, class string) error {
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	doc, err := c.readModel(ctx, runner.Cache, input, inputFormat, false)
	if err != nil {
		return err
	}

	res, err := runner.Hydrate(ctx, doc, c.pipelineOptions(input, class))
	if err != nil {
		return err
	}

	p := tea.NewProgram(NewBrowseModel(res.Registry), tea.WithContext(ctx), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
