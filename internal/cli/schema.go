package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/open-physiology/lyphgraph/pkg/errors"
	lgio "github.com/open-physiology/lyphgraph/pkg/io"
	"github.com/open-physiology/lyphgraph/pkg/metamodel"
)

// schemaCommand creates the schema inspection command.
func (c *CLI) schemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the classes of the loaded schema",
	}

	cmd.AddCommand(c.schemaListCommand())
	cmd.AddCommand(c.schemaShowCommand())

	return cmd
}

// schemaListCommand creates the "schema list" subcommand.
func (c *CLI) schemaListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every class with its parent and field counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := c.loadMeta()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, classTable(meta))
			return nil
		},
	}
}

// schemaShowCommand creates the "schema show" subcommand.
func (c *CLI) schemaShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <class>",
		Short: "Show the properties and relationships of a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := c.loadMeta()
			if err != nil {
				return err
			}
			info, ok := meta.Describe(args[0])
			if !ok {
				return errors.New(errors.ErrCodeClassNotFound, "class %q is not defined", args[0])
			}
			if asJSON {
				return lgio.WriteJSON(info, c.Out)
			}
			printClass(c, info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the class as JSON")
	return cmd
}

// classTable renders every class of meta as a table.
func classTable(meta *metamodel.MetaModel) string {
	rows := [][]string{}
	for _, name := range meta.Names() {
		info, _ := meta.Describe(name)
		parent := ""
		if len(info.Ancestry) > 1 {
			parent = info.Ancestry[1]
		}
		kind := ""
		if info.Abstract {
			kind = "abstract"
		}
		rows = append(rows, []string{
			name,
			parent,
			kind,
			strconv.Itoa(len(info.Properties)),
			strconv.Itoa(len(info.Relationships)),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Class", "Extends", "", "Props", "Rels").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case col == 0:
				return StyleHighlight
			case col == 1 || col == 2:
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// printClass prints one class description.
func printClass(c *CLI, info *metamodel.ClassInfo) {
	w := c.Out
	fmt.Fprintln(w, StyleTitle.Render(info.Name))
	if info.Description != "" {
		printDetail(w, "%s", info.Description)
	}
	printKeyValue(w, "ancestry", strings.Join(info.Ancestry, " → "))
	if info.Abstract {
		printKeyValue(w, "abstract", "yes")
	}
	if len(info.Subclasses) > 0 {
		printKeyValue(w, "subclasses", strings.Join(info.Subclasses, ", "))
	}

	if len(info.Properties) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styleHeader.Render("Properties"))
		for _, p := range info.Properties {
			line := "  " + StyleValue.Render(p.Name) + " " + StyleDim.Render(p.Type)
			if p.Default != nil {
				line += StyleDim.Render(fmt.Sprintf(" = %v", p.Default))
			}
			if len(p.Enum) > 0 {
				line += StyleDim.Render(fmt.Sprintf(" %v", p.Enum))
			}
			fmt.Fprintln(w, line)
		}
	}

	if len(info.Relationships) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styleHeader.Render("Relationships"))
		for _, r := range info.Relationships {
			target := r.Class
			if r.Array {
				target = "[]" + target
			}
			line := "  " + StyleValue.Render(r.Name) + " " + StyleRef.Render(target)
			if r.Inverse != "" {
				line += StyleDim.Render(" ⇄ " + r.Inverse)
			}
			if r.ReadOnly {
				line += StyleDim.Render(" (read-only)")
			}
			fmt.Fprintln(w, line)
		}
	}
}
