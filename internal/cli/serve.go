package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-physiology/lyphgraph/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the hydration API over HTTP",
		Long: `Serve the hydration API over HTTP.

Routes:
  GET  /healthz          liveness, version and schema id
  GET  /classes          class names of the loaded schema
  GET  /classes/{name}   properties and relationships of one class
  POST /hydrate          hydrate a JSON or YAML model document

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			srv := server.New(runner, loggerFromContext(ctx), server.Options{
				MaxBodyBytes: c.Config.Server.MaxBodyBytes,
				ReadTimeout:  c.Config.Server.ReadTimeout.Duration,
				WriteTimeout: c.Config.Server.WriteTimeout.Duration,
			})
			printInfo(c.Err, "Serving on %s", StyleHighlight.Render(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
