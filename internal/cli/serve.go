package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphshift/internal/server"
	"github.com/matzehuels/graphshift/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion API",
		Long: `Run the HTTP conversion API.

Endpoints: POST /convert, POST /render, GET /healthz, and /graphs for saved
conversions. The /graphs routes need a MongoDB store, enabled by setting
store.mongo_uri in the config file; without it they answer 503.

The cache backend follows the config file (file, redis, or none).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			runner, err := c.newRunner(cmd, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			var st store.Store
			if uri := c.Config.Store.MongoURI; uri != "" {
				ms, err := store.NewMongoStore(cmd.Context(), uri, c.Config.Store.MongoDB)
				if err != nil {
					return fmt.Errorf("connect graph store: %w", err)
				}
				defer ms.Close(cmd.Context())
				st = ms
				logger.Info("graph store enabled", "db", c.Config.Store.MongoDB)
			}

			srv := server.New(runner, st, logger)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
