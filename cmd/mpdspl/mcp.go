package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpdspl/mpdspl/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the Model Context Protocol server, answering ruleset queries over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := libraryInput(force)
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(mcp.Options{
				Library:      input,
				RegistryPath: app.cfg.RegistryPath(),
				Version:      version,
				Logger:       app.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			return server.Run(context.Background())
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Rebuild the library cache on the first query")

	return cmd
}
