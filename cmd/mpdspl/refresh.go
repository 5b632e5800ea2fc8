package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpdspl/mpdspl/internal/usecase"
)

func newRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the library cache from the MPD database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := libraryInput(true)
			if err != nil {
				return err
			}

			result, err := usecase.NewLibrary(app.logger).Load(context.Background(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cached %d tracks in %s\n", result.Database.Len(), input.CachePath)
			return nil
		},
	}

	return cmd
}
