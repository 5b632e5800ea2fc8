package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpdspl/mpdspl/internal/database"
	"github.com/mpdspl/mpdspl/internal/usecase"
)

func newShowCmd() *cobra.Command {
	var (
		format string
		tracks bool
	)

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a saved playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			dbCtx, err := openRegistry()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			result, err := usecase.NewPlaylists(dbCtx, app.logger).Show(context.Background(), args[0], tracks)
			if err != nil {
				return err
			}
			if result.Record.ListPath != "" && !result.Intact {
				app.logger.Warn().Str("path", result.Record.ListPath).Msg("list file is missing or was modified since it was written")
			}

			if format == formatTable {
				outputShowTable(cmd, result)
				return nil
			}
			return writeStructured(cmd, format, showOutput{
				playlistOutput: newPlaylistOutput(result.Record),
				Intact:         result.Intact,
				Entries:        result.Entries,
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table, json or yaml")
	cmd.Flags().BoolVar(&tracks, "tracks", false, "Also print the files of the list")

	return cmd
}

type showOutput struct {
	playlistOutput `yaml:",inline"`
	Intact         bool     `json:"intact" yaml:"intact"`
	Entries        []string `json:"entries,omitempty" yaml:"entries,omitempty"`
}

func outputShowTable(cmd *cobra.Command, result *usecase.ShowResult) {
	rec := result.Record
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:        %s\n", rec.Name)
	fmt.Fprintf(out, "Ruleset:     %s\n", rec.Ruleset)
	fmt.Fprintf(out, "Tracks:      %d\n", rec.TrackCount)
	fmt.Fprintf(out, "List Path:   %s\n", rec.ListPath)
	fmt.Fprintf(out, "Hash:        %s\n", rec.Hash)
	fmt.Fprintf(out, "Created At:  %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if rec.Evaluated() {
		fmt.Fprintf(out, "Evaluated:   %s\n", rec.EvaluatedAt.Local().Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintf(out, "Evaluated:   never\n")
	}
	fmt.Fprintf(out, "Intact:      %t\n", result.Intact)

	if len(result.Entries) > 0 {
		fmt.Fprintln(out)
		for _, entry := range result.Entries {
			fmt.Fprintln(out, entry)
		}
	}
}
