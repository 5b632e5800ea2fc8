package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpdspl/mpdspl/internal/database"
	"github.com/mpdspl/mpdspl/internal/usecase"
)

func newGenerateCmd() *cobra.Command {
	var (
		names      []string
		outputOnly bool
		force      bool
		replace    bool
	)

	cmd := &cobra.Command{
		Use:   "generate [-n NAME RULESET]...",
		Short: "Generate every saved playlist, adding new ones first",
		Long: `Generate evaluates every saved playlist against the MPD database and writes
each one to <playlist_dir>/<name>.m3u.

Each -n NAME takes its ruleset from the next positional argument, so
  mpdspl generate -n fred 'ar=/Fred/' -n recent 'mt<%1week%'
saves and writes two new playlists. With --output-only the new playlists are
printed to stdout and nothing is saved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(names) != len(args) {
				return fmt.Errorf("got %d playlist names but %d rulesets: give each -n NAME a RULESET", len(names), len(args))
			}
			if outputOnly && len(names) == 0 {
				return errors.New("--output-only needs at least one -n NAME RULESET")
			}
			newPlaylists := make([]usecase.NewPlaylist, len(names))
			for i, name := range names {
				newPlaylists[i] = usecase.NewPlaylist{Name: name, Ruleset: args[i]}
			}

			input, err := libraryInput(force)
			if err != nil {
				return err
			}

			ctx := context.Background()
			loaded, err := usecase.NewLibrary(app.logger).Load(ctx, input)
			if err != nil {
				return err
			}

			dbCtx, err := openRegistry()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			result, err := usecase.NewPlaylists(dbCtx, app.logger).Generate(ctx, loaded.Database, usecase.GenerateInput{
				New:         newPlaylists,
				OutputOnly:  outputOnly,
				Replace:     replace,
				PlaylistDir: app.cfg.PlaylistDir,
				Workers:     app.cfg.Workers,
			})
			if err != nil {
				return err
			}

			if outputOnly {
				for _, g := range result.Playlists {
					fmt.Fprint(cmd.OutOrStdout(), g.Output)
				}
				return nil
			}
			app.logger.Info().Int("playlists", len(result.Playlists)).Msg("playlists generated")
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&names, "name", "n", nil, "Name of a new playlist; its ruleset is the matching positional argument")
	cmd.Flags().BoolVarP(&outputOnly, "output-only", "o", false, "Print the new playlists to stdout without saving anything")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Rebuild the library cache from the MPD database")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the ruleset of a saved playlist with the same name")

	return cmd
}
