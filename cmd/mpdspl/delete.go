package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpdspl/mpdspl/internal/database"
	"github.com/mpdspl/mpdspl/internal/usecase"
)

func newDeleteCmd() *cobra.Command {
	var (
		force    bool
		keepList bool
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "delete <name> | --all",
		Short: "Delete a saved playlist and its list file",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				if len(args) != 0 {
					return errors.New("--all takes no playlist name")
				}
				return nil
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "every saved playlist"
			if !all {
				target = fmt.Sprintf("playlist '%s'", args[0])
			}

			if !force {
				message := fmt.Sprintf("Delete %s and the list files? (y/N) ", target)
				if keepList {
					message = fmt.Sprintf("Delete %s? The list files are kept. (y/N) ", target)
				}

				reader := bufio.NewReader(cmd.InOrStdin())
				fmt.Fprint(cmd.ErrOrStderr(), message)
				answer, err := reader.ReadString('\n')
				if err != nil {
					return err
				}

				answer = strings.TrimSpace(strings.ToLower(answer))
				if answer != "y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}
			}

			dbCtx, err := openRegistry()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			uc := usecase.NewPlaylists(dbCtx, app.logger)
			var records []database.PlaylistRecord
			if all {
				records, err = uc.DeleteAll(context.Background(), keepList)
			} else {
				var record *database.PlaylistRecord
				record, err = uc.Delete(context.Background(), args[0], keepList)
				if record != nil {
					records = append(records, *record)
				}
			}
			if err != nil {
				return err
			}

			for _, record := range records {
				if record.ListPath != "" && !keepList {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted '%s' and %s\n", record.Name, record.ListPath)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted '%s'\n", record.Name)
				}
			}
			if all && len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved playlists")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	cmd.Flags().BoolVar(&keepList, "keep-list", false, "Leave the .m3u files in the playlist directory")
	cmd.Flags().BoolVar(&all, "all", false, "Delete every saved playlist")

	return cmd
}
