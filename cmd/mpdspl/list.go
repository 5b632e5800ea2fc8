package main

import (
	"context"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/mpdspl/mpdspl/internal/database"
	"github.com/mpdspl/mpdspl/internal/usecase"
)

func newListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved playlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			records, err := usecase.NewPlaylists(dbCtx, app.logger).List(context.Background())
			if err != nil {
				return err
			}

			if format == formatTable {
				outputTable(cmd, records)
				return nil
			}
			output := make([]playlistOutput, len(records))
			for i, rec := range records {
				output[i] = newPlaylistOutput(rec)
			}
			return writeStructured(cmd, format, output)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table, json or yaml")

	return cmd
}

type playlistOutput struct {
	Name        string `json:"name" yaml:"name"`
	Ruleset     string `json:"ruleset" yaml:"ruleset"`
	Tracks      int64  `json:"tracks" yaml:"tracks"`
	ListPath    string `json:"listPath,omitempty" yaml:"list_path,omitempty"`
	Hash        string `json:"hash,omitempty" yaml:"hash,omitempty"`
	CreatedAt   string `json:"createdAt" yaml:"created_at"`
	EvaluatedAt string `json:"evaluatedAt,omitempty" yaml:"evaluated_at,omitempty"`
}

func newPlaylistOutput(rec database.PlaylistRecord) playlistOutput {
	out := playlistOutput{
		Name:      rec.Name,
		Ruleset:   rec.Ruleset,
		Tracks:    rec.TrackCount,
		ListPath:  rec.ListPath,
		Hash:      rec.Hash,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.Evaluated() {
		out.EvaluatedAt = rec.EvaluatedAt.Format(time.RFC3339)
	}
	return out
}

// columnWidths holds the widths of the columns that shrink to fit the terminal.
type columnWidths struct {
	name    int
	ruleset int
}

// calculateColumnWidths gives names room for their longest value, capped, and
// the ruleset whatever is left.
func calculateColumnWidths(termWidth int, records []database.PlaylistRecord) columnWidths {
	const (
		tracksWidth    = 6
		evaluatedWidth = 16 // "2006-01-02 15:04"
		borderPadding  = 4 * 3
	)

	nameWidth := 4
	for _, rec := range records {
		if w := runewidth.StringWidth(rec.Name); w > nameWidth {
			nameWidth = w
		}
	}
	if nameWidth > 40 {
		nameWidth = 40
	}

	rulesetWidth := termWidth - borderPadding - tracksWidth - evaluatedWidth - nameWidth
	if rulesetWidth < 15 {
		rulesetWidth = 15
	}
	return columnWidths{name: nameWidth, ruleset: rulesetWidth}
}

func outputTable(cmd *cobra.Command, records []database.PlaylistRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	// Cells are truncated with runewidth before they reach the table;
	// go-pretty's WidthMax miscounts wide characters.
	widths := calculateColumnWidths(getTerminalWidth(), records)

	t.AppendHeader(table.Row{"Name", "Tracks", "Evaluated", "Ruleset"})
	for _, rec := range records {
		evaluated := "never"
		if rec.Evaluated() {
			evaluated = rec.EvaluatedAt.Local().Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{
			fitWidth(rec.Name, widths.name),
			rec.TrackCount,
			evaluated,
			fitWidth(rec.Ruleset, widths.ruleset),
		})
	}

	t.Render()
}
