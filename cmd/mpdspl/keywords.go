package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mpdspl/mpdspl/internal/keyword"
)

type keywordOutput struct {
	Code        string `json:"code" yaml:"code"`
	Attribute   string `json:"attribute" yaml:"attribute"`
	Description string `json:"description" yaml:"description"`
}

func newKeywordsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "List the keywords a rule can use",
		Args:  cobra.NoArgs,
		// Needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			all := keyword.All()
			if format != formatTable {
				output := make([]keywordOutput, len(all))
				for i, kw := range all {
					output[i] = keywordOutput{Code: kw.Code, Attribute: kw.Canonical, Description: kw.Description}
				}
				return writeStructured(cmd, format, output)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Code", "Attribute", "Description"})
			for _, kw := range all {
				t.AppendRow(table.Row{kw.Code, kw.Canonical, kw.Description})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table, json or yaml")

	return cmd
}
