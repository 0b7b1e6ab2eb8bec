package cmd

import (
	"fmt"
	"io"

	"tablo/internal/db"
	"tablo/internal/model"
	"tablo/internal/util"

	ptable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	c := &cobra.Command{
		Use:   "history",
		Short: "Show recently visited query lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1")
			}
			s, err := openSession(opts.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := db.ListHistory(cmd.Context(), s.db, limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	c.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return c
}

func renderHistory(w io.Writer, entries []model.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history yet.")
		return
	}
	t := ptable.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(ptable.StyleLight)
	t.AppendHeader(ptable.Row{"#", "Query", "Visited"})
	for i, e := range entries {
		t.AppendRow(ptable.Row{i + 1, "?" + e.RawQuery, util.FormatTimeHuman(e.VisitedAt)})
	}
	t.Render()
}
