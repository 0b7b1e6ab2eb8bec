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

func newViewsCmd(opts *rootOptions) *cobra.Command {
	c := &cobra.Command{
		Use:   "views",
		Short: "List saved views",
		Long: `List the named query lines saved from the table with "m".
Start from one with: tablo --view NAME`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			views, err := db.ListViews(cmd.Context(), s.db)
			if err != nil {
				return err
			}
			renderViews(cmd.OutOrStdout(), views)
			return nil
		},
	}

	c.AddCommand(&cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"delete"},
		Short:   "Delete a saved view",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := db.DeleteView(cmd.Context(), s.db, args[0]); err != nil {
				return fmt.Errorf("view %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted view %q\n", args[0])
			return nil
		},
	})

	return c
}

func renderViews(w io.Writer, views []model.SavedView) {
	if len(views) == 0 {
		fmt.Fprintln(w, "No saved views.")
		return
	}
	t := ptable.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(ptable.StyleLight)
	t.AppendHeader(ptable.Row{"Name", "Query", "Saved"})
	for _, v := range views {
		t.AppendRow(ptable.Row{v.Name, "?" + v.RawQuery, util.FormatTimeHuman(v.CreatedAt)})
	}
	t.Render()
}
