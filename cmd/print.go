package cmd

import (
	"fmt"
	"io"

	"tablo/internal/model"
	"tablo/internal/query"
	"tablo/internal/table"
	"tablo/internal/util"

	ptable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const (
	formatTable    = "table"
	formatMarkdown = "markdown"
	formatCSV      = "csv"
)

func newPrintCmd(opts *rootOptions) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "print",
		Short: "Fetch one page and print it",
		Long: `Fetch the page described by the query line and print it without
starting the interactive table. The query comes from --query or --view;
history is not consulted.`,
		Example: `  tablo print --query 'sortBy=last_name&itemsPerPage=25'
  tablo print --view engineers --format markdown
  tablo print --format csv > page.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatTable, formatMarkdown, formatCSV:
			default:
				return fmt.Errorf("unknown format %q (want table, markdown or csv)", format)
			}
			return runPrint(cmd, opts, format)
		},
	}

	c.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, markdown, csv")
	return c
}

func runPrint(cmd *cobra.Command, opts *rootOptions, format string) error {
	s, err := openSession(opts.cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()

	raw, err := initialQuery(ctx, cmd, s.db, opts, false)
	if err != nil {
		return err
	}
	policy, err := s.cfg.ResetPolicy()
	if err != nil {
		return err
	}
	ctrl, err := table.New(s.cfg.Columns, query.NewStore(raw, nil),
		table.WithResetPolicy(policy),
		table.WithFallbackTotal(s.cfg.TotalItems),
		table.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}
	client, err := newClient(s.cfg, opts.version)
	if err != nil {
		return err
	}

	req := ctrl.Start()
	page, fetchErr := client.Fetch(ctx, req.Options)
	ctrl.Resolve(req.Seq, page, fetchErr)
	if fetchErr != nil {
		return fmt.Errorf("fetch failed: %w", fetchErr)
	}

	return renderPage(cmd.OutOrStdout(), ctrl.Snapshot(), format)
}

// renderPage writes the page in the given format. Table and markdown output
// end with a pagination footer.
func renderPage(w io.Writer, v model.View, format string) error {
	t := ptable.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(ptable.StyleLight)

	header := make(ptable.Row, 0, len(v.Headers))
	for _, col := range v.Headers {
		header = append(header, col.Title())
	}
	t.AppendHeader(header)

	for _, item := range v.Items {
		row := make(ptable.Row, 0, len(v.Headers))
		for _, col := range v.Headers {
			value := item.Value(col.Name)
			if format != formatCSV {
				value = util.FormatCell(value)
			}
			row = append(row, value)
		}
		t.AppendRow(row)
	}

	switch format {
	case formatMarkdown:
		t.RenderMarkdown()
	case formatCSV:
		t.RenderCSV()
		return nil
	default:
		t.Render()
	}

	opts := v.Options
	footer := fmt.Sprintf("page %s · %d per page",
		util.FormatPage(opts.Page, v.TotalPages, v.TotalKnown), int(opts.ItemsPerPage))
	if v.TotalKnown {
		footer += " · " + util.Plural(v.TotalItems, "item")
	}
	if len(v.Items) == 0 {
		footer += " · no rows"
	}
	_, err := fmt.Fprintf(w, "(%s)\n", footer)
	return err
}
