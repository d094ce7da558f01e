package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
	"github.com/Sternrassler/space-catalog/pkg/pagination"
)

func newListCmd(a *app) *cobra.Command {
	var (
		page int
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print space objects",
		Long: `Print one page of space objects, ten per page, or with --all every
page merged into one listing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be at least 1 (got %d)", page)
			}
			loader := pagination.ClientLoader{Client: a.client}

			if all {
				items, err := pagination.NewBatchFetcher(loader, pagination.DefaultConfig()).FetchAll(cmd.Context())
				if err != nil {
					return fmt.Errorf("list space objects: %w", err)
				}
				writeObjects(a.out, items)
				fmt.Fprintf(a.out, "\n%d objects\n", len(items))
				return nil
			}

			p, err := loader.LoadPage(cmd.Context(), page, pagination.PageSize)
			if err != nil {
				return fmt.Errorf("list space objects: %w", err)
			}
			writeObjects(a.out, pagination.Merge([]pagination.Page{p}))
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, pageSummary(p))
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	return cmd
}

func pageSummary(p pagination.Page) string {
	s := fmt.Sprintf("page %d, %d objects", p.Number, len(p.Items))
	if p.TotalCount > 0 {
		s += fmt.Sprintf(" of %d", p.TotalCount)
	}
	if p.HasMore {
		s += fmt.Sprintf(" (more with --page %d)", p.Number+1)
	}
	return s
}

func writeObjects(w io.Writer, items []catalog.SpaceObject) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No space objects.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tMASS (KG)\tDIAMETER (KM)\tDISTANCE (LY)\tYEAR\tHABITABLE")
	for _, o := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID,
			o.Name,
			o.Type,
			catalog.FormatScientific(o.Mass),
			catalog.FormatScientific(o.Diameter),
			catalog.FormatScientific(o.Distance),
			strconv.Itoa(o.DiscoveryYear),
			catalog.HabitabilityLabel(o.IsHabitable),
		)
	}
	_ = tw.Flush()
}
