package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		from   string
		count  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "preview <pattern-id>",
		Short: "Show upcoming occurrence dates without creating jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseDateFlag("from", from)
			if err != nil {
				return err
			}

			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			m, err := a.materializer(store)
			if err != nil {
				return err
			}
			dates, err := m.Preview(cmd.Context(), args[0], ref, count)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(dates)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tDAY")
			for _, d := range dates {
				fmt.Fprintf(w, "%s\t%s\n", d.Date.Format(core.DateLayout), d.WeekdayName)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "reference date YYYY-MM-DD (default today)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of occurrences (default 10)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
