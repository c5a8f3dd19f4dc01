package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdziat/simple-recurring-visits/pkg/materialize"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		templateID string
		from       string
		count      int
	)

	cmd := &cobra.Command{
		Use:   "generate <pattern-id>",
		Short: "Create jobs for upcoming occurrences of a pattern",
		Long: `Create one job per upcoming occurrence, each copying the template job's
groups and service points. Jobs already committed when a later occurrence
fails are kept and printed before the error.`,
		Args: cobra.ExactArgs(1),
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

			ids, err := m.Generate(cmd.Context(), materialize.Request{
				PatternID:     args[0],
				TemplateJobID: templateID,
				Reference:     ref,
				Occurrences:   count,
			})
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			if err != nil {
				return fmt.Errorf("generated %d jobs before failing: %w", len(ids), err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&templateID, "template", "t", "", "template job ID")
	cmd.Flags().StringVar(&from, "from", "", "reference date YYYY-MM-DD (default today)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of occurrences (default 10)")
	return cmd
}
