package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
)

func newPatternCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Manage recurring patterns",
	}
	cmd.AddCommand(
		newPatternCreateCmd(a),
		newPatternListCmd(a),
		newPatternShowCmd(a),
		newPatternDeleteCmd(a),
	)
	return cmd
}

func newPatternCreateCmd(a *app) *cobra.Command {
	var (
		frequency string
		days      []string
		start     string
		end       string
		endAfter  int
		interval  int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a recurring pattern",
		Example: `  visits pattern create --frequency weekly --days mon,thu --start 2025-01-06
  visits pattern create --frequency custom --interval 3 --end-after 12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			freq, err := core.ParseFrequency(frequency)
			if err != nil {
				return err
			}
			weekdays, err := core.ParseWeekdays(days)
			if err != nil {
				return err
			}

			p := &core.Pattern{
				Frequency:  freq,
				DaysOfWeek: weekdays,
				StartDate:  core.DateOf(time.Now()),
			}
			if start != "" {
				if p.StartDate, err = parseDateFlag("start", start); err != nil {
					return err
				}
			}
			if end != "" {
				d, err := parseDateFlag("end", end)
				if err != nil {
					return err
				}
				p.EndDate = &d
			}
			if cmd.Flags().Changed("end-after") {
				p.EndAfterOccurrences = &endAfter
			}
			if cmd.Flags().Changed("interval") {
				p.CustomInterval = &interval
			}

			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.CreatePattern(cmd.Context(), p); err != nil {
				return err
			}
			a.log.Info("pattern created", "pattern_id", p.ID, "frequency", p.Frequency)
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&frequency, "frequency", "f", "", "daily, weekly, biweekly, monthly or custom")
	cmd.Flags().StringSliceVar(&days, "days", nil, "days of week for weekly and biweekly patterns (mon,thu)")
	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&end, "end", "", "inclusive end date YYYY-MM-DD")
	cmd.Flags().IntVar(&endAfter, "end-after", 0, "stop after this many occurrences per generation")
	cmd.Flags().IntVar(&interval, "interval", 0, "days between occurrences for custom patterns")
	_ = cmd.MarkFlagRequired("frequency")
	return cmd
}

func newPatternListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			patterns, err := store.ListPatterns(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFREQUENCY\tDAYS\tSTART\tEND")
			for _, p := range patterns {
				endDate := "-"
				if p.EndDate != nil {
					endDate = p.EndDate.Format(core.DateLayout)
				}
				days := "-"
				if len(p.DaysOfWeek) > 0 {
					days = strings.Join(p.DaysOfWeek.Names(), ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.Frequency, days, p.StartDate.Format(core.DateLayout), endDate)
			}
			return w.Flush()
		},
	}
}

// patternView is the YAML shape printed by `pattern show`.
type patternView struct {
	ID                  string    `yaml:"id"`
	Frequency           string    `yaml:"frequency"`
	CustomInterval      *int      `yaml:"custom_interval,omitempty"`
	DaysOfWeek          []string  `yaml:"days_of_week,omitempty"`
	StartDate           string    `yaml:"start_date"`
	EndDate             string    `yaml:"end_date,omitempty"`
	EndAfterOccurrences *int      `yaml:"end_after_occurrences,omitempty"`
	Jobs                []jobView `yaml:"jobs"`
}

type jobView struct {
	ID     string `yaml:"id"`
	Date   string `yaml:"date"`
	Status string `yaml:"status"`
}

func newPatternShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <pattern-id>",
		Short: "Show a pattern and its materialized jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			p, err := store.GetPattern(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("pattern %s: %w", args[0], err)
			}
			jobs, err := store.ListJobsByPattern(cmd.Context(), p.ID)
			if err != nil {
				return err
			}

			view := patternView{
				ID:                  p.ID,
				Frequency:           string(p.Frequency),
				CustomInterval:      p.CustomInterval,
				DaysOfWeek:          p.DaysOfWeek.Names(),
				StartDate:           p.StartDate.Format(core.DateLayout),
				EndAfterOccurrences: p.EndAfterOccurrences,
				Jobs:                make([]jobView, len(jobs)),
			}
			if p.EndDate != nil {
				view.EndDate = p.EndDate.Format(core.DateLayout)
			}
			for i, j := range jobs {
				view.Jobs[i] = jobView{ID: j.ID, Date: j.Date.Format(core.DateLayout), Status: string(j.Status)}
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(view); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newPatternDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pattern-id>",
		Short: "Delete a pattern that has no jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			err = store.DeletePattern(cmd.Context(), args[0])
			switch {
			case errors.Is(err, core.ErrPatternInUse):
				return fmt.Errorf("pattern %s still has jobs; delete them first: %w", args[0], err)
			case err != nil:
				return fmt.Errorf("pattern %s: %w", args[0], err)
			}
			a.log.Info("pattern deleted", "pattern_id", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
