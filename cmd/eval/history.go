package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/model-eval/internal/store"
)

func newHistoryCmd(st *cliState) *cobra.Command {
	var (
		evalName string
		model    string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past evaluation runs",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			stor, err := store.Open(st.cfg.Storage)
			if err != nil {
				return err
			}
			defer stor.Close()

			runs, err := stor.ListRuns(cmd.Context(), store.RunFilter{
				EvalName: evalName,
				Model:    model,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tEVAL\tMODEL\tSCORE\tCORRECT\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\t%d/%d\t%s\n",
					r.RunID, r.EvalName, r.Model, r.Score, r.Correct, r.TotalSamples,
					r.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&evalName, "eval", "", "filter by eval name")
	cmd.Flags().StringVar(&model, "model", "", "filter by model")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")

	cmd.AddCommand(newHistoryShowCmd(st))
	return cmd
}

func newHistoryShowCmd(st *cliState) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a past run's full report",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return fmt.Errorf("history: missing run id")
			}

			format, err := resolveOutputFormat(output, st.cfg.Evaluation.OutputFormat)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}

			stor, err := store.Open(st.cfg.Storage)
			if err != nil {
				return err
			}
			defer stor.Close()

			report, err := stor.GetRun(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("history: run %q: %w", id, err)
			}

			_, _ = fmt.Fprint(cmd.OutOrStdout(), FormatReport(report, format))
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "output format: table|json|github")
	return cmd
}
