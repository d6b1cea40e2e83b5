package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/okian/pairank/internal/simulate"
)

func newSimulateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Rank synthetic items against a hidden order and report the cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, _ := cmd.Flags().GetInt("items")
			seed, _ := cmd.Flags().GetInt64("seed")
			url, _ := cmd.Flags().GetString("url")
			asJSON, _ := cmd.Flags().GetBool("json")

			rep, err := simulate.Run(cmd.Context(), simulate.Config{
				Items:   items,
				Seed:    seed,
				BaseURL: url,
				Logger:  c.log,
			}, c.schedulerOptions()...)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rep, asJSON)
		},
	}
	cmd.Flags().Int("items", simulate.DefaultItems, "Number of synthetic items")
	cmd.Flags().Int64("seed", 1, "Seed for the hidden order")
	cmd.Flags().String("url", "", "Drive a running server at this base URL instead of an in-process scheduler")
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	return cmd
}

func printReport(w io.Writer, rep simulate.Report, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(rep)
	}
	verdict := color.GreenString("correct")
	if !rep.Correct {
		verdict = color.RedString("%d misplaced", rep.Misplaced)
	}
	fmt.Fprintf(w, "items:       %d\n", rep.Items)
	fmt.Fprintf(w, "comparisons: %d of %d pairs (%.1f%%)\n", rep.Comparisons, rep.Naive, rep.Ratio*100)
	fmt.Fprintf(w, "result:      %s, all locked: %t\n", verdict, rep.AllLocked)
	fmt.Fprintf(w, "duration:    %s\n", rep.Duration)
	return nil
}
