// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/codetask/internal/filter"
	"github.com/pdiddy/codetask/internal/papers"
)

var filterCmd = &cobra.Command{
	Use:   "filter [papers.csv]",
	Short: "Preview the keyword filter without any LLM calls",
	Long: `Filter scores every paper in the corpus with the keyword filter and
reports the tier distribution. Use it to sanity-check a corpus and tune
thresholds before spending model calls with "codetask run".`,
	Args: cobra.ExactArgs(1),
	RunE: runFilter,
}

func runFilter(cmd *cobra.Command, args []string) error {
	corpus, _, err := papers.LoadCSV(args[0], corpusOptionsFromFlags(cmd))
	if err != nil {
		return err
	}

	f := filter.New()
	scored := f.ScoreAll(corpus)
	stats := filter.ComputeStats(scored)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scored)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		for _, r := range scored {
			fmt.Fprintf(os.Stdout, "%.2f  %-20s  %s\n", r.RelevanceScore, r.PaperID, r.Reason)
		}
		fmt.Fprintln(os.Stdout)
	}

	fmt.Fprintf(os.Stdout, "papers scored:  %d\n", stats.Total)
	fmt.Fprintf(os.Stdout, "relevant:       %d (%.1f%%)\n", stats.Relevant, 100*stats.RelevanceRate())
	fmt.Fprintf(os.Stdout, "filtered out:   %d (%.1f%%)\n", stats.FilteredOut, 100*stats.FilterRate())
	fmt.Fprintf(os.Stdout, "mean score:     %.2f\n", stats.MeanScore)
	return nil
}

func init() {
	filterCmd.Flags().Int("max-papers", 0, "score at most this many papers (0 = all)")
	filterCmd.Flags().Bool("skip-missing-abstracts", false, "drop papers without an abstract")
	filterCmd.Flags().Bool("verbose", false, "print the score and reason for every paper")
	filterCmd.Flags().Bool("json", false, "output scores as JSON")

	rootCmd.AddCommand(filterCmd)
}
