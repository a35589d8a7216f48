// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/codetask/internal/results"
	"github.com/pdiddy/codetask/pkg/types"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Query and export results from previous pipeline runs",
	Long: `Results reads the SQLite database written by "codetask run". Use
subcommands to search stored extractions or export them to YAML/JSON.`,
}

// --- query subcommand ---

var resultsQueryCmd = &cobra.Command{
	Use:   "query [search terms]",
	Short: "Search stored results with full-text search and filters",
	Long: `Query searches the task text of stored results using FTS5 full-text
search, optionally combined with structured filters on domain, quality,
and task status.`,
	RunE: runResultsQuery,
}

func runResultsQuery(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	found, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(found)
	}

	if len(found) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-40s  %-7s  %-8s  %s\n",
		"Paper", "Task", "Score", "Quality", "Domain")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, r := range found {
		task := "-"
		domain := "-"
		quality := "-"
		if r.Categories != nil {
			task = truncate(r.Categories.TaskSummary, 40)
			if r.Categories.Domain.IsSet() {
				domain = r.Categories.Domain.String()
			}
		}
		if r.Quality != nil {
			quality = fmt.Sprintf("%.2f", r.Quality.Overall())
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-40s  %-7.2f  %-8s  %s\n",
			truncate(r.Paper.PaperID, 20), task, r.FilterResult.RelevanceScore, quality, domain)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(found))
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n-3]) + "..."
	}
	return s
}

// --- export subcommand ---

var resultsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored results to YAML or JSON",
	Long: `Export writes stored results (or a filtered subset) to export.yaml or
export.json inside the results directory. Supports the same filter flags
as query for partial exports.`,
	RunE: runResultsExport,
}

func runResultsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	resultsDir, _ := cmd.Flags().GetString("results-dir")

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(cmd.Context(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.yaml\n", resultsDir)
	case "json":
		if err := store.ExportJSON(cmd.Context(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.json\n", resultsDir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*results.Store, error) {
	resultsDir, _ := cmd.Flags().GetString("results-dir")
	return results.NewStore(types.ResultsConfig{Dir: resultsDir})
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) results.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	domain, _ := cmd.Flags().GetString("domain")
	onlyTasks, _ := cmd.Flags().GetBool("tasks-only")
	minQuality, _ := cmd.Flags().GetFloat64("min-quality")
	limit, _ := cmd.Flags().GetInt("limit")

	return results.QueryOptions{
		Query:      queryText,
		OnlyTasks:  onlyTasks,
		Domain:     domain,
		MinQuality: minQuality,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	resultsCmd.PersistentFlags().String("results-dir", "results", "directory holding the results database")

	// Query flags.
	resultsQueryCmd.Flags().String("query", "", "full-text search query")
	resultsQueryCmd.Flags().String("domain", "", "filter by programming domain label")
	resultsQueryCmd.Flags().Bool("tasks-only", false, "only papers with a confirmed coding task")
	resultsQueryCmd.Flags().Float64("min-quality", 0, "minimum overall quality score")
	resultsQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	resultsQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	resultsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	resultsExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	resultsExportCmd.Flags().String("domain", "", "filter by programming domain for partial export")
	resultsExportCmd.Flags().Bool("tasks-only", false, "only export confirmed coding tasks")
	resultsExportCmd.Flags().Float64("min-quality", 0, "minimum overall quality score")
	resultsExportCmd.Flags().Int("limit", 0, "maximum results to export (0 = all)")

	resultsCmd.AddCommand(resultsQueryCmd)
	resultsCmd.AddCommand(resultsExportCmd)

	rootCmd.AddCommand(resultsCmd)
}
