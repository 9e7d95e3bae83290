package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/report"
	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search academic APIs for candidate papers",
	Long: `Search queries the enabled academic APIs (arXiv, Semantic Scholar,
OpenAlex) for papers matching a research topic or structured parameters.
Results are deduplicated across sources and ranked by relevance. The
candidates are unverified; run executes the full pipeline.`,
	RunE: runSearchOnly,
}

func init() {
	searchCmd.Flags().String("topic", "", "free-text research topic")
	searchCmd.Flags().String("author", "", "filter by author name")
	searchCmd.Flags().String("domain", "", "field of study used when ranking results")
	searchCmd.Flags().StringSlice("keyword", nil, "filter keyword (repeatable)")
	searchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().Int("min-citations", 0, "minimum citation count")
	searchCmd.Flags().Int("max-results", 20, "maximum number of results to return")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("csl", false, "output results as a CSL-YAML bibliography")
	searchCmd.Flags().String("save", "", "save the query and results to a YAML file")
	searchCmd.Flags().String("load", "", "reprint a saved query file instead of searching")
	searchCmd.MarkFlagsMutuallyExclusive("topic", "load")

	rootCmd.AddCommand(searchCmd)
}

func runSearchOnly(cmd *cobra.Command, args []string) error {
	if path, _ := cmd.Flags().GetString("load"); path != "" {
		return reprintQueryFile(cmd, path)
	}

	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" {
		return fmt.Errorf("either --topic or --load is required")
	}
	author, _ := cmd.Flags().GetString("author")
	domain, _ := cmd.Flags().GetString("domain")
	keywords, _ := cmd.Flags().GetStringSlice("keyword")
	minCitations, _ := cmd.Flags().GetInt("min-citations")

	query := search.Query{
		FreeText:     topic,
		Author:       author,
		Keywords:     keywords,
		Domain:       domain,
		MinCitations: minCitations,
	}

	var err error
	if query.DateFrom, err = parseDateFlag(cmd, "from"); err != nil {
		return err
	}
	if query.DateTo, err = parseDateFlag(cmd, "to"); err != nil {
		return err
	}

	cfg := pipelineConfig()
	// Standalone search returns exactly what was asked for; the overfetch
	// margin only matters when verification losses follow.
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Search.MaxResults = n
	}
	cfg.Search.OverfetchFactor = 1

	out, err := search.Run(cmd.Context(), query, search.EnabledBackends(cfg.Search), cfg.Search, logger)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := search.WriteQueryFile(path, query, cfg.Search, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d papers to %s\n", len(out.Papers), path)
	}

	return printSearchOutput(cmd, out)
}

// reprintQueryFile renders a previously saved query file without hitting
// any APIs. Useful for re-exporting an exploratory search as JSON or CSL.
func reprintQueryFile(cmd *cobra.Command, path string) error {
	qf, err := search.ReadQueryFile(path)
	if err != nil {
		return err
	}
	query, err := qf.Query.ToQuery()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Loaded %d papers for %q (saved %s)\n",
		len(qf.Papers), query.FreeText, qf.Summary.Timestamp.Local().Format("2006-01-02 15:04"))

	out := search.Output{
		Papers:        qf.Papers,
		DupsRemoved:   qf.Summary.DuplicatesRemoved,
		Filtered:      qf.Summary.Filtered,
		BackendErrors: qf.Summary.BackendErrors,
	}
	return printSearchOutput(cmd, out)
}

func printSearchOutput(cmd *cobra.Command, out search.Output) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cslOutput, _ := cmd.Flags().GetBool("csl")
	switch {
	case jsonOutput:
		return search.FormatJSON(out, os.Stdout)
	case cslOutput:
		return report.FormatCSL(types.ResearchReport{Papers: out.Papers}, os.Stdout)
	default:
		search.FormatTable(out, os.Stdout)
		return nil
	}
}
