package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/archive"
	"github.com/pdiddy/litreview/internal/report"
	"github.com/pdiddy/litreview/internal/workflow"
	"github.com/pdiddy/litreview/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full literature-review pipeline",
	Long: `Run executes the complete review workflow for a research topic: candidate
search across academic APIs, independent cross-checking of every candidate,
model-driven analysis of the survivors, limitation extraction, and research
gap synthesis. Progress goes to stderr; the report goes to stdout or
--output in the chosen format.`,
	RunE: runReview,
}

func init() {
	runCmd.Flags().String("topic", "", "research topic (required)")
	runCmd.Flags().String("domain", "", "field of study used when ranking candidates")
	runCmd.Flags().StringSlice("keyword", nil, "additional search keyword (repeatable)")
	runCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	runCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	runCmd.Flags().Int("min-citations", 0, "minimum citation count for candidates")
	runCmd.Flags().Int("max-papers", 0, "maximum verified papers in the report (default 10, cap 50)")
	runCmd.Flags().String("provider", "", "language-model provider: anthropic, gemini, or openai")
	runCmd.Flags().String("model", "", "model identifier override")
	runCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	runCmd.Flags().String("format", "markdown", "report format: markdown, json, yaml, csl, or bibtex")
	runCmd.Flags().Bool("archive", false, "save the finished report to the archive")
	_ = runCmd.MarkFlagRequired("topic")

	rootCmd.AddCommand(runCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	query, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if err := validateFormat(format); err != nil {
		return err
	}

	cfg := pipelineConfig()
	applyLLMFlags(cmd, &cfg)

	ctrl, err := workflow.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("archive"); save {
		store, err := archive.Open(cfg.Archive)
		if err != nil {
			return err
		}
		defer store.Close()
		ctrl.ArchiveTo(store)
	}

	ctrl.Observe(progressBanner(os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := ctrl.Run(ctx, query)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return writeReport(rep, format, out)
}

// queryFromFlags builds the research query. Validation happens inside
// the controller so the CLI and the HTTP API reject identically.
func queryFromFlags(cmd *cobra.Command) (types.ResearchQuery, error) {
	topic, _ := cmd.Flags().GetString("topic")
	domain, _ := cmd.Flags().GetString("domain")
	keywords, _ := cmd.Flags().GetStringSlice("keyword")
	minCitations, _ := cmd.Flags().GetInt("min-citations")
	maxPapers, _ := cmd.Flags().GetInt("max-papers")

	query := types.ResearchQuery{
		Topic:        topic,
		Domain:       domain,
		Keywords:     keywords,
		MinCitations: minCitations,
		MaxPapers:    maxPapers,
	}

	var err error
	if query.DateFrom, err = parseDateFlag(cmd, "from"); err != nil {
		return types.ResearchQuery{}, err
	}
	if query.DateTo, err = parseDateFlag(cmd, "to"); err != nil {
		return types.ResearchQuery{}, err
	}
	return query, nil
}

func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q: use YYYY-MM-DD", name, raw)
	}
	return t, nil
}

// applyLLMFlags overrides the provider and model from flags. Switching
// providers re-resolves the credential for the new provider.
func applyLLMFlags(cmd *cobra.Command, cfg *types.PipelineConfig) {
	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		cfg.LLM.Provider = provider
		cfg.LLM.APIKey = apiKeyFor(provider)
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.LLM.Model = model
	}
}

// progressBanner prints one line per stage transition.
func progressBanner(w io.Writer) func(workflow.State) {
	var last workflow.Stage
	return func(st workflow.State) {
		if st.Status == workflow.StatusFailed {
			fmt.Fprintf(w, "[%3d%%] failed: %s\n", st.Progress, st.Err)
			return
		}
		if st.Stage == last {
			return
		}
		last = st.Stage
		if st.Stage == workflow.StageCompleted {
			fmt.Fprintf(w, "[%3d%%] completed: %d verified, %d limitations, %d gaps\n",
				st.Progress, st.Counters.Verified, st.Counters.Limitations, st.Counters.Gaps)
			return
		}
		fmt.Fprintf(w, "[%3d%%] %s\n", st.Progress, st.Stage)
	}
}

func validateFormat(format string) error {
	switch format {
	case "", "markdown", "json", "yaml", "csl", "bibtex":
		return nil
	}
	return fmt.Errorf("unsupported format %q: use markdown, json, yaml, csl, or bibtex", format)
}

func writeReport(rep types.ResearchReport, format string, w io.Writer) error {
	switch format {
	case "json":
		return report.FormatJSON(rep, w)
	case "yaml":
		return report.FormatYAML(rep, w)
	case "csl":
		return report.FormatCSL(rep, w)
	case "bibtex":
		_, err := io.WriteString(w, report.GenerateBibTeX(rep))
		return err
	default:
		report.FormatMarkdown(rep, w)
		return nil
	}
}
