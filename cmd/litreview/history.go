// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/archive"
	"github.com/pdiddy/litreview/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived review reports",
	Long: `History manages the local SQLite archive of finished reviews. Use
subcommands to list recent reviews, print a stored report, search the
archive, or delete entries.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived reviews, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatEntries(entries, jsonOutput)
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived review report",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	rep, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if err := validateFormat(format); err != nil {
		return err
	}
	return writeReport(*rep, format, os.Stdout)
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export <id> <file>",
	Short: "Export an archived review to a YAML review file",
	Long: `Export writes the complete stored report, including analyses and
rejection records, to a portable YAML file that import can read back.`,
	Args: cobra.ExactArgs(2),
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	rep, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := report.WriteReviewFile(args[1], *rep); err != nil {
		return err
	}
	fmt.Printf("Exported %s to %s\n", rep.ID, args[1])
	return nil
}

// --- import subcommand ---

var historyImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a review file into the archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryImport,
}

func runHistoryImport(cmd *cobra.Command, args []string) error {
	rep, err := report.ReadReviewFile(args[0])
	if err != nil {
		return err
	}
	if rep.ID == "" {
		return fmt.Errorf("review file %s has no report ID", args[0])
	}

	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(cmd.Context(), *rep); err != nil {
		return err
	}
	fmt.Printf("Imported %s (%s)\n", rep.ID, rep.Query.Topic)
	return nil
}

// --- search subcommand ---

var historySearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Full-text search over archived reviews",
	Long: `Search matches the given text against archived topics, executive
summaries, and gap titles using FTS5, ranked by relevance.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHistorySearch,
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Search(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatEntries(entries, jsonOutput)
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived review",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

// --- shared helpers ---

func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	cfg := pipelineConfig().Archive
	if path, _ := cmd.Flags().GetString("archive-path"); path != "" {
		cfg.Path = path
	}
	return archive.Open(cfg)
}

func formatEntries(entries []archive.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No archived reviews.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-22s  %-6s  %-4s  %-16s  %s\n",
		"ID", "Status", "Papers", "Gaps", "Created", "Topic")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for _, e := range entries {
		topic := e.Topic
		if len(topic) > 44 {
			topic = topic[:41] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-22s  %-6d  %-4d  %-16s  %s\n",
			e.ID, e.Status, e.PaperCount, e.GapCount,
			e.CreatedAt.Local().Format("2006-01-02 15:04"), topic)
	}

	fmt.Fprintf(os.Stdout, "\n%d reviews\n", len(entries))
	return nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	historyCmd.PersistentFlags().String("archive-path", "", "SQLite archive file (default litreview.db)")

	historyListCmd.Flags().Int("limit", 0, "maximum entries (0 = archive default)")
	historyListCmd.Flags().Bool("json", false, "output entries as JSON")

	historyShowCmd.Flags().String("format", "markdown", "report format: markdown, json, yaml, csl, or bibtex")

	historySearchCmd.Flags().Int("limit", 0, "maximum entries (0 = archive default)")
	historySearchCmd.Flags().Bool("json", false, "output entries as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyImportCmd)

	rootCmd.AddCommand(historyCmd)
}
