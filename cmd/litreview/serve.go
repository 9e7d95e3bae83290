package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/archive"
	"github.com/pdiddy/litreview/internal/httpapi"
	"github.com/pdiddy/litreview/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the review pipeline over HTTP",
	Long: `Serve runs the HTTP API: review submission, state polling, report
retrieval, and the archive listing. Each submission runs as an independent
workflow; server.max_active bounds how many run at once. The server drains
gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	// One stage set for all submissions, so concurrent workflows share
	// the LLM rate limiter.
	stages, err := workflow.StagesFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	store, err := archive.Open(cfg.Archive)
	if err != nil {
		return err
	}
	defer store.Close()

	factory := func() httpapi.Runner {
		ctrl := workflow.New(cfg, stages, logger)
		ctrl.ArchiveTo(store)
		return ctrl
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return httpapi.New(cfg.Server, factory, store, logger).ListenAndServe(ctx)
}
