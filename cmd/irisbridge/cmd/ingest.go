package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blue-harrier/irisbridge/internal/config"
)

var ingestFlags pipelineFlags

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion pass",
	Long: `Run the ingestion pipeline once: query incident ids for the given
status, drop the ones already in the cache, resolve incidents and their
behaviors, and forward each new incident as one IRIS alert.

An incident is marked in the cache only after IRIS accepts its alert, so a
failed dispatch is retried on the next run. With --dry-run nothing is
dispatched and nothing is written.

Examples:
  # Forward closed incidents
  irisbridge ingest --status closed --source crowdstrike --tags edr,falcon

  # Only high-scoring incidents, as high-severity alerts
  irisbridge ingest --status closed --source crowdstrike --tags edr \
    --filter 'fine_score >= 70' --severity high

  # Rehearse without side effects
  irisbridge ingest --status closed --source crowdstrike --tags edr --dry-run`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestFlags.register(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	deps, err := ingestFlags.buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer deps.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		PrintVerbose("Received interrupt, stopping...")
		cancel()
	}()

	res, err := deps.driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline failed at %s: %w", res.State, err)
	}

	if res.DryRun {
		fmt.Printf("dry run: %d candidates, %d already cached, %d would be dispatched\n",
			res.Candidates, res.Deduplicated, res.Resolved-res.FilteredOut)
		return nil
	}

	fmt.Printf("run %s: %d candidates, %d already cached, %d filtered out, %d dispatched, %d failed\n",
		res.RunID, res.Candidates, res.Deduplicated, res.FilteredOut, res.Dispatched, res.DispatchFails)
	return nil
}
