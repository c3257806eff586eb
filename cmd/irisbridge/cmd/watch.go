package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blue-harrier/irisbridge/internal/config"
	"github.com/blue-harrier/irisbridge/internal/metrics"
)

var (
	watchFlags       pipelineFlags
	watchInterval    time.Duration
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the ingestion pipeline on an interval",
	Long: `Run the ingestion pipeline repeatedly on a fixed interval, serving
Prometheus metrics and a health probe while running.

A failed run is logged and the next tick tries again; the cache keeps
repeated runs idempotent. Stop with SIGINT or SIGTERM.

Examples:
  # Poll every 10 minutes
  irisbridge watch --status closed --source crowdstrike --tags edr --interval 10m

  # Metrics on a custom port
  irisbridge watch --status closed --source crowdstrike --tags edr \
    --metrics-addr :9100`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchFlags.register(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Minute, "time between pipeline runs")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "metrics listen address (default: from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	deps, err := watchFlags.buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer deps.close()

	addr := watchMetricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	srv := metrics.NewServer(addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		runOnce := func() {
			res, err := deps.driver.Run(ctx)
			if err != nil {
				log.Printf("[error] run failed at %s: %v", res.State, err)
				return
			}
			log.Printf("[info] run %s: %d candidates, %d cached, %d dispatched, %d failed",
				res.RunID, res.Candidates, res.Deduplicated, res.Dispatched, res.DispatchFails)
		}

		runOnce()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				runOnce()
			}
		}
	})

	return g.Wait()
}
