package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/blue-harrier/irisbridge/internal/config"
	"github.com/blue-harrier/irisbridge/internal/history"
)

var (
	historyLimit    int
	historyOffset   int
	historyIncident string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show dispatched-alert history",
	Long: `Show the SQLite audit trail of dispatched alerts, newest first.
Populated by ingest/watch runs started with --history (or with history
enabled in the config file).`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum rows to show")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "rows to skip")
	historyCmd.Flags().StringVar(&historyIncident, "incident", "", "show only dispatches of one incident id")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var entries []*history.Entry
	var total int64
	if historyIncident != "" {
		entries, err = store.ListByIncident(ctx, historyIncident)
		total = int64(len(entries))
	} else {
		entries, total, err = store.List(ctx, historyLimit, historyOffset)
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no dispatch history")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DISPATCHED AT\tINCIDENT ID\tSEVERITY\tRUN\tTITLE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			e.DispatchedAt.Format(time.RFC3339), e.IncidentID, e.SeverityID, e.RunID, e.AlertTitle)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d of %d entries\n", len(entries), total)
	return nil
}
