package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/blue-harrier/irisbridge/internal/cache"
)

var (
	cacheFolder     string
	cachePruneOlder time.Duration
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the deduplication cache",
	Long: `Inspect and manage the on-disk deduplication cache.

Each entry is one already-forwarded incident, stored as compressed JSON
under the cache folder. Removing an entry makes the incident eligible for
forwarding again on the next run.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached incidents",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.Open(cacheFolder)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("cache is empty")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "INCIDENT ID\tSIZE\tCACHED AT")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%d\t%s\n", e.IncidentID, e.Size, e.ModTime.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <incident-id>",
	Short: "Print the cached incident record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.Open(cacheFolder)
		if err != nil {
			return err
		}
		defer store.Close()

		blob, err := store.Get(args[0])
		if err != nil {
			return err
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, blob, "", "  "); err != nil {
			// Not valid JSON; dump it raw rather than hide it.
			os.Stdout.Write(blob)
			return nil
		}
		fmt.Println(pretty.String())
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cache entries older than a duration",
	Long: `Remove cache entries older than --older-than. Pruned incidents will be
forwarded again if the vendor still returns them, so prune only entries
older than the vendor's own retention window.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.Open(cacheFolder)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List()
		if err != nil {
			return err
		}

		cutoff := time.Now().Add(-cachePruneOlder)
		pruned := 0
		for _, e := range entries {
			if e.ModTime.After(cutoff) {
				continue
			}
			if err := store.Remove(e.IncidentID); err != nil {
				PrintError(err.Error(), false)
				continue
			}
			PrintVerbose("pruned %s", e.IncidentID)
			pruned++
		}
		fmt.Printf("pruned %d of %d entries\n", pruned, len(entries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cachePruneCmd)

	cacheCmd.PersistentFlags().StringVar(&cacheFolder, "cache-folder", "crowdstrike", "deduplication cache folder")
	cachePruneCmd.Flags().DurationVar(&cachePruneOlder, "older-than", 90*24*time.Hour, "prune entries older than this")
}
