package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blue-harrier/irisbridge/internal/cache"
	"github.com/blue-harrier/irisbridge/internal/config"
	"github.com/blue-harrier/irisbridge/internal/falcon"
	"github.com/blue-harrier/irisbridge/internal/history"
	"github.com/blue-harrier/irisbridge/internal/iris"
	"github.com/blue-harrier/irisbridge/internal/normalize"
	"github.com/blue-harrier/irisbridge/internal/pipeline"
)

// pipelineFlags are the flags shared by ingest and watch.
type pipelineFlags struct {
	status      string
	source      string
	tags        []string
	cacheFolder string
	dryRun      bool
	filter      string
	severity    string
	note        string
	customerID  int
	sourceLink  string
	useHistory  bool
}

// register wires the shared pipeline flags onto a command.
func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "incident status filter, e.g. closed (required)")
	cmd.Flags().StringVar(&f.source, "source", "", "alert source tag, e.g. crowdstrike (required)")
	cmd.Flags().StringSliceVar(&f.tags, "tags", nil, "alert tags (required)")
	cmd.Flags().StringVar(&f.cacheFolder, "cache-folder", "", "deduplication cache folder (default: source name)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "log payloads instead of dispatching; writes nothing")
	cmd.Flags().StringVar(&f.filter, "filter", "", `expr predicate over incidents, e.g. 'fine_score >= 50'`)
	cmd.Flags().StringVar(&f.severity, "severity", "", "alert severity: tier word or 0-10 score (default: medium)")
	cmd.Flags().StringVar(&f.note, "note", "", "note attached to every alert")
	cmd.Flags().IntVar(&f.customerID, "customer-id", 0, "IRIS customer id (default: from config/env)")
	cmd.Flags().StringVar(&f.sourceLink, "source-link", "", "URL back to the vendor console")
	cmd.Flags().BoolVar(&f.useHistory, "history", false, "record dispatched alerts in the SQLite history store")

	cmd.MarkFlagRequired("status")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("tags")
}

// pipelineDeps bundles everything a run needs plus the handles to close.
type pipelineDeps struct {
	driver  *pipeline.Driver
	cache   *cache.Store
	history *history.Store // nil unless enabled
}

func (d *pipelineDeps) close() {
	if d.history != nil {
		d.history.Close()
	}
	d.cache.Close()
}

// buildPipeline assembles the driver from flags and config.
func (f *pipelineFlags) buildPipeline(cfg *config.Config) (*pipelineDeps, error) {
	if err := cfg.ValidateFalcon(); err != nil {
		return nil, err
	}

	vendor, err := falcon.NewClient(falcon.Config{
		ClientID:     cfg.Falcon.ClientID,
		ClientSecret: cfg.Falcon.ClientSecret,
		Region:       cfg.Falcon.Region,
	})
	if err != nil {
		return nil, err
	}

	// Dry runs never talk to IRIS, so incomplete sink credentials are
	// only an error when the run would actually dispatch.
	var sink pipeline.AlertSink
	if f.dryRun {
		sink = nullSink{}
	} else {
		if err := cfg.ValidateIRIS(); err != nil {
			return nil, err
		}
		client, err := iris.NewClient(iris.Config{
			BaseURL:       cfg.IRIS.BaseURL,
			APIKey:        cfg.IRIS.APIKey,
			SkipTLSVerify: cfg.IRIS.SkipTLSVerify,
		})
		if err != nil {
			return nil, err
		}
		sink = client
	}

	folder := f.cacheFolder
	if folder == "" {
		folder = f.source
	}
	store, err := cache.Open(folder)
	if err != nil {
		return nil, err
	}

	var hist *history.Store
	var recorder pipeline.HistoryRecorder
	if f.useHistory || cfg.History.Enabled {
		hist, err = history.Open(cfg.History.Path)
		if err != nil {
			store.Close()
			return nil, err
		}
		recorder = hist
	}

	var matcher *pipeline.IncidentMatcher
	if f.filter != "" {
		matcher, err = pipeline.NewIncidentMatcher(f.filter)
		if err != nil {
			if hist != nil {
				hist.Close()
			}
			store.Close()
			return nil, err
		}
	}

	customerID := f.customerID
	if customerID == 0 {
		customerID = cfg.IRIS.CustomerID
	}

	driver := pipeline.NewDriver(vendor, sink, store, recorder, pipeline.Options{
		Status: f.status,
		DryRun: f.dryRun,
		Match:  matcher,
		Alert: normalize.Options{
			SourceTag:  f.source,
			SourceLink: f.sourceLink,
			Severity:   f.severity,
			Tags:       f.tags,
			Note:       f.note,
			CustomerID: customerID,
		},
		Verbose: IsVerbose(),
	})

	return &pipelineDeps{driver: driver, cache: store, history: hist}, nil
}

// nullSink stands in for IRIS on dry runs; the driver never calls it.
type nullSink struct{}

func (nullSink) AddAlert(_ context.Context, _ *iris.Alert) error {
	return fmt.Errorf("dry-run sink should never dispatch")
}
