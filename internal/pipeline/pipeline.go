// Package pipeline drives one ingestion run: query incident ids from the
// vendor, drop the ones already cached, resolve incidents and behaviors,
// join them, normalize, and hand each alert to the sink.
package pipeline

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/blue-harrier/irisbridge/internal/cache"
	"github.com/blue-harrier/irisbridge/internal/falcon"
	"github.com/blue-harrier/irisbridge/internal/iris"
	"github.com/blue-harrier/irisbridge/internal/metrics"
	"github.com/blue-harrier/irisbridge/internal/normalize"
)

// VendorAPI is the slice of the Falcon client the pipeline consumes.
type VendorAPI interface {
	QueryIncidentIDs(ctx context.Context, filter, sort string) ([]string, error)
	GetIncidents(ctx context.Context, ids []string) ([]*falcon.Incident, error)
	QueryBehaviorIDs(ctx context.Context, filter string) ([]string, error)
	GetBehaviors(ctx context.Context, ids []string) ([]*falcon.Behavior, error)
}

// AlertSink receives one normalized alert per incident.
type AlertSink interface {
	AddAlert(ctx context.Context, alert *iris.Alert) error
}

// HistoryRecorder records successfully dispatched alerts. Best-effort: a
// recording failure is logged, never fatal.
type HistoryRecorder interface {
	Record(ctx context.Context, runID, incidentID, title string, severityID int) error
}

// State is the pipeline's position within a run.
type State int

const (
	StateIdle State = iota
	StateQuerying
	StateFiltering
	StateResolving
	StateJoining
	StateNormalizing
	StateDispatching
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQuerying:
		return "querying"
	case StateFiltering:
		return "filtering"
	case StateResolving:
		return "resolving"
	case StateJoining:
		return "joining"
	case StateNormalizing:
		return "normalizing"
	case StateDispatching:
		return "dispatching"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures one pipeline run.
type Options struct {
	// Status is the incident state filter, e.g. "closed".
	Status string
	// Sort is the vendor sort order. Default: "start|desc".
	Sort string
	// DryRun renders and logs payloads without dispatching or writing
	// anything. Fully non-mutating.
	DryRun bool
	// Match, when set, narrows the run to incidents the expression accepts.
	Match *IncidentMatcher
	// Alert holds the normalized-alert construction options.
	Alert normalize.Options
	// Verbose enables per-incident progress logging.
	Verbose bool
}

// Result summarizes one run.
type Result struct {
	RunID         string
	State         State
	Candidates    int // ids the vendor query returned
	Deduplicated  int // dropped by the cache filter
	Resolved      int // full incident records fetched
	FilteredOut   int // rejected by the match expression
	Dispatched    int // alerts accepted by the sink
	DispatchFails int // alerts the sink rejected
	DryRun        bool
}

// Driver runs the ingestion pipeline. Stateless across runs except through
// the cache store.
type Driver struct {
	vendor  VendorAPI
	sink    AlertSink
	cache   *cache.Store
	history HistoryRecorder // may be nil
	opts    Options

	state State
}

// NewDriver creates a pipeline driver. history may be nil.
func NewDriver(vendor VendorAPI, sink AlertSink, store *cache.Store, history HistoryRecorder, opts Options) *Driver {
	if opts.Sort == "" {
		opts.Sort = "start|desc"
	}
	return &Driver{
		vendor:  vendor,
		sink:    sink,
		cache:   store,
		history: history,
		opts:    opts,
		state:   StateIdle,
	}
}

// State returns the driver's current state.
func (d *Driver) State() State {
	return d.state
}

// Run executes one full pipeline pass. A vendor error during query or
// resolve aborts the run with no cache mutation; a sink error for one
// incident is logged and does not block the rest.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	res := &Result{
		RunID:  uuid.New().String(),
		DryRun: d.opts.DryRun,
	}

	d.state = StateQuerying
	ids, err := d.vendor.QueryIncidentIDs(ctx, falcon.StateFilter(d.opts.Status), d.opts.Sort)
	if err != nil {
		return d.fail(res, err)
	}
	res.Candidates = len(ids)
	metrics.IncidentsQueried.Add(float64(len(ids)))
	if len(ids) == 0 {
		log.Printf("[info] run %s: no incidents match status %q, nothing to do", res.RunID, d.opts.Status)
		return d.done(res, "empty"), nil
	}

	d.state = StateFiltering
	fresh := FilterSeen(d.cache, ids)
	res.Deduplicated = len(ids) - len(fresh)
	metrics.IncidentsDeduplicated.Add(float64(res.Deduplicated))
	if len(fresh) == 0 {
		log.Printf("[info] run %s: all %d incidents already processed", res.RunID, len(ids))
		return d.done(res, "empty"), nil
	}

	d.state = StateResolving
	incidents, err := d.vendor.GetIncidents(ctx, fresh)
	if err != nil {
		return d.fail(res, err)
	}
	res.Resolved = len(incidents)

	behaviorIDs, err := d.vendor.QueryBehaviorIDs(ctx, falcon.BehaviorFilter(fresh))
	if err != nil {
		return d.fail(res, err)
	}
	behaviors, err := d.vendor.GetBehaviors(ctx, behaviorIDs)
	if err != nil {
		return d.fail(res, err)
	}

	d.state = StateJoining
	joined := JoinBehaviors(incidents, behaviors)
	metrics.BehaviorsJoined.Add(float64(joined))
	if d.opts.Verbose {
		log.Printf("[info] run %s: resolved %d incidents, %d behaviors, %d associations",
			res.RunID, len(incidents), len(behaviors), joined)
	}

	d.state = StateNormalizing
	type unit struct {
		incident *falcon.Incident
		alert    *iris.Alert
	}
	units := make([]unit, 0, len(incidents))
	for _, inc := range incidents {
		if d.opts.Match != nil {
			ok, err := d.opts.Match.Match(inc)
			if err != nil {
				log.Printf("[warn] run %s: filter expression on %s: %v", res.RunID, inc.IncidentID, err)
				res.FilteredOut++
				continue
			}
			if !ok {
				res.FilteredOut++
				continue
			}
		}
		summary := normalize.Summarize(inc)
		units = append(units, unit{
			incident: inc,
			alert:    normalize.BuildAlert(summary, d.opts.Alert, inc.Raw),
		})
	}

	d.state = StateDispatching
	for _, u := range units {
		if d.opts.DryRun {
			rendered, _ := json.MarshalIndent(u.alert, "", "  ")
			log.Printf("[info] run %s: dry-run, would dispatch %s:\n%s", res.RunID, u.incident.IncidentID, rendered)
			continue
		}

		if err := d.sink.AddAlert(ctx, u.alert); err != nil {
			log.Printf("[error] run %s: dispatch %s: %v", res.RunID, u.incident.IncidentID, err)
			res.DispatchFails++
			metrics.DispatchErrors.Inc()
			continue
		}
		res.Dispatched++
		metrics.AlertsDispatched.Inc()
		if d.opts.Verbose {
			log.Printf("[info] run %s: dispatched %s", res.RunID, u.incident.IncidentID)
		}

		// Mark processed only after the sink accepted the alert. A failed
		// cache write means the incident may be re-sent next run; the
		// alternative, caching before dispatch, can lose alerts.
		if err := d.cache.Put(u.incident.IncidentID, u.incident.Raw); err != nil {
			log.Printf("[warn] run %s: cache write %s: %v", res.RunID, u.incident.IncidentID, err)
			metrics.CacheWriteErrors.Inc()
		}

		if d.history != nil {
			if err := d.history.Record(ctx, res.RunID, u.incident.IncidentID, u.alert.Title, u.alert.SeverityID); err != nil {
				log.Printf("[warn] run %s: history write %s: %v", res.RunID, u.incident.IncidentID, err)
			}
		}
	}

	return d.done(res, "ok"), nil
}

func (d *Driver) done(res *Result, outcome string) *Result {
	d.state = StateDone
	res.State = StateDone
	metrics.RunsTotal.WithLabelValues(outcome).Inc()
	return res
}

func (d *Driver) fail(res *Result, err error) (*Result, error) {
	d.state = StateFailed
	res.State = StateFailed
	metrics.RunsTotal.WithLabelValues("failed").Inc()
	return res, err
}
