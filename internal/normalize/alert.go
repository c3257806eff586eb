package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/blue-harrier/irisbridge/internal/iris"
)

// Options enumerates every recognized alert-construction option with its
// default. There is no dynamic option bag; unset fields fall back here.
type Options struct {
	// SourceTag names the ingestion source, e.g. "crowdstrike". Required.
	SourceTag string
	// SourceLink is a URL back to the vendor console. Default: empty.
	SourceLink string
	// Severity is a tier word or a 0-10 score. Default: medium.
	Severity string
	// Tags are joined by comma into the alert tags field. Default: none.
	Tags []string
	// Note is attached verbatim. Default: empty.
	Note string
	// CustomerID is the IRIS customer the alert belongs to. Default: 0.
	CustomerID int
	// Date overrides the event time. Default: the incident's start time.
	Date time.Time
}

// BuildAlert maps a summary onto the downstream alert payload. rawContent,
// when non-nil, is attached as the alert's source content for audit.
func BuildAlert(s Summary, opts Options, rawContent json.RawMessage) *iris.Alert {
	severity := ParseSeverity(opts.Severity)

	eventTime := s.Date
	if !opts.Date.IsZero() {
		eventTime = opts.Date
	}

	alert := &iris.Alert{
		Title:           fmt.Sprintf("%s: %s - %s", opts.SourceTag, s.Tactics, s.Hostnames()),
		Description:     s.DisplayText(),
		Source:          opts.SourceTag,
		SourceRef:       s.IncidentID,
		SourceLink:      opts.SourceLink,
		SourceContent:   rawContent,
		SeverityID:      SeverityID(severity),
		StatusID:        iris.StatusNew,
		SourceEventTime: eventTime.UTC().Format(time.RFC3339),
		Note:            opts.Note,
		Tags:            strings.Join(opts.Tags, ","),
		CustomerID:      opts.CustomerID,
	}

	for _, h := range s.Hosts {
		alert.Assets = append(alert.Assets, iris.AssetStub{AssetName: h.Hostname})
	}

	// One empty stub per behavior. The upstream never filled indicator
	// values, so neither does this; see the IndicatorStub doc.
	for range s.Behaviors {
		alert.IOCs = append(alert.IOCs, iris.IndicatorStub{})
	}

	return alert
}
