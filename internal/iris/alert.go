// Package iris is a client for the IRIS case-management alert intake API.
package iris

import "encoding/json"

// Alert is the payload for POST /alerts/add.
type Alert struct {
	Title            string          `json:"alert_title"`
	Description      string          `json:"alert_description"`
	Source           string          `json:"alert_source"`
	SourceRef        string          `json:"alert_source_ref"`
	SourceLink       string          `json:"alert_source_link"`
	SourceContent    json.RawMessage `json:"alert_source_content,omitempty"`
	SeverityID       int             `json:"alert_severity_id"` // 1-6
	StatusID         int             `json:"alert_status_id"`
	SourceEventTime  string          `json:"alert_source_event_time"` // ISO-8601
	Note             string          `json:"alert_note"`
	Tags             string          `json:"alert_tags"` // comma-joined
	IOCs             []IndicatorStub `json:"alert_iocs"`
	Assets           []AssetStub     `json:"alert_assets"`
	CustomerID       int             `json:"alert_customer_id"`
	ClassificationID int             `json:"alert_classification_id,omitempty"`
}

// StatusNew is the IRIS alert status id for a freshly created alert.
const StatusNew = 2

// AssetStub is a minimal asset reference attached to an alert. Only the
// name is filled from the incident's host; the rest stays at its zero
// value, no enrichment happens here.
type AssetStub struct {
	AssetName        string `json:"asset_name"`
	AssetDescription string `json:"asset_description"`
	AssetIP          string `json:"asset_ip"`
	AssetTypeID      int    `json:"asset_type_id"`
}

// IndicatorStub is a minimal IOC reference attached to an alert. The
// upstream feed never filled these in, so one empty stub is emitted per
// behavior; populating them is an open item, not something this layer
// invents values for.
type IndicatorStub struct {
	IOCValue       string `json:"ioc_value"`
	IOCDescription string `json:"ioc_description"`
	IOCTypeID      int    `json:"ioc_type_id"`
	IOCTLPID       int    `json:"ioc_tlp_id"`
}
