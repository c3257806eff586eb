package falcon

import (
	"encoding/json"
	"time"
)

// Incident is a Falcon incident entity: a vendor-defined grouping of
// related detected activity on one or more hosts.
type Incident struct {
	IncidentID string    `json:"incident_id"`
	State      string    `json:"state"` // "open" or "closed"
	Created    time.Time `json:"created"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	FineScore  int       `json:"fine_score"`
	Tactics    []string  `json:"tactics"`
	Techniques []string  `json:"techniques"`
	Objectives []string  `json:"objectives"`
	Users      []string  `json:"users"`
	Hosts      []Host    `json:"hosts"`

	// Behaviors is populated by the join step, not by the API.
	Behaviors []*Behavior `json:"-"`

	// Raw is the incident record exactly as the API returned it,
	// kept for the cache blob.
	Raw json.RawMessage `json:"-"`
}

// Host is a device involved in an incident. Owned by its parent incident.
type Host struct {
	DeviceID      string `json:"device_id"`
	Hostname      string `json:"hostname"`
	ExternalIP    string `json:"external_ip"`
	LastLoginUser string `json:"last_login_user"`
	Status        string `json:"status"`
}

// Behavior is a single detected action. A behavior may reference several
// incidents and an incident may collect many behaviors; the join keeps a
// single shared record per behavior.
type Behavior struct {
	BehaviorID  string    `json:"behavior_id"`
	IncidentIDs []string  `json:"incident_ids"`
	Timestamp   time.Time `json:"timestamp"`
	UserName    string    `json:"user_name"`
	TacticID    string    `json:"tactic_id"`
	TechniqueID string    `json:"technique_id"`
	SHA256      string    `json:"sha256"`
	Cmdline     string    `json:"cmdline"`
}
