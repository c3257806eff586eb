// Package normalize reduces joined Falcon incidents into the flat shape
// the downstream alert wants: a summary, a readable report, and the alert
// payload itself.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/blue-harrier/irisbridge/internal/falcon"
)

// Summary is the flattened view of one incident with its joined behaviors.
type Summary struct {
	IncidentID string
	Date       time.Time
	State      string
	Tactics    string // comma-joined
	Objectives string // comma-joined
	Users      string // comma-joined
	Hosts      []HostSummary
	Behaviors  []BehaviorSummary
}

// HostSummary is the flat per-host record.
type HostSummary struct {
	DeviceID      string
	ExternalIP    string
	Hostname      string
	LastLoginUser string
	Status        string
}

// BehaviorSummary is the flat per-behavior record.
type BehaviorSummary struct {
	DateOfEvidence time.Time
	UserName       string
	TacticID       string
	SHA256         string
	Cmdline        string
}

// Summarize flattens an incident and its joined behaviors.
func Summarize(inc *falcon.Incident) Summary {
	s := Summary{
		IncidentID: inc.IncidentID,
		Date:       inc.Start,
		State:      inc.State,
		Tactics:    strings.Join(inc.Tactics, ", "),
		Objectives: strings.Join(inc.Objectives, ", "),
		Users:      strings.Join(inc.Users, ", "),
	}

	for _, h := range inc.Hosts {
		s.Hosts = append(s.Hosts, HostSummary{
			DeviceID:      h.DeviceID,
			ExternalIP:    h.ExternalIP,
			Hostname:      h.Hostname,
			LastLoginUser: h.LastLoginUser,
			Status:        h.Status,
		})
	}

	for _, b := range inc.Behaviors {
		s.Behaviors = append(s.Behaviors, BehaviorSummary{
			DateOfEvidence: b.Timestamp,
			UserName:       b.UserName,
			TacticID:       b.TacticID,
			SHA256:         b.SHA256,
			Cmdline:        b.Cmdline,
		})
	}

	return s
}

// Hostnames returns the incident's hostnames joined by comma.
func (s Summary) Hostnames() string {
	names := make([]string, 0, len(s.Hosts))
	for _, h := range s.Hosts {
		names = append(names, h.Hostname)
	}
	return strings.Join(names, ", ")
}

// DisplayText renders the fixed-format incident report used as the alert
// description: a header block, the hosts involved, and the behavior
// evidence, one line each.
func (s Summary) DisplayText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Incident: %s\n", s.IncidentID)
	fmt.Fprintf(&b, "Date: %s\n", s.Date.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Status: %s\n", s.State)
	fmt.Fprintf(&b, "Users: %s\n", s.Users)
	fmt.Fprintf(&b, "Tactics: %s\n", s.Tactics)
	fmt.Fprintf(&b, "Objectives: %s\n", s.Objectives)

	b.WriteString("\nHosts Involved:\n")
	for _, h := range s.Hosts {
		fmt.Fprintf(&b, " - %s ip=%s user=%s status=%s\n",
			h.Hostname, h.ExternalIP, h.LastLoginUser, h.Status)
	}

	b.WriteString("\nBehaviors Evidence:\n")
	for _, bv := range s.Behaviors {
		fmt.Fprintf(&b, " - %s user=%s tactic=%s sha256=%s cmdline=%s\n",
			bv.DateOfEvidence.UTC().Format(time.RFC3339), bv.UserName, bv.TacticID, bv.SHA256, bv.Cmdline)
	}

	return b.String()
}
