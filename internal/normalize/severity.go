package normalize

import (
	"strconv"
	"strings"
)

// Severity is the four-tier alert severity.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// numericTiers maps a 0-10 score onto a tier. Entries are evaluated in
// order and the first match wins, so the overlap at the boundaries is
// resolved low, then medium, then high; anything left is critical.
var numericTiers = []struct {
	below float64
	tier  Severity
}{
	{4, SeverityLow},
	{7, SeverityMedium},
	{10, SeverityHigh},
}

// severityIDs maps a tier onto the IRIS severity id scale (1-6).
var severityIDs = map[Severity]int{
	SeverityLow:      2,
	SeverityMedium:   4,
	SeverityHigh:     5,
	SeverityCritical: 6,
}

// ParseSeverity maps an operator-supplied severity option onto a tier.
// The option may be a tier word, matched case-insensitively on its first
// letter ("l", "m", "h", "c"), or a number on a 0-10 scale. Anything
// unrecognized, including the empty string, is medium.
func ParseSeverity(option string) Severity {
	option = strings.TrimSpace(option)
	if option == "" {
		return SeverityMedium
	}

	if score, err := strconv.ParseFloat(option, 64); err == nil {
		for _, t := range numericTiers {
			if score < t.below {
				return t.tier
			}
		}
		return SeverityCritical
	}

	switch strings.ToLower(option)[:1] {
	case "l":
		return SeverityLow
	case "m":
		return SeverityMedium
	case "h":
		return SeverityHigh
	case "c":
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// SeverityID returns the IRIS severity id for a tier.
func SeverityID(s Severity) int {
	if id, ok := severityIDs[s]; ok {
		return id
	}
	return severityIDs[SeverityMedium]
}
