package pipeline

import "github.com/blue-harrier/irisbridge/internal/falcon"

// JoinBehaviors attaches every behavior to every incident it references.
// The relation is many-to-many: a behavior listing three incidents lands
// in all three behavior lists, as the same shared record. A behavior whose
// incident list matches nothing is dropped silently; the behavior query
// was scoped to these incidents so that should not happen.
//
// The nested membership scan is O(incidents x behaviors x refs). Batches
// are at most a few hundred records and live for one run, so no index is
// built.
func JoinBehaviors(incidents []*falcon.Incident, behaviors []*falcon.Behavior) int {
	joined := 0
	for _, inc := range incidents {
		for _, b := range behaviors {
			for _, ref := range b.IncidentIDs {
				if ref == inc.IncidentID {
					inc.Behaviors = append(inc.Behaviors, b)
					joined++
					break
				}
			}
		}
	}
	return joined
}
