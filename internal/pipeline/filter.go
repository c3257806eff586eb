package pipeline

import "github.com/blue-harrier/irisbridge/internal/cache"

// FilterSeen returns the candidate ids with no existing cache entry, in
// their original order. A corrupt cache entry reads as a miss inside the
// store, so such incidents come back through here and get reprocessed.
func FilterSeen(store *cache.Store, candidates []string) []string {
	fresh := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if store.Contains(id) {
			continue
		}
		fresh = append(fresh, id)
	}
	return fresh
}
