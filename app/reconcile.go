package app

import "rssdigest/domain"

// Reconcile merges a stored item set with a freshly fetched one.
//
// The fetch decides membership and order; the store decides summaries. merged holds
// the linked entries of newItems in fetch order (first occurrence per link), each
// keeping its stored summary unless the fresh entry brings its own, truncated to
// maxItems. needsEnrichment holds the fresh entries whose link was not stored.
func Reconcile(oldItems, newItems []domain.Entry, maxItems int) (merged, needsEnrichment []domain.Entry) {
	if maxItems < 0 {
		maxItems = 0
	}

	stored := make(map[string]domain.Entry, len(oldItems))
	for _, it := range oldItems {
		if it.Link != "" {
			stored[it.Link] = it
		}
	}

	seen := make(map[string]struct{}, len(newItems))
	merged = make([]domain.Entry, 0, min(len(newItems), maxItems))
	for _, it := range newItems {
		if it.Link == "" {
			continue
		}
		if _, dup := seen[it.Link]; dup {
			continue
		}
		seen[it.Link] = struct{}{}

		prev, known := stored[it.Link]
		if !known {
			needsEnrichment = append(needsEnrichment, it)
		}

		effective := it
		if effective.Summary == "" {
			effective.Summary = prev.Summary
		}
		if len(merged) < maxItems {
			merged = append(merged, effective)
		}
	}
	return merged, needsEnrichment
}
