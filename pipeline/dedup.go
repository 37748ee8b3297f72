package pipeline

import "github.com/hazyhaar/revpull/review"

// Filter returns the candidates whose ids are not yet in seen, preserving
// candidate order, and records them in seen. Equality is by id only: a
// record with a seen id but different text (an edited review) keeps the
// first-seen version, trading freshness for a termination guarantee.
func Filter(candidates []review.Record, seen map[string]struct{}) []review.Record {
	var fresh []review.Record
	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		fresh = append(fresh, c)
	}
	return fresh
}
