package pipeline

import "github.com/hazyhaar/revpull/review"

// Snapshot is one captured rendering of the page. The controller owns it
// for a single loop iteration and never retains it after parsing.
type Snapshot struct {
	HTML string
	Seq  int
}

// extractionState is the controller's mutable run state. Only the
// controller touches it; a run is sequential so no locking is needed.
// Invariant: every id in records appears exactly once in seen, and records
// preserves first-seen order.
type extractionState struct {
	seen    map[string]struct{}
	records []review.Record
	noNew   int // consecutive iterations without a new record
	seq     int // last snapshot sequence number
}

func newExtractionState() *extractionState {
	return &extractionState{seen: make(map[string]struct{})}
}

// absorb filters candidates through the seen-set, appends the fresh ones,
// and reports how many were new.
func (st *extractionState) absorb(candidates []review.Record) int {
	fresh := Filter(candidates, st.seen)
	st.records = append(st.records, fresh...)
	return len(fresh)
}

// mergeExpanded absorbs candidates parsed after the expand pass. A
// candidate with an unseen id whose author and raw date match an emitted
// record carrying a body-derived id is that record's expanded form: the
// longer body changed the hash, not the review. It replaces the truncated
// version in place, keeping its position. Everything else goes through
// the normal first-seen filter.
func (st *extractionState) mergeExpanded(candidates []review.Record) int {
	byIdentity := make(map[string]int)
	for i, r := range st.records {
		if r.ID == review.DeriveID(r.Author, r.PublishedRaw, r.Body) {
			byIdentity[r.Author+"\x00"+r.PublishedRaw] = i
		}
	}

	fresh := 0
	for _, c := range candidates {
		if _, dup := st.seen[c.ID]; dup {
			continue
		}
		if i, ok := byIdentity[c.Author+"\x00"+c.PublishedRaw]; ok {
			delete(st.seen, st.records[i].ID)
			st.seen[c.ID] = struct{}{}
			st.records[i] = c
			continue
		}
		st.seen[c.ID] = struct{}{}
		st.records = append(st.records, c)
		fresh++
	}
	return fresh
}

func (st *extractionState) nextSeq() int {
	st.seq++
	return st.seq
}
