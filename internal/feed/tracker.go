// Package feed consumes the server's download status push feed: a
// websocket subscription delivering per-chapter status events, and a
// tracker that keeps the latest record per chapter for the merge step.
package feed

import "github.com/csheth/mangadeck/internal/model"

// Tracker keeps the most recent status record per chapter id. Records are
// last-write-wins by arrival: each Apply stamps a monotonically increasing
// sequence and replaces the previous record wholesale, regardless of
// content. Records for chapters the catalog has not loaded yet are kept;
// they surface in the merge as soon as the catalog entry appears.
//
// The tracker is only mutated from the UI update loop; it needs no locking.
type Tracker struct {
	seq     uint64
	records map[int64]model.StatusRecord
}

func NewTracker() *Tracker {
	return &Tracker{records: map[int64]model.StatusRecord{}}
}

// Apply installs rec as the current status for its chapter and returns the
// stamped record.
func (t *Tracker) Apply(rec model.StatusRecord) model.StatusRecord {
	t.seq++
	rec.Seq = t.seq
	t.records[rec.ChapterID] = rec
	return rec
}

// Replace re-seeds the tracker from a full queue snapshot, keeping arrival
// ordering intact for subsequent events.
func (t *Tracker) Replace(records []model.StatusRecord) {
	t.records = make(map[int64]model.StatusRecord, len(records))
	for _, rec := range records {
		t.seq++
		rec.Seq = t.seq
		t.records[rec.ChapterID] = rec
	}
}

// Get returns the latest record for a chapter, if any.
func (t *Tracker) Get(chapterID int64) (model.StatusRecord, bool) {
	rec, ok := t.records[chapterID]
	return rec, ok
}

// Forget drops a chapter's record, e.g. after removing it from the queue.
func (t *Tracker) Forget(chapterID int64) {
	delete(t.records, chapterID)
}

// Snapshot returns a copy of the current records keyed by chapter id, the
// shape the merge step consumes.
func (t *Tracker) Snapshot() map[int64]model.StatusRecord {
	out := make(map[int64]model.StatusRecord, len(t.records))
	for id, rec := range t.records {
		out[id] = rec
	}
	return out
}

// Len reports how many chapters currently have a status record.
func (t *Tracker) Len() int { return len(t.records) }
