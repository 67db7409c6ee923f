// Package queue owns the locally held download queue order and the
// optimistic reorder state machine. The controller is the only writer of
// the order; screens read it and feed remote-call results back in.
package queue

import (
	"errors"

	"github.com/csheth/mangadeck/internal/model"
)

// ErrInvalidMove reports indices inconsistent with the current queue state.
// It is returned synchronously and no mutation has been performed.
var ErrInvalidMove = errors.New("queue: invalid move")

// Phase is the reorder lifecycle. Exactly one remote mutation may be in
// flight per queue; everything else is Idle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
)

// Move is an accepted reorder the caller must submit to the server and then
// resolve. It carries the item identity and destination index the remote
// mutation needs.
type Move struct {
	ChapterID int64
	To        int
}

// Resolution is the outcome of resolving an in-flight move. When the remote
// call failed, RolledBack is set and Err carries the cause. Next, when
// non-nil, is a deferred move that has now been applied optimistically and
// must be submitted in turn.
type Resolution struct {
	RolledBack bool
	Err        error
	Next       *Move
}

type deferredMove struct {
	chapterID int64
	to        int
}

// Controller mirrors the server's download queue ordering and applies user
// moves optimistically. It is driven entirely from the UI update loop: one
// writer, no locks.
type Controller struct {
	order     []model.StatusRecord
	confirmed []model.StatusRecord

	staged    []model.StatusRecord
	hasStaged bool

	phase    Phase
	inflight *Move
	deferred []deferredMove
}

// New seeds the controller from an authoritative server snapshot.
func New(snapshot []model.StatusRecord) *Controller {
	c := &Controller{}
	c.order = cloneQueue(snapshot)
	c.confirmed = cloneQueue(snapshot)
	return c
}

// Items returns the current (possibly optimistic) ordering.
func (c *Controller) Items() []model.StatusRecord {
	return cloneQueue(c.order)
}

// Len returns the current queue length.
func (c *Controller) Len() int { return len(c.order) }

// Phase reports whether a reorder mutation is in flight.
func (c *Controller) Phase() Phase { return c.phase }

// ApplySnapshot installs a fresh server snapshot. While a move is pending
// the snapshot is only staged: swapping it in immediately would clobber the
// optimistic order with state that may predate the confirm. It is swapped
// in when the pending move resolves.
func (c *Controller) ApplySnapshot(snapshot []model.StatusRecord) {
	if c.phase == PhasePending {
		c.staged = cloneQueue(snapshot)
		c.hasStaged = true
		return
	}
	c.order = cloneQueue(snapshot)
	c.confirmed = cloneQueue(snapshot)
}

// RequestMove asks to move the item at from to position to. Equal indices
// are a no-op. Out-of-bounds indices, or a from index that does not hold
// chapterID, fail with ErrInvalidMove. While another move is pending the
// request is deferred, not applied, so moves never race each other; it will
// surface as Resolution.Next once the pending move resolves.
//
// On acceptance the order is spliced immediately and the returned Move must
// be submitted to the server and passed back through Resolve.
func (c *Controller) RequestMove(chapterID int64, from, to int) (*Move, error) {
	if from == to {
		return nil, nil
	}
	if from < 0 || from >= len(c.order) || to < 0 || to >= len(c.order) {
		return nil, ErrInvalidMove
	}
	if c.order[from].ChapterID != chapterID {
		return nil, ErrInvalidMove
	}

	if c.phase == PhasePending {
		c.deferred = append(c.deferred, deferredMove{chapterID: chapterID, to: to})
		return nil, nil
	}

	c.splice(from, to)
	move := &Move{ChapterID: chapterID, To: to}
	c.phase = PhasePending
	c.inflight = move
	return move, nil
}

// Resolve completes the in-flight move. A nil callErr confirms the
// optimistic order; any error rolls the order back to the last
// externally-confirmed snapshot, not merely an un-splice, because the
// server may have changed underneath us. Either way a snapshot that
// arrived while pending is swapped in now, and the oldest applicable
// deferred move, if any, is applied and returned for submission.
func (c *Controller) Resolve(m *Move, callErr error) Resolution {
	if c.inflight == nil || m != c.inflight {
		// Stale resolution, e.g. from a screen that already re-seeded.
		return Resolution{}
	}

	c.phase = PhaseIdle
	c.inflight = nil

	res := Resolution{}
	switch {
	case callErr != nil:
		res.RolledBack = true
		res.Err = callErr
		if c.hasStaged {
			c.order = cloneQueue(c.staged)
			c.confirmed = cloneQueue(c.staged)
		} else {
			c.order = cloneQueue(c.confirmed)
		}
	case c.hasStaged:
		c.order = cloneQueue(c.staged)
		c.confirmed = cloneQueue(c.staged)
	default:
		c.confirmed = cloneQueue(c.order)
	}
	c.staged = nil
	c.hasStaged = false

	res.Next = c.applyNextDeferred()
	return res
}

// applyNextDeferred pops deferred moves until one still applies. The
// original from index is not trusted: it described a queue that has since
// moved, so the item is located by id against the current order and the
// destination is clamped into bounds. Moves whose item has left the queue
// are moot and dropped.
func (c *Controller) applyNextDeferred() *Move {
	for len(c.deferred) > 0 {
		d := c.deferred[0]
		c.deferred = c.deferred[1:]

		from := c.indexOf(d.chapterID)
		if from < 0 {
			continue
		}
		to := d.to
		if to >= len(c.order) {
			to = len(c.order) - 1
		}
		if to < 0 || from == to {
			continue
		}

		c.splice(from, to)
		move := &Move{ChapterID: d.chapterID, To: to}
		c.phase = PhasePending
		c.inflight = move
		return move
	}
	return nil
}

func (c *Controller) splice(from, to int) {
	item := c.order[from]
	rest := append(c.order[:from:from], c.order[from+1:]...)
	c.order = append(rest[:to:to], append([]model.StatusRecord{item}, rest[to:]...)...)
}

func (c *Controller) indexOf(chapterID int64) int {
	for i, rec := range c.order {
		if rec.ChapterID == chapterID {
			return i
		}
	}
	return -1
}

func cloneQueue(in []model.StatusRecord) []model.StatusRecord {
	out := make([]model.StatusRecord, len(in))
	copy(out, in)
	return out
}
