// Package selection tracks multi-selection state for list screens. Each
// screen owns one named scope; scopes never share state and live only as
// long as the screen that created them.
package selection

import "sort"

// Store holds the selection scopes. It performs no I/O and is only ever
// mutated from the UI update loop, so it needs no locking.
type Store struct {
	scopes map[string]*scope
}

type scope struct {
	ids       map[int64]struct{}
	anchor    int64
	hasAnchor bool

	// lastRange remembers the ids applied by the most recent range
	// selection so a follow-up range from the same anchor replaces it
	// instead of accumulating.
	lastRange map[int64]struct{}
}

func NewStore() *Store {
	return &Store{scopes: map[string]*scope{}}
}

func (s *Store) scopeFor(name string) *scope {
	sc, ok := s.scopes[name]
	if !ok {
		sc = &scope{ids: map[int64]struct{}{}}
		s.scopes[name] = sc
	}
	return sc
}

// Toggle flips membership of id and makes it the new range anchor.
func (s *Store) Toggle(scopeName string, id int64) {
	sc := s.scopeFor(scopeName)
	if _, ok := sc.ids[id]; ok {
		delete(sc.ids, id)
	} else {
		sc.ids[id] = struct{}{}
	}
	sc.anchor = id
	sc.hasAnchor = true
	sc.lastRange = nil
}

// SelectRange selects every id between the current anchor and id, inclusive,
// positionally within visible (the currently rendered order, not catalog
// order). Without an anchor it degrades to Toggle. An anchor that filtering
// has pushed out of the visible sequence collapses the range to the target
// alone. A second range from the same anchor replaces the previous one, so
// the resulting set is re-derivable from anchor and target.
func (s *Store) SelectRange(scopeName string, id int64, visible []int64) {
	sc := s.scopeFor(scopeName)
	if !sc.hasAnchor {
		s.Toggle(scopeName, id)
		return
	}

	target := indexOf(visible, id)
	if target < 0 {
		return
	}
	from := indexOf(visible, sc.anchor)
	if from < 0 {
		from = target
	}
	lo, hi := from, target
	if lo > hi {
		lo, hi = hi, lo
	}

	for prev := range sc.lastRange {
		delete(sc.ids, prev)
	}
	applied := make(map[int64]struct{}, hi-lo+1)
	for i := lo; i <= hi; i++ {
		sc.ids[visible[i]] = struct{}{}
		applied[visible[i]] = struct{}{}
	}
	sc.lastRange = applied
}

// SelectAll replaces the selection with the given ids.
func (s *Store) SelectAll(scopeName string, ids []int64) {
	sc := s.scopeFor(scopeName)
	sc.ids = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		sc.ids[id] = struct{}{}
	}
	sc.lastRange = nil
}

// SelectNone empties the selection and forgets the anchor.
func (s *Store) SelectNone(scopeName string) {
	sc := s.scopeFor(scopeName)
	sc.ids = map[int64]struct{}{}
	sc.hasAnchor = false
	sc.anchor = 0
	sc.lastRange = nil
}

// IsSelected reports membership of id. The second return is false when the
// scope has no selections at all, letting callers distinguish "selection
// mode inactive" from "explicitly deselected".
func (s *Store) IsSelected(scopeName string, id int64) (selected, active bool) {
	sc, ok := s.scopes[scopeName]
	if !ok || len(sc.ids) == 0 {
		return false, false
	}
	_, selected = sc.ids[id]
	return selected, true
}

// SelectedIDs returns the selection in ascending id order.
func (s *Store) SelectedIDs(scopeName string) []int64 {
	sc, ok := s.scopes[scopeName]
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(sc.ids))
	for id := range sc.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Count returns the number of selected ids in the scope.
func (s *Store) Count(scopeName string) int {
	sc, ok := s.scopes[scopeName]
	if !ok {
		return 0
	}
	return len(sc.ids)
}

// Prune drops every selected id that no longer exists in the catalog.
// Selections merely hidden by a filter are kept; ids deleted from existence
// must not dangle. The anchor follows the same rule.
func (s *Store) Prune(scopeName string, existing []int64) {
	sc, ok := s.scopes[scopeName]
	if !ok {
		return
	}
	keep := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		keep[id] = struct{}{}
	}
	for id := range sc.ids {
		if _, ok := keep[id]; !ok {
			delete(sc.ids, id)
		}
	}
	for id := range sc.lastRange {
		if _, ok := keep[id]; !ok {
			delete(sc.lastRange, id)
		}
	}
	if sc.hasAnchor {
		if _, ok := keep[sc.anchor]; !ok {
			sc.hasAnchor = false
			sc.anchor = 0
		}
	}
}

// Drop discards a scope entirely. Screens call this on unmount.
func (s *Store) Drop(scopeName string) {
	delete(s.scopes, scopeName)
}

func indexOf(ids []int64, id int64) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}
