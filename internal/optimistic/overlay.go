package optimistic

import (
	"fmt"
	"sync"
)

// Overlay is the in-memory keyed store for optimistic toggle state
// (likes, follows). Each key holds the last confirmed state plus the
// ordered list of pending mutations; the visible state is the confirmed
// state with every pending mutation replayed. A toggle therefore computes
// its delta from the current overlay state, so rapid double-toggles
// converge on the final requested state instead of accumulating.
type Overlay struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[string]*entry
}

// ToggleState is the (active, count) pair a toggle manipulates.
type ToggleState struct {
	Active bool
	Count  int64
}

// Ticket identifies one pending mutation for commit or rollback.
type Ticket struct {
	key string
	id  uint64
}

type mutation struct {
	id     uint64
	target bool
}

type entry struct {
	confirmed ToggleState
	pending   []mutation
}

func NewOverlay() *Overlay {
	return &Overlay{entries: make(map[string]*entry)}
}

// Key builds the overlay key for a relation pair.
func Key(kind string, subjectID, objectID int64) string {
	return fmt.Sprintf("%s:%d:%d", kind, subjectID, objectID)
}

// State returns the visible state for key, if the overlay holds it.
func (o *Overlay) State(key string) (ToggleState, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.entries[key]
	if !ok {
		return ToggleState{}, false
	}
	return e.visible(), true
}

// Begin registers a toggle computed from the current visible state,
// seeding the confirmed state from seed when the key is new. It returns
// the ticket for later Commit/Rollback and the state now visible to every
// concurrent reader.
func (o *Overlay) Begin(key string, seed ToggleState) (Ticket, ToggleState) {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.entries[key]
	if !ok {
		e = &entry{confirmed: seed}
		o.entries[key] = e
	}
	o.nextID++
	m := mutation{id: o.nextID, target: !e.visible().Active}
	e.pending = append(e.pending, m)
	return Ticket{key: key, id: m.id}, e.visible()
}

// Commit folds a resolved mutation into the confirmed state and returns
// it. The return value excludes mutations still pending, so it is safe
// to persist to the cache row: an unresolved toggle that later rolls
// back never reaches disk through another toggle's commit.
func (o *Overlay) Commit(t Ticket) ToggleState {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.entries[t.key]
	if !ok {
		return ToggleState{}
	}
	if m, ok := e.take(t.id); ok {
		e.confirmed = apply(e.confirmed, m.target)
	}
	return e.confirmed
}

// Rollback discards a failed mutation. The visible state is recomputed
// from the confirmed state plus the surviving pending mutations, so no
// partial (active, count) pair is ever observable.
func (o *Overlay) Rollback(t Ticket) ToggleState {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.entries[t.key]
	if !ok {
		return ToggleState{}
	}
	e.take(t.id)
	return e.visible()
}

// Drop forgets a key with no pending mutations. Used once the confirmed
// state has been persisted to the cache row.
func (o *Overlay) Drop(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.entries[key]; ok && len(e.pending) == 0 {
		delete(o.entries, key)
	}
}

func (e *entry) visible() ToggleState {
	s := e.confirmed
	for _, m := range e.pending {
		s = apply(s, m.target)
	}
	return s
}

func (e *entry) take(id uint64) (mutation, bool) {
	for i, m := range e.pending {
		if m.id == id {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return m, true
		}
	}
	return mutation{}, false
}

func apply(s ToggleState, target bool) ToggleState {
	if s.Active == target {
		return s
	}
	s.Active = target
	if target {
		s.Count++
	} else {
		s.Count--
	}
	return s
}
