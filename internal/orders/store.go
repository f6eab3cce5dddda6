package orders

import "sync"

// Change is one reducer step on a single order. Rolling back applies the
// inverse.
type Change struct {
	ID     string
	Before Order
	After  Order
}

func (c Change) Inverse() Change {
	return Change{ID: c.ID, Before: c.After, After: c.Before}
}

type entry struct {
	order Order
	rev   uint64
}

// Store is the session's source of truth for the order collection. It keeps
// collection order and notifies subscribers after every change. Cancelled
// orders never sit in the collection; they are archived for history browsing.
type Store struct {
	mu       sync.RWMutex
	ids      []string
	byID     map[string]entry
	archived []Order
	rev      uint64
	subs    map[int]func([]Order)
	nextSub int
}

func NewStore() *Store {
	return &Store{
		byID: map[string]entry{},
		subs: map[int]func([]Order){},
	}
}

// Load replaces the whole collection with server truth.
func (s *Store) Load(list []Order) {
	s.mu.Lock()
	s.ids = make([]string, 0, len(list))
	s.byID = make(map[string]entry, len(list))
	s.archived = nil
	seen := make(map[string]bool, len(list))
	for _, o := range list {
		if seen[o.ServerID] {
			continue
		}
		seen[o.ServerID] = true
		if o.Status == StatusCancelled {
			s.archived = append(s.archived, o.clone())
			continue
		}
		s.rev++
		s.ids = append(s.ids, o.ServerID)
		s.byID[o.ServerID] = entry{order: o.clone(), rev: s.rev}
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) Get(id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return Order{}, false
	}
	return e.order.clone(), true
}

// All returns a copy of the collection in collection order.
func (s *Store) All() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Archived returns the cancelled orders, oldest archive first.
func (s *Store) Archived() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, 0, len(s.archived))
	for _, o := range s.archived {
		out = append(out, o.clone())
	}
	return out
}

// History is the collection followed by the archive, for browsing every
// status.
func (s *Store) History() []Order {
	return append(s.All(), s.Archived()...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Apply sets the entry for c.ID to c.After and returns the entry's new
// revision. Nothing happens when the order is no longer in the collection.
func (s *Store) Apply(c Change) (uint64, bool) {
	s.mu.Lock()
	if _, ok := s.byID[c.ID]; !ok {
		s.mu.Unlock()
		return 0, false
	}
	s.rev++
	rev := s.rev
	s.byID[c.ID] = entry{order: c.After.clone(), rev: rev}
	s.mu.Unlock()
	s.notify()
	return rev, true
}

// Revert applies c.Inverse() only if the entry is still at rev, so a newer
// server snapshot is never overwritten by a stale rollback.
func (s *Store) Revert(c Change, rev uint64) bool {
	inv := c.Inverse()
	s.mu.Lock()
	e, ok := s.byID[inv.ID]
	if !ok || e.rev != rev {
		s.mu.Unlock()
		return false
	}
	s.rev++
	s.byID[inv.ID] = entry{order: inv.After.clone(), rev: s.rev}
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Store) revision(id string) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	return e.rev, ok
}

func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	ok := s.removeLocked(id)
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return ok
}

// Archive moves a cancelled order out of the collection.
func (s *Store) Archive(o Order) bool {
	s.mu.Lock()
	ok := s.removeLocked(o.ServerID)
	if ok {
		s.archived = append(s.archived, o.clone())
	}
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return ok
}

func (s *Store) removeLocked(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

// Subscribe registers fn to receive a snapshot after every change. fn runs
// synchronously on the goroutine that made the change.
func (s *Store) Subscribe(fn func([]Order)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	if len(s.subs) == 0 {
		s.mu.RUnlock()
		return
	}
	snap := s.snapshotLocked()
	fns := make([]func([]Order), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) snapshotLocked() []Order {
	out := make([]Order, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.byID[id].order.clone())
	}
	return out
}
