package guard

import "sync"

// Events remembers processed update ids for the lifetime of the process.
type Events struct {
	mu   sync.Mutex
	seen map[int]struct{}
}

// NewEvents creates an empty set.
func NewEvents() *Events {
	return &Events{seen: make(map[int]struct{})}
}

// Mark records id as handled. Once marked, every later delivery of id must be
// dropped.
func (e *Events) Mark(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seen[id] = struct{}{}
}

// Seen reports whether id was admitted before.
func (e *Events) Seen(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.seen[id]
	return ok
}

// Len returns the number of remembered ids.
func (e *Events) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.seen)
}
