package queue

import (
	"sync"
	"time"
)

// Record is one waiting participant. Ordering is decided by Seq, a
// monotonic counter assigned at enqueue time, so concurrent arrivals with
// equal timestamps still have a total, identity-independent order.
type Record struct {
	Identity   string
	EnqueuedAt time.Time
	LastSeen   time.Time
	Seq        uint64
}

// Queue is a FIFO of waiting participants with at most one entry per
// identity. All operations take the internal lock, so two concurrent
// DequeueFront calls can never observe the same record. The broker owns
// the only Queue instance and additionally serializes compound
// operations (pairing vs. removal) through its actor loop.
type Queue struct {
	mu      sync.Mutex
	seq     uint64
	entries []*Record
	index   map[string]*Record
}

func New() *Queue {
	return &Queue{index: make(map[string]*Record)}
}

// Enqueue appends identity and reports whether a new record was created.
// An identity that is already queued keeps its original position: a
// duplicate join is an idempotent no-op.
func (q *Queue) Enqueue(identity string, now time.Time) (Record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if r, ok := q.index[identity]; ok {
		r.LastSeen = now
		return *r, false
	}

	q.seq++
	r := &Record{Identity: identity, EnqueuedAt: now, LastSeen: now, Seq: q.seq}
	q.entries = append(q.entries, r)
	q.index[identity] = r
	return *r, true
}

// DequeueFront removes and returns the oldest record.
func (q *Queue) DequeueFront() (Record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Record{}, false
	}
	r := q.entries[0]
	q.entries = q.entries[1:]
	delete(q.index, r.Identity)
	return *r, true
}

// DequeuePair atomically removes the two front-most records. When fewer
// than two records exist the call has no side effects, so a pairing
// attempt that races a removal simply aborts and leaves the survivor
// queued.
func (q *Queue) DequeuePair() (first, second Record, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) < 2 {
		return Record{}, Record{}, false
	}
	a, b := q.entries[0], q.entries[1]
	q.entries = q.entries[2:]
	delete(q.index, a.Identity)
	delete(q.index, b.Identity)
	return *a, *b, true
}

// RemoveByIdentity removes identity and reports whether it was queued.
func (q *Queue) RemoveByIdentity(identity string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	r, ok := q.index[identity]
	if !ok {
		return false
	}
	delete(q.index, identity)
	for i, e := range q.entries {
		if e == r {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	return true
}

// Touch refreshes liveness metadata for identity.
func (q *Queue) Touch(identity string, now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	r, ok := q.index[identity]
	if !ok {
		return false
	}
	r.LastSeen = now
	return true
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// PositionOf returns the 1-based queue position of identity.
func (q *Queue) PositionOf(identity string) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.Identity == identity {
			return i + 1, true
		}
	}
	return 0, false
}

// Identities returns the queued identities in FIFO order.
func (q *Queue) Identities() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]string, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.Identity
	}
	return out
}

// EvictBefore removes and returns every record enqueued before cutoff,
// oldest first.
func (q *Queue) EvictBefore(cutoff time.Time) []Record {
	q.mu.Lock()
	defer q.mu.Unlock()

	var evicted []Record
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.EnqueuedAt.Before(cutoff) {
			delete(q.index, e.Identity)
			evicted = append(evicted, *e)
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return evicted
}
