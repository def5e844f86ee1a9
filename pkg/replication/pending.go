package replication

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// batch is one write that some peers have not received yet.
type batch struct {
	id       string
	word     string
	synonyms []string
	targets  []string
	created  time.Time
	attempts int
}

func newBatch(word string, syns, targets []string) *batch {
	return &batch{
		id:       uuid.NewString(),
		word:     word,
		synonyms: syns,
		targets:  targets,
		created:  time.Now(),
		attempts: 1,
	}
}

// pendingQueue is the retry buffer. Producers push from request goroutines;
// a cycle drains it and settles with what is still undelivered. Drained
// batches stay counted until settle, so the backlog never reads as empty
// while a retry is in flight.
type pendingQueue struct {
	mu       sync.Mutex
	items    []*batch
	inflight []*batch
}

func (q *pendingQueue) push(b ...*batch) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, b...)
}

// drain moves every queued batch in flight and returns them. Callers treat
// the returned batches as read-only and must call settle afterwards.
func (q *pendingQueue) drain() []*batch {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	q.inflight = append(q.inflight, items...)
	return items
}

// settle forgets the in-flight batches and queues remaining ahead of any
// batch pushed while the retry ran.
func (q *pendingQueue) settle(remaining []*batch) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight = nil
	q.items = append(remaining, q.items...)
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) + len(q.inflight)
}

// targetCounts returns, per peer, how many queued batches still target it.
func (q *pendingQueue) targetCounts() map[string]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	counts := make(map[string]int)
	for _, set := range [][]*batch{q.items, q.inflight} {
		for _, b := range set {
			for _, t := range b.targets {
				counts[t]++
			}
		}
	}
	return counts
}
