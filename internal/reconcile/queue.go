// Package reconcile buffers optimistic progress mutations while the
// authoritative store is unreachable and replays them when connectivity
// resumes. Only end-state matters to the user, so a later update for the
// same quest collapses the earlier one instead of appending.
package reconcile

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"questlog/api/internal/engine"
)

// EntryState is the lifecycle of one queued mutation.
type EntryState string

const (
	StatePending         EntryState = "pending"
	StateInFlight        EntryState = "in-flight"
	StateConfirmed       EntryState = "confirmed"
	StateFailedRetryable EntryState = "failed-retryable"
	StateFailedPermanent EntryState = "failed-permanent"
)

// Update is one pending optimistic mutation not yet confirmed by the
// authoritative store.
type Update struct {
	QuestID  string
	Status   engine.Status
	EnqueueT time.Time
	State    EntryState
	Attempts int
}

// Submitter pushes one update to the authoritative store. A transient
// failure (network, timeout) must be distinguishable from a permanent
// rejection via errors.Is/As against ErrTransient.
type Submitter interface {
	Submit(ctx context.Context, update Update) error
}

// ErrTransient marks a submit failure worth retrying. Store clients wrap
// network and timeout errors with it.
var ErrTransient = errors.New("transient store failure")

// Queue is the client-side reconciliation buffer. Safe for concurrent
// use; Drain is single-flight, so invoking it while a drain is already
// running is a no-op.
type Queue struct {
	submitter  Submitter
	retryDelay time.Duration
	now        func() time.Time

	// OnPermanentFailure is invoked (outside the lock) for each update
	// the store rejected for a reason retrying cannot fix. Optional.
	OnPermanentFailure func(update Update, err error)

	// OnRetryExhausted is invoked (outside the lock) when a transient
	// failure spends its retry budget. The update stays queued for a
	// later drain; this is the point to tell the user the change has
	// not been saved yet. Optional.
	OnRetryExhausted func(update Update, err error)

	mu       sync.Mutex
	entries  []*Update
	draining bool
	stopped  bool
}

// New creates a queue draining through the given submitter. retryDelay
// is the backoff before the single retry of a transient failure.
func New(submitter Submitter, retryDelay time.Duration) *Queue {
	return &Queue{
		submitter:  submitter,
		retryDelay: retryDelay,
		now:        time.Now,
	}
}

// Enqueue records an optimistic mutation. If a pending entry for the
// quest already exists it is replaced in place, keeping its position:
// latest write wins per quest, FIFO across distinct quests.
func (q *Queue) Enqueue(questID string, status engine.Status) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}

	for _, entry := range q.entries {
		if entry.QuestID == questID && entry.State == StatePending {
			entry.Status = status
			return
		}
	}
	q.entries = append(q.entries, &Update{
		QuestID:  questID,
		Status:   status,
		EnqueueT: q.now(),
		State:    StatePending,
	})
}

// PendingCount reports the number of distinct quests with a pending
// update, not the number of Enqueue calls.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Drain submits pending updates head-first until the queue empties, the
// context is cancelled, or a transient failure exhausts its retry. A
// drain already in progress makes this call a no-op.
func (q *Queue) Drain(ctx context.Context) {
	q.mu.Lock()
	if q.draining || q.stopped {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	for {
		entry := q.head()
		if entry == nil {
			return
		}
		if ctx.Err() != nil {
			// Cancelled mid-drain: the head entry stays queued for the
			// next drain, never silently discarded.
			q.requeue(entry, StatePending)
			return
		}

		err := q.submitter.Submit(ctx, *entry)
		switch {
		case err == nil:
			entry.State = StateConfirmed

		case errors.Is(err, ErrTransient):
			entry.State = StateFailedRetryable
			entry.Attempts++
			if entry.Attempts > 1 {
				// Retry budget spent: keep it queued for a later drain
				// rather than spinning here.
				entry.Attempts = 0
				q.requeue(entry, StatePending)
				if q.OnRetryExhausted != nil {
					q.OnRetryExhausted(*entry, err)
				}
				return
			}
			log.Printf("reconcile: transient failure for quest %s, retrying once: %v", entry.QuestID, err)
			select {
			case <-time.After(q.retryDelay):
			case <-ctx.Done():
			}
			q.requeue(entry, StatePending)

		default:
			entry.State = StateFailedPermanent
			log.Printf("reconcile: dropping update for quest %s: %v", entry.QuestID, err)
			if q.OnPermanentFailure != nil {
				q.OnPermanentFailure(*entry, err)
			}
		}
	}
}

// Stop discards pending entries and refuses further enqueues. Called on
// logout; the next login fetches authoritative state fresh.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	q.entries = nil
}

// head pops the first entry and marks it in-flight.
func (q *Queue) head() *Update {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil
	}
	entry := q.entries[0]
	q.entries = q.entries[1:]
	entry.State = StateInFlight
	return entry
}

// requeue puts an entry back at the head, retaining its position. A
// newer pending entry for the same quest supersedes it.
func (q *Queue) requeue(entry *Update, state EntryState) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	for _, existing := range q.entries {
		if existing.QuestID == entry.QuestID {
			return
		}
	}
	entry.State = state
	q.entries = append([]*Update{entry}, q.entries...)
}
