package worker

import (
	"sync"
	"time"

	"github.com/okian/framecount/internal/domain/types"
)

// Import job states.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

const defaultTrackerLimit = 1000

type jobRecord struct {
	status    types.ImportStatus
	submitted time.Time
	finished  time.Time
}

// Tracker remembers the status of recent import jobs.
//
// Once more than limit jobs are tracked, the oldest finished jobs are forgotten.
// Pending and running jobs are never evicted.
type Tracker struct {
	mu    sync.RWMutex
	jobs  map[string]*jobRecord
	order []string
	limit int
	now   func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		jobs:  make(map[string]*jobRecord),
		limit: defaultTrackerLimit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Submit registers a new pending job.
func (t *Tracker) Submit(id string, submittedAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.jobs[id] = &jobRecord{
		status:    types.ImportStatus{ID: id, State: StatePending},
		submitted: submittedAt,
	}
	t.order = append(t.order, id)
	t.evictLocked()
}

// Forget drops a job, e.g. when it could not be enqueued.
func (t *Tracker) Forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.jobs[id]; !ok {
		return
	}
	delete(t.jobs, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Start marks a job as running.
func (t *Tracker) Start(id string) {
	t.update(id, func(r *jobRecord) {
		r.status.State = StateRunning
	})
}

// Complete marks a job as completed with the batch outcome.
func (t *Tracker) Complete(id string, candidates int, result types.BatchResult) {
	t.update(id, func(r *jobRecord) {
		r.status.State = StateCompleted
		r.status.Candidates = candidates
		r.status.Added = result.Added
		r.status.Duplicates = result.Duplicates
		r.status.Skipped = result.Skipped
		r.finished = t.now()
	})
}

// Fail marks a job as failed with a user-facing message.
func (t *Tracker) Fail(id, message string) {
	t.update(id, func(r *jobRecord) {
		r.status.State = StateFailed
		r.status.Error = message
		r.finished = t.now()
	})
}

// FailUnfinished fails every pending or running job and returns how many
// were changed.
func (t *Tracker) FailUnfinished(message string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	n := 0
	for _, r := range t.jobs {
		if r.status.State != StatePending && r.status.State != StateRunning {
			continue
		}
		r.status.State = StateFailed
		r.status.Error = message
		r.finished = now
		n++
	}
	return n
}

// Get returns the status of a job.
func (t *Tracker) Get(id string) (types.ImportStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.jobs[id]
	if !ok {
		return types.ImportStatus{}, false
	}
	status := r.status
	status.Submitted = r.submitted.UTC().Format(time.RFC3339)
	if !r.finished.IsZero() {
		status.Finished = r.finished.UTC().Format(time.RFC3339)
	}
	return status, true
}

// Counts returns the number of tracked jobs per state.
func (t *Tracker) Counts() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := map[string]int{
		StatePending:   0,
		StateRunning:   0,
		StateCompleted: 0,
		StateFailed:    0,
	}
	for _, r := range t.jobs {
		counts[r.status.State]++
	}
	return counts
}

func (t *Tracker) update(id string, fn func(*jobRecord)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.jobs[id]; ok {
		fn(r)
	}
	t.evictLocked()
}

func (t *Tracker) evictLocked() {
	if len(t.order) <= t.limit {
		return
	}
	kept := t.order[:0]
	excess := len(t.order) - t.limit
	for _, id := range t.order {
		r := t.jobs[id]
		if excess > 0 && r != nil && (r.status.State == StateCompleted || r.status.State == StateFailed) {
			delete(t.jobs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
}
