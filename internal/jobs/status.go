package jobs

import (
	"sync"
	"time"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StatePermanentlyFailed, StateCanceled:
		return true
	}
	return false
}

// Status is the latest known state of one job.
type Status struct {
	JobID     string          `json:"job_id"`
	Job       string          `json:"job"`
	SyncType  models.SyncType `json:"sync_type"`
	State     State           `json:"state"`
	Attempt   int             `json:"attempt"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Tracker keeps job statuses in process memory. Finished jobs are forgotten
// once they are older than Retain. A nil Tracker ignores every call.
type Tracker struct {
	Retain time.Duration
	Now    func() time.Time

	mu    sync.Mutex
	items map[string]Status
}

func NewTracker(retain time.Duration) *Tracker {
	if retain <= 0 {
		retain = 24 * time.Hour
	}
	return &Tracker{Retain: retain, items: map[string]Status{}}
}

// Set records state for def.
func (t *Tracker) Set(def Definition, state State, attempt int, err error) {
	if t == nil || def.ID == "" {
		return
	}
	now := t.now()
	st := Status{
		JobID:     def.ID,
		Job:       def.Name,
		SyncType:  def.SyncType,
		State:     state,
		Attempt:   attempt,
		UpdatedAt: now,
	}
	if err != nil {
		st.Error = err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.items == nil {
		t.items = map[string]Status{}
	}
	t.items[def.ID] = st
	t.prune(now)
}

func (t *Tracker) Get(jobID string) (Status, bool) {
	if t == nil {
		return Status{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.items[jobID]
	return st, ok
}

func (t *Tracker) prune(now time.Time) {
	if t.Retain <= 0 {
		return
	}
	cutoff := now.Add(-t.Retain)
	for id, st := range t.items {
		if st.State.Terminal() && st.UpdatedAt.Before(cutoff) {
			delete(t.items, id)
		}
	}
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}
