package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type (
	// ReminderRegistry owns the live set of scheduled reminder timers, keyed
	// by project. It is shared between the poller (exclusion + introspection)
	// and the pending-alert dispatcher (scheduling); the mutex is only held
	// for the duration of map operations, never across a send.
	ReminderRegistry struct {
		mu     sync.Mutex
		timers map[uuid.UUID][]*reminderEntry

		now func() time.Time // mockable
	}

	reminderEntry struct {
		at    time.Time
		timer *time.Timer
	}
)

func NewReminderRegistry() *ReminderRegistry {
	return &ReminderRegistry{
		timers: make(map[uuid.UUID][]*reminderEntry),
		now:    time.Now,
	}
}

// Replace cancels the project's previously scheduled, not-yet-fired reminders
// and schedules fire at each given future instant. Instants already past are
// ignored. A fired timer deregisters itself before running.
func (r *ReminderRegistry) Replace(projectID uuid.UUID, instants []time.Time, fire func(at time.Time)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.timers[projectID] {
		entry.timer.Stop()
	}
	delete(r.timers, projectID)

	now := r.now()
	entries := make([]*reminderEntry, 0, len(instants))
	for _, at := range instants {
		if !at.After(now) {
			continue
		}
		at := at
		entry := &reminderEntry{at: at}
		entry.timer = time.AfterFunc(at.Sub(now), func() {
			r.remove(projectID, entry)
			fire(at)
		})
		entries = append(entries, entry)
	}
	if len(entries) > 0 {
		r.timers[projectID] = entries
	}
}

// Cancel stops and forgets all remaining timers of a project. Called when a
// project reaches its final state.
func (r *ReminderRegistry) Cancel(projectID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.timers[projectID] {
		entry.timer.Stop()
	}
	delete(r.timers, projectID)
}

// CancelAll stops every timer; used on shutdown.
func (r *ReminderRegistry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, entries := range r.timers {
		for _, entry := range entries {
			entry.timer.Stop()
		}
		delete(r.timers, id)
	}
}

// Contains reports whether the project currently has scheduled reminders.
func (r *ReminderRegistry) Contains(projectID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers[projectID]) > 0
}

// Snapshot returns the pending fire instants per project, sorted
// chronologically.
func (r *ReminderRegistry) Snapshot() map[uuid.UUID][]time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[uuid.UUID][]time.Time, len(r.timers))
	for id, entries := range r.timers {
		instants := make([]time.Time, 0, len(entries))
		for _, entry := range entries {
			instants = append(instants, entry.at)
		}
		sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })
		snapshot[id] = instants
	}
	return snapshot
}

func (r *ReminderRegistry) remove(projectID uuid.UUID, target *reminderEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.timers[projectID]
	for i, entry := range entries {
		if entry == target {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(r.timers, projectID)
	} else {
		r.timers[projectID] = entries
	}
}
