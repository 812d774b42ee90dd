package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestReminderRegistryReplace(t *testing.T) {
	registry := NewReminderRegistry()
	defer registry.CancelAll()

	projectID := uuid.New()
	now := time.Now()
	past := now.Add(-time.Hour)
	soon := now.Add(time.Hour)
	later := now.Add(2 * time.Hour)

	// unsorted on purpose; past instants must be dropped
	registry.Replace(projectID, []time.Time{later, past, soon}, func(time.Time) {})

	if !registry.Contains(projectID) {
		t.Fatal("Contains() = false, want true")
	}
	instants := registry.Snapshot()[projectID]
	if len(instants) != 2 {
		t.Fatalf("got %d scheduled instants, want 2", len(instants))
	}
	if !instants[0].Equal(soon) || !instants[1].Equal(later) {
		t.Errorf("Snapshot() = %v, want sorted [%v %v]", instants, soon, later)
	}

	// a second Replace drops the previous set
	registry.Replace(projectID, []time.Time{later}, func(time.Time) {})
	if got := registry.Snapshot()[projectID]; len(got) != 1 || !got[0].Equal(later) {
		t.Errorf("Snapshot() after Replace = %v, want [%v]", got, later)
	}
}

func TestReminderRegistryOnlyPastInstants(t *testing.T) {
	registry := NewReminderRegistry()
	projectID := uuid.New()

	registry.Replace(projectID, []time.Time{time.Now().Add(-time.Minute)}, func(time.Time) {
		t.Error("fire called for a past instant")
	})
	if registry.Contains(projectID) {
		t.Error("Contains() = true, want false")
	}
}

func TestReminderRegistryCancel(t *testing.T) {
	registry := NewReminderRegistry()
	projectID := uuid.New()

	var fired int32
	registry.Replace(projectID, []time.Time{time.Now().Add(20 * time.Millisecond)}, func(time.Time) {
		atomic.AddInt32(&fired, 1)
	})
	registry.Cancel(projectID)

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Error("cancelled timer still fired")
	}
	if registry.Contains(projectID) {
		t.Error("Contains() = true after Cancel")
	}
}

func TestReminderRegistryFiredTimerDeregisters(t *testing.T) {
	registry := NewReminderRegistry()
	defer registry.CancelAll()

	projectID := uuid.New()
	at := time.Now().Add(10 * time.Millisecond)

	done := make(chan time.Time, 1)
	registry.Replace(projectID, []time.Time{at}, func(firedAt time.Time) {
		done <- firedAt
	})

	select {
	case firedAt := <-done:
		if !firedAt.Equal(at) {
			t.Errorf("fired at %v, want %v", firedAt, at)
		}
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	// deregistration happens before fire runs
	if registry.Contains(projectID) {
		t.Error("Contains() = true after firing")
	}
}

func TestReminderRegistryCancelAll(t *testing.T) {
	registry := NewReminderRegistry()

	for i := 0; i < 3; i++ {
		registry.Replace(uuid.New(), []time.Time{time.Now().Add(time.Hour)}, func(time.Time) {})
	}
	registry.CancelAll()

	if got := registry.Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot() after CancelAll = %v, want empty", got)
	}
}
