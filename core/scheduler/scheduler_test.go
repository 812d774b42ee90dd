package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bitbox360/backend/core"
	"github.com/bitbox360/backend/core/project"
	appfs "github.com/bitbox360/backend/fs"
	emailsvc "github.com/bitbox360/backend/services/email"
	dummydb "github.com/bitbox360/backend/storage/database/dummy"
)

type testLogger struct{ t *testing.T }

func (l testLogger) Debug(msg string, args ...interface{}) {}
func (l testLogger) Info(msg string, args ...interface{})  {}
func (l testLogger) Warn(msg string, args ...interface{})  {}
func (l testLogger) Error(msg string, args ...interface{}) { l.t.Logf("ERROR: %s %v", msg, args) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.t.Logf("FATAL: %s %v", msg, args) }

// newTestScheduler wires a scheduler against the in-memory repository with a
// frozen clock. The clock is seeded from the current hour rather than a fixed
// date: student token expiry is checked against real time when tokens are
// verified.
func newTestScheduler(t *testing.T) (*Scheduler, *dummydb.DB, time.Time) {
	t.Helper()

	conf := core.NewTestConfig()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db: %v", err)
	}
	registry := NewReminderRegistry()
	s := NewScheduler(conf, dummydb.NewProjectRepository(db), emailsvc.NewConsoleServiceMock(conf, appfs.FS), testLogger{t}, registry)

	now := time.Now().UTC().Truncate(time.Hour)
	s.now = func() time.Time { return now }
	registry.now = s.now

	t.Cleanup(registry.CancelAll)
	t.Cleanup(emailsvc.ClearSentMessages)
	return s, db, now
}

func seedTeacher(db *dummydb.DB) uuid.UUID {
	promotionID := uuid.New()
	db.SetTeacher(promotionID, project.Teacher{Username: "mr.teacher", Email: "teacher@test.test"})
	return promotionID
}

func TestCheckProjects(t *testing.T) {
	s, db, now := newTestScheduler(t)

	inProgress := db.AddProject(project.Project{
		Name:      "still running",
		StartDate: now.AddDate(0, 0, -5),
		EndDate:   now.AddDate(0, 0, 5),
		State:     project.StateNotStarted,
	})
	finishing := db.AddProject(project.Project{
		Name:      "ends today",
		StartDate: now.AddDate(0, 0, -10),
		EndDate:   now,
		State:     project.StateInProgress,
	})
	past := db.AddProject(project.Project{
		Name:      "already over",
		StartDate: now.AddDate(0, 0, -20),
		EndDate:   now.AddDate(0, 0, -10),
		State:     project.StateFinished,
	})

	projects, err := s.checkProjects()
	if err != nil {
		t.Fatalf("checkProjects() error = %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("got %d projects, want 3", len(projects))
	}

	want := map[uuid.UUID]project.State{
		inProgress.ID: project.StateInProgress,
		finishing.ID:  project.StateFinished,
		past.ID:       project.StateFinished, // dates out of range: state kept
	}
	for _, p := range projects {
		if p.State != want[p.ID] {
			t.Errorf("project %q state = %v, want %v", p.Name, p.State, want[p.ID])
		}
	}

	// states are persisted, not just returned
	persisted, err := s.repo.ListCurrentProjects()
	if err != nil {
		t.Fatalf("ListCurrentProjects() error = %v", err)
	}
	for _, p := range persisted {
		if p.State != want[p.ID] {
			t.Errorf("persisted project %q state = %v, want %v", p.Name, p.State, want[p.ID])
		}
	}
}

func TestClassify(t *testing.T) {
	s, db, now := newTestScheduler(t)

	starting := db.AddProject(project.Project{
		Name:                   "evaluation opens today",
		StartDate:              now.AddDate(0, 0, -10),
		EndDate:                now,
		NotationPeriodDuration: 5,
		State:                  project.StateFinished,
	})
	pending := db.AddProject(project.Project{
		Name:                   "evaluation window open",
		StartDate:              now.AddDate(0, 0, -10),
		EndDate:                now.AddDate(0, 0, -2),
		NotationPeriodDuration: 5,
		State:                  project.StateFinished,
	})
	endingExact := db.AddProject(project.Project{
		Name:                   "closes today",
		StartDate:              now.AddDate(0, 0, -20),
		EndDate:                now.AddDate(0, 0, -5),
		NotationPeriodDuration: 5,
		State:                  project.StateFinished,
	})
	endingMissed := db.AddProject(project.Project{
		Name:                   "close day was missed",
		StartDate:              now.AddDate(0, 0, -30),
		EndDate:                now.AddDate(0, 0, -10),
		NotationPeriodDuration: 5,
		State:                  project.StateFinished,
	})
	notDue := db.AddProject(project.Project{
		Name:                   "still running",
		StartDate:              now.AddDate(0, 0, -2),
		EndDate:                now.AddDate(0, 0, 5),
		NotationPeriodDuration: 5,
		State:                  project.StateInProgress,
	})

	projects := []project.Project{starting, pending, endingExact, endingMissed, notDue}
	gotStarting, gotEnding, gotPending := s.classify(projects)

	assertBucket(t, "starting", gotStarting, starting.ID)
	assertBucket(t, "ending", gotEnding, endingExact.ID, endingMissed.ID)
	assertBucket(t, "pending", gotPending, pending.ID)
}

func TestClassifyRegistryExclusion(t *testing.T) {
	s, db, now := newTestScheduler(t)

	tracked := db.AddProject(project.Project{
		Name:                   "already has reminders",
		StartDate:              now.AddDate(0, 0, -10),
		EndDate:                now,
		NotationPeriodDuration: 5,
		State:                  project.StateFinished,
	})
	s.registry.Replace(tracked.ID, []time.Time{now.Add(time.Hour)}, func(time.Time) {})

	gotStarting, gotEnding, gotPending := s.classify([]project.Project{tracked})
	if len(gotStarting)+len(gotEnding)+len(gotPending) != 0 {
		t.Errorf("tracked project classified: starting=%d ending=%d pending=%d",
			len(gotStarting), len(gotEnding), len(gotPending))
	}
}

func assertBucket(t *testing.T, name string, bucket []project.Project, wantIDs ...uuid.UUID) {
	t.Helper()

	if len(bucket) != len(wantIDs) {
		t.Errorf("%s bucket has %d projects, want %d", name, len(bucket), len(wantIDs))
		return
	}
	got := make(map[uuid.UUID]bool, len(bucket))
	for _, p := range bucket {
		got[p.ID] = true
	}
	for _, id := range wantIDs {
		if !got[id] {
			t.Errorf("%s bucket is missing project %s", name, id)
		}
	}
}
