package project

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Project lifecycle states. A project's state is recomputed from its dates on
// every scheduler cycle; NotationFinished is terminal.
type State string

const (
	StateNotStarted       State = "not_started"
	StateInProgress       State = "in_progress"
	StateFinished         State = "finished"
	StateNotationFinished State = "notation_finished"
)

// Alert categories recorded in the done_alerts ledger.
type AlertType string

const (
	AlertStarted  AlertType = "started"
	AlertPending  AlertType = "pending"
	AlertFinished AlertType = "finished"
)

type (
	Project struct {
		ID          uuid.UUID   `db:"id" json:"id"`
		Name        string      `db:"name" json:"name"`
		Description null.String `db:"description" json:"description"`
		StartDate   time.Time   `db:"start_date" json:"start_date"`
		// EndDate is when the project work ends and the peer evaluation
		// window opens.
		EndDate time.Time `db:"end_date" json:"end_date"`
		// NotationPeriodDuration is the number of days the evaluation window
		// stays open after EndDate.
		NotationPeriodDuration int       `db:"notation_period_duration" json:"notation_period_duration"`
		PromotionID            uuid.UUID `db:"promotion_id" json:"promotion_id"`
		State                  State     `db:"state" json:"state"`
	}

	Group struct {
		ID   uuid.UUID `db:"id" json:"id"`
		Name string    `db:"name" json:"name"`
		// Mark is the teacher-assigned group mark; null until the teacher
		// enters it.
		Mark      null.Float64 `db:"mark" json:"mark"`
		MaxMark   int          `db:"max_mark" json:"max_mark"`
		ProjectID uuid.UUID    `db:"project_id" json:"project_id"`
	}

	Student struct {
		ID      uuid.UUID `db:"id" json:"id"`
		Name    string    `db:"name" json:"name"`
		Surname string    `db:"surname" json:"surname"`
		Email   string    `db:"email" json:"email"`
	}

	// GroupMember is a group membership edge together with the member's
	// computed final mark (null until finalization).
	GroupMember struct {
		GroupID     uuid.UUID    `db:"group_id" json:"group_id"`
		Student     Student      `db:"student" json:"student"`
		StudentMark null.Float64 `db:"student_mark" json:"student_mark"`
		MaxMark     int          `db:"max_mark" json:"max_mark"`
	}

	// Mark is one peer evaluation record: grader rates noted within a group.
	// At most one record exists per (grader, noted) pair per group.
	Mark struct {
		ProjectID       uuid.UUID   `db:"project_id" json:"project_id"`
		GroupID         uuid.UUID   `db:"group_id" json:"group_id"`
		NotedStudentID  uuid.UUID   `db:"noted_student_id" json:"noted_student_id"`
		GraderStudentID uuid.UUID   `db:"grader_student_id" json:"grader_student_id"`
		Mark            float64     `db:"mark" json:"mark"`
		MaxMark         int         `db:"max_mark" json:"max_mark"`
		Comment         null.String `db:"comment" json:"comment"`
	}

	// DoneAlert is an append-only idempotency marker proving one alert
	// category has already been dispatched for one project.
	DoneAlert struct {
		ID          int         `db:"id" json:"id"`
		Description null.String `db:"description" json:"description"`
		ProjectID   uuid.UUID   `db:"project_id" json:"project_id"`
		Type        AlertType   `db:"type" json:"type"`
		PublishedAt time.Time   `db:"published_at" json:"published_at"`
	}

	// StudentToken is a single-use capability credential authorizing one
	// student's evaluation submission for one project.
	StudentToken struct {
		ID        uuid.UUID `db:"id" json:"id"`
		Token     string    `db:"token" json:"token"`
		StudentID uuid.UUID `db:"student_id" json:"student_id"`
		ProjectID uuid.UUID `db:"project_id" json:"project_id"`
		Used      bool      `db:"used" json:"used"`
	}

	// AlertOffset is one configured reminder offset. BeforeEvent offsets are
	// measured backward from the evaluation close instant, others forward
	// from the open instant.
	AlertOffset struct {
		BeforeEvent bool `json:"before_event"`
		Hours       int  `json:"hours" validate:"gte=0,lte=8760"`
	}

	// UserConfig is a teacher's per-user configuration.
	UserConfig struct {
		ID        int           `db:"id" json:"id"`
		UserID    uuid.UUID     `db:"user_id" json:"user_id"`
		Alerts    []AlertOffset `db:"-" json:"alerts" validate:"dive"`
		UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
	}

	// Teacher is the user owning a promotion.
	Teacher struct {
		ID       uuid.UUID `db:"id" json:"id"`
		Username string    `db:"username" json:"username"`
		Email    string    `db:"email" json:"email"`
	}
)

func (s Student) FullName() string {
	return s.Name + " " + s.Surname
}

// EvaluationOpensAt is the instant peer evaluation opens.
func (p Project) EvaluationOpensAt() time.Time {
	return p.EndDate
}

// EvaluationClosesAt is the instant the evaluation window closes.
func (p Project) EvaluationClosesAt() time.Time {
	return p.EndDate.AddDate(0, 0, p.NotationPeriodDuration)
}

// StateOn derives the project state for the given day. Days that fall outside
// both checks leave the state unchanged; NotationFinished never regresses.
func (p Project) StateOn(today time.Time) State {
	if p.State == StateNotationFinished {
		return StateNotationFinished
	}
	switch {
	case onOrAfter(today, p.StartDate) && today.Before(truncateDate(p.EndDate)):
		return StateInProgress
	case SameDate(p.EndDate, today):
		return StateFinished
	}
	return p.State
}

// SameDate reports whether a and b fall on the same calendar day (UTC).
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// SameHour reports whether a and b fall in the same calendar hour (UTC).
func SameHour(a, b time.Time) bool {
	return SameDate(a, b) && a.UTC().Hour() == b.UTC().Hour()
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func onOrAfter(t, ref time.Time) bool {
	return !t.Before(truncateDate(ref))
}
