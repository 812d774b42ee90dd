package project

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProjectStateOn(t *testing.T) {
	start := date(2021, time.March, 1)
	end := date(2021, time.March, 10)

	tests := []struct {
		name  string
		state State
		today time.Time
		want  State
	}{
		{name: "before start", state: StateNotStarted, today: date(2021, time.February, 25), want: StateNotStarted},
		{name: "on start date", state: StateNotStarted, today: start, want: StateInProgress},
		{name: "mid project", state: StateNotStarted, today: date(2021, time.March, 5), want: StateInProgress},
		{name: "start time of day ignored", state: StateNotStarted, today: time.Date(2021, time.March, 1, 23, 30, 0, 0, time.UTC), want: StateInProgress},
		{name: "on end date", state: StateInProgress, today: end, want: StateFinished},
		{name: "after end date", state: StateFinished, today: date(2021, time.March, 15), want: StateFinished},
		{name: "notation finished is terminal", state: StateNotationFinished, today: date(2021, time.March, 5), want: StateNotationFinished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project{StartDate: start, EndDate: end, State: tt.state}
			if got := p.StateOn(tt.today); got != tt.want {
				t.Errorf("StateOn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluationWindow(t *testing.T) {
	p := Project{
		EndDate:                date(2021, time.March, 10),
		NotationPeriodDuration: 5,
	}
	if got := p.EvaluationOpensAt(); !got.Equal(date(2021, time.March, 10)) {
		t.Errorf("EvaluationOpensAt() = %v", got)
	}
	if got := p.EvaluationClosesAt(); !got.Equal(date(2021, time.March, 15)) {
		t.Errorf("EvaluationClosesAt() = %v", got)
	}
}

func TestSameDateSameHour(t *testing.T) {
	a := time.Date(2021, time.March, 10, 14, 5, 0, 0, time.UTC)

	if !SameDate(a, time.Date(2021, time.March, 10, 23, 59, 59, 0, time.UTC)) {
		t.Error("SameDate() = false, want true")
	}
	if SameDate(a, date(2021, time.March, 11)) {
		t.Error("SameDate() = true, want false")
	}
	if !SameHour(a, time.Date(2021, time.March, 10, 14, 59, 0, 0, time.UTC)) {
		t.Error("SameHour() = false, want true")
	}
	if SameHour(a, time.Date(2021, time.March, 10, 15, 5, 0, 0, time.UTC)) {
		t.Error("SameHour() = true, want false")
	}
	// same wall-clock hour across zones
	if !SameHour(a, a.In(time.FixedZone("CET", 3600))) {
		t.Error("SameHour() = false, want true for same instant in another zone")
	}
}
