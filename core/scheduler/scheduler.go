package scheduler

import (
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/bitbox360/backend/core"
	"github.com/bitbox360/backend/core/project"
)

// Scheduler drives the project lifecycle: on every cycle it recomputes and
// persists project states, classifies projects into alert buckets and hands
// each bucket to its alert handler.
type Scheduler struct {
	conf     *core.Config
	repo     project.Repository
	mailer   core.EmailService
	logger   core.Logger
	registry *ReminderRegistry

	validate   *validator.Validate
	translator ut.Translator
	handlers   []alertHandler
	cron       *cron.Cron

	now func() time.Time // mockable
}

func NewScheduler(
	conf *core.Config,
	repo project.Repository,
	mailer core.EmailService,
	logger core.Logger,
	registry *ReminderRegistry,
) *Scheduler {
	validate, translator := core.NewValidator()
	s := &Scheduler{
		conf:       conf,
		repo:       repo,
		mailer:     mailer,
		logger:     logger,
		registry:   registry,
		validate:   validate,
		translator: translator,
		now:        time.Now,
	}
	s.handlers = []alertHandler{
		&startedAlerts{s},
		&endingAlerts{s},
		&pendingAlerts{s},
	}
	return s
}

// Start runs one cycle immediately, then repeats on the configured interval
// in the background.
func (s *Scheduler) Start() error {
	s.runCycle()

	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", s.conf.Scheduler.PollInterval)
	if _, err := s.cron.AddFunc(spec, s.runCycle); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cycle cron and cancels all in-flight reminder timers.
// In-flight cycles are not interrupted.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.registry.CancelAll()
}

// Registry exposes the reminder registry for introspection.
func (s *Scheduler) Registry() *ReminderRegistry {
	return s.registry
}

func (s *Scheduler) runCycle() {
	projects, err := s.checkProjects()
	if err != nil {
		s.logger.Error("scheduler: checking projects", err)
		return
	}

	starting, ending, pending := s.classify(projects)
	for _, h := range s.handlers {
		switch h.alertType() {
		case project.AlertStarted:
			h.dispatch(starting)
		case project.AlertFinished:
			h.dispatch(ending)
		case project.AlertPending:
			h.dispatch(pending)
		}
	}
}

// checkProjects fetches all current projects and idempotently recomputes and
// persists their state. A project whose update fails is logged and kept:
// state is re-derived from dates, so the next cycle heals it.
func (s *Scheduler) checkProjects() ([]project.Project, error) {
	projects, err := s.repo.ListCurrentProjects()
	if err != nil {
		return nil, err
	}

	today := s.now().UTC()
	for i, p := range projects {
		state := p.StateOn(today)
		if err := s.repo.UpdateProjectState(p.ID, state); err != nil {
			s.logger.Error(fmt.Sprintf("scheduler: updating state of project %s", p.ID), err)
			continue
		}
		projects[i].State = state
	}
	return projects, nil
}

// classify buckets projects by comparing today to the evaluation open and
// close dates. Buckets are disjoint; Starting wins over Pending on the open
// day. Projects already tracked by the reminder registry are excluded from
// Starting/Ending re-dispatch; Pending is re-evaluated every cycle so that
// newly due offsets get scheduled incrementally.
func (s *Scheduler) classify(projects []project.Project) (starting, ending, pending []project.Project) {
	today := s.now().UTC()

	for _, p := range projects {
		openDate := p.EvaluationOpensAt()
		closeDate := p.EvaluationClosesAt()

		switch {
		case project.SameDate(openDate, today):
			if !s.registry.Contains(p.ID) {
				starting = append(starting, p)
			}
		case onOrAfterDate(today, closeDate):
			// close date widened to "on or after": a project that missed its
			// exact close day (process down) is still finalized.
			if !s.registry.Contains(p.ID) {
				ending = append(ending, p)
			}
		case today.After(openDate) && today.Before(closeDate):
			pending = append(pending, p)
		}
	}
	return starting, ending, pending
}

func onOrAfterDate(t, ref time.Time) bool {
	if project.SameDate(t, ref) {
		return true
	}
	return t.After(ref)
}
