package scheduler

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bitbox360/backend/core"
	"github.com/bitbox360/backend/core/project"
)

// alertHandler performs the side effects of one lifecycle alert category for
// a bucket of projects. All three categories share the same shape: an
// idempotency guard against the done_alerts ledger, per-recipient best-effort
// delivery and a final marker write.
type alertHandler interface {
	alertType() project.AlertType
	dispatch(projects []project.Project)
}

type (
	startedAlerts struct{ s *Scheduler }
	pendingAlerts struct{ s *Scheduler }
	endingAlerts  struct{ s *Scheduler }
)

func (h *startedAlerts) alertType() project.AlertType { return project.AlertStarted }
func (h *pendingAlerts) alertType() project.AlertType { return project.AlertPending }
func (h *endingAlerts) alertType() project.AlertType  { return project.AlertFinished }

// ---------------------------------------------------------------------------
// Started: evaluation opens today.

func (h *startedAlerts) dispatch(projects []project.Project) {
	for _, p := range projects {
		h.handle(p)
	}
}

func (h *startedAlerts) handle(p project.Project) {
	s := h.s
	if !s.shouldSendAlert(p.ID, project.AlertStarted) {
		return
	}

	groups, err := s.repo.ListProjectGroups(p.ID)
	if err != nil {
		s.logger.Error(fmt.Sprintf("started alert: listing groups of project %s", p.ID), err)
		return
	}

	for _, g := range groups {
		s.openGroupEvaluation(p, g)
	}

	teacher, err := s.repo.GetTeacher(p.PromotionID)
	if err != nil {
		s.logger.Error(fmt.Sprintf("started alert: resolving teacher of project %s", p.ID), err)
	} else {
		s.mailer.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: teacher.Username, Address: teacher.Email}},
			Subject:      "360 Notation has begun",
			TemplateName: "evaluation-open-teacher",
			TemplateData: evaluationOpenTeacherData{
				ProjectName:   p.Name,
				RemainingDays: p.NotationPeriodDuration,
			},
		})
	}

	s.markAlertDone(p.ID, project.AlertStarted)
}

// openGroupEvaluation mints one single-use token per group member and mails
// each member their evaluation link. A failing member is logged and skipped;
// the rest of the group still gets its tokens.
func (s *Scheduler) openGroupEvaluation(p project.Project, g project.Group) {
	members, err := s.repo.ListGroupMembers(g.ID)
	if err != nil {
		s.logger.Error(fmt.Sprintf("started alert: listing members of group %s", g.ID), err)
		return
	}

	expiry := p.EvaluationClosesAt()
	if p.NotationPeriodDuration <= 0 {
		expiry = p.EvaluationOpensAt().Add(s.conf.Scheduler.StudentTokenExpirationDelta)
	}
	for _, member := range members {
		student := member.Student

		token, err := project.MakeStudentToken(s.conf, student.ID, g.ID, expiry)
		if err != nil {
			s.logger.Error(fmt.Sprintf("started alert: minting token for student %s", student.ID), err)
			continue
		}
		tokenID, err := s.repo.CreateStudentToken(project.StudentToken{
			Token:     token,
			StudentID: student.ID,
			ProjectID: p.ID,
		})
		if err != nil {
			s.logger.Error(fmt.Sprintf("started alert: persisting token for student %s", student.ID), err)
			continue
		}

		s.mailer.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: student.FullName(), Address: student.Email}},
			Subject:      "360 Notation has begun",
			TemplateName: "evaluation-open-student",
			TemplateData: evaluationOpenStudentData{
				GroupName:     g.Name,
				ProjectName:   p.Name,
				TokenID:       tokenID.String(),
				RemainingDays: p.NotationPeriodDuration,
			},
		})
	}
}

// ---------------------------------------------------------------------------
// Pending: evaluation window open; schedule the teacher's reminder offsets.

func (h *pendingAlerts) dispatch(projects []project.Project) {
	for _, p := range projects {
		h.handle(p)
	}
}

func (h *pendingAlerts) handle(p project.Project) {
	s := h.s

	cfg, err := s.repo.GetTeacherConfig(p.PromotionID)
	if err != nil {
		s.logger.Error(fmt.Sprintf("pending alert: loading teacher config for project %s", p.ID), err)
		return
	}
	if err := s.validate.Struct(cfg); err != nil {
		s.logger.Error(
			fmt.Sprintf("pending alert: rejecting teacher config for project %s", p.ID),
			core.TranslateValidationErrors(err, s.translator),
		)
		return
	}

	instants := alertTimestamps(cfg, p)

	doneAlerts, err := s.repo.DoneAlerts(p.ID, project.AlertPending)
	if err != nil {
		s.logger.Error(fmt.Sprintf("pending alert: loading done alerts for project %s", p.ID), err)
		return
	}

	// an offset already fired if a done alert was published in the same
	// calendar hour
	toSchedule := make([]time.Time, 0, len(instants))
	for _, at := range instants {
		fired := false
		for _, done := range doneAlerts {
			if project.SameHour(done.PublishedAt, at) {
				fired = true
				break
			}
		}
		if !fired {
			toSchedule = append(toSchedule, at)
		}
	}
	if len(toSchedule) == 0 {
		return
	}

	s.registry.Replace(p.ID, toSchedule, func(at time.Time) {
		s.fireReminder(p)
	})
}

// alertTimestamps resolves the teacher's configured offsets into absolute
// instants: before-event offsets count backward from the evaluation close,
// the others forward from the evaluation open.
func alertTimestamps(cfg project.UserConfig, p project.Project) []time.Time {
	instants := make([]time.Time, 0, len(cfg.Alerts))
	for _, offset := range cfg.Alerts {
		d := time.Duration(offset.Hours) * time.Hour
		if offset.BeforeEvent {
			instants = append(instants, p.EvaluationClosesAt().Add(-d))
		} else {
			instants = append(instants, p.EvaluationOpensAt().Add(d))
		}
	}
	return instants
}

// fireReminder runs when a scheduled reminder timer elapses: it nudges every
// student who has not submitted yet, nudges the teacher if group marks are
// missing, and closes the idempotency window for this offset whatever the
// delivery outcome.
func (s *Scheduler) fireReminder(p project.Project) {
	students, err := s.repo.ListUnusedTokenHolders(p.ID)
	if err != nil {
		s.logger.Error(fmt.Sprintf("reminder: listing pending evaluators of project %s", p.ID), err)
		return
	}

	deadline := p.EvaluationClosesAt()
	for _, student := range students {
		token, err := s.repo.GetStudentToken(student.ID, p.ID)
		if err != nil {
			s.logger.Error(fmt.Sprintf("reminder: loading token of student %s", student.ID), err)
			continue
		}
		group, err := s.repo.GetStudentGroup(student.ID, p.ID)
		if err != nil {
			s.logger.Error(fmt.Sprintf("reminder: loading group of student %s", student.ID), err)
			continue
		}

		s.mailer.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: student.FullName(), Address: student.Email}},
			Subject:      "360 Notation Reminder",
			TemplateName: "reminder-student",
			TemplateData: reminderStudentData{
				GroupName:   group.Name,
				ProjectName: p.Name,
				TokenID:     token.ID.String(),
				Deadline:    deadline.Format("2006-01-02"),
			},
		})
	}

	if missing, err := s.groupMarksMissing(p.ID); err != nil {
		s.logger.Error(fmt.Sprintf("reminder: checking group marks of project %s", p.ID), err)
	} else if missing {
		teacher, err := s.repo.GetTeacher(p.PromotionID)
		if err != nil {
			s.logger.Error(fmt.Sprintf("reminder: resolving teacher of project %s", p.ID), err)
		} else {
			s.mailer.SendMessages(&core.EmailMessage{
				To:           []mail.Address{{Name: teacher.Username, Address: teacher.Email}},
				Subject:      "Marks Reminder",
				TemplateName: "reminder-teacher",
				TemplateData: reminderTeacherData{
					ProjectName: p.Name,
					Deadline:    deadline.Format("2006-01-02"),
				},
			})
		}
	}

	s.markAlertDone(p.ID, project.AlertPending)
}

func (s *Scheduler) groupMarksMissing(projectID uuid.UUID) (bool, error) {
	groups, err := s.repo.ListProjectGroups(projectID)
	if err != nil {
		return false, err
	}
	for _, g := range groups {
		if !g.Mark.Valid {
			return true, nil
		}
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// Ending: evaluation window closed; notify everyone and finalize marks.

func (h *endingAlerts) dispatch(projects []project.Project) {
	for _, p := range projects {
		h.handle(p)
	}
}

func (h *endingAlerts) handle(p project.Project) {
	s := h.s

	doneAlerts, err := s.repo.DoneAlerts(p.ID, project.AlertFinished)
	if err != nil {
		s.logger.Error(fmt.Sprintf("ending alert: checking existing alerts for project %s", p.ID), err)
		return
	}
	if len(doneAlerts) > 0 {
		// already alerted, yet the project still lists as current: the final
		// state write must have failed on an earlier cycle. Retry it without
		// re-sending anything.
		s.finalizeProject(p.ID)
		return
	}

	groups, err := s.repo.ListProjectGroups(p.ID)
	if err != nil {
		s.logger.Error(fmt.Sprintf("ending alert: listing groups of project %s", p.ID), err)
		return
	}

	recipients, err := s.closingRecipients(p, groups)
	if err != nil {
		s.logger.Error(fmt.Sprintf("ending alert: collecting recipients of project %s", p.ID), err)
		return
	}
	for _, to := range recipients {
		s.mailer.SendMessages(&core.EmailMessage{
			To:           []mail.Address{to},
			Subject:      "360 Notation has ended",
			TemplateName: "evaluation-closed",
			TemplateData: evaluationClosedData{ProjectName: p.Name},
		})
	}

	if err := s.finalizeMarks(p, groups); err != nil {
		// no marker, no state change: the project stays in the Ending bucket
		// and finalization is retried on the next cycle
		s.logger.Error(fmt.Sprintf("ending alert: finalizing marks of project %s", p.ID), err)
		return
	}

	s.markAlertDone(p.ID, project.AlertFinished)
	s.finalizeProject(p.ID)
}

// finalizeProject drops the project's reminder timers and moves it to its
// terminal state. Timers are cancelled first: a leftover timer would keep the
// project out of the Ending bucket and starve the state-write retry.
func (s *Scheduler) finalizeProject(projectID uuid.UUID) {
	s.registry.Cancel(projectID)
	if err := s.repo.UpdateProjectState(projectID, project.StateNotationFinished); err != nil {
		s.logger.Error(fmt.Sprintf("ending alert: updating state of project %s", projectID), err)
	}
}

// closingRecipients is every student of every group plus the teacher.
func (s *Scheduler) closingRecipients(p project.Project, groups []project.Group) ([]mail.Address, error) {
	var recipients []mail.Address
	for _, g := range groups {
		members, err := s.repo.ListGroupMembers(g.ID)
		if err != nil {
			return nil, err
		}
		for _, member := range members {
			recipients = append(recipients, mail.Address{
				Name:    member.Student.FullName(),
				Address: member.Student.Email,
			})
		}
	}

	teacher, err := s.repo.GetTeacher(p.PromotionID)
	if err != nil {
		return nil, err
	}
	recipients = append(recipients, mail.Address{Name: teacher.Username, Address: teacher.Email})
	return recipients, nil
}

// finalizeMarks runs the mark computation over the project's peer
// evaluations and persists every member's final mark.
func (s *Scheduler) finalizeMarks(p project.Project, groups []project.Group) error {
	notations := make([]project.GroupNotation, 0, len(groups))
	for _, g := range groups {
		members, err := s.repo.ListGroupMembers(g.ID)
		if err != nil {
			return errors.Wrapf(err, "listing members of group %s", g.ID)
		}

		gn := project.GroupNotation{
			Group:         g,
			Students:      make([]project.Student, 0, len(members)),
			ReceivedMarks: make(map[uuid.UUID][]project.Mark, len(members)),
		}
		for _, member := range members {
			received, err := s.repo.ListReceivedMarks(member.Student.ID, g.ID)
			if err != nil {
				return errors.Wrapf(err, "listing marks of student %s", member.Student.ID)
			}
			gn.Students = append(gn.Students, member.Student)
			gn.ReceivedMarks[member.Student.ID] = received
		}
		notations = append(notations, gn)
	}

	for key, mark := range project.ComputeStudentMarks(notations) {
		if err := s.repo.UpdateGroupStudentMark(key.GroupID, key.StudentID, mark); err != nil {
			return errors.Wrapf(err, "saving mark of student %s", key.StudentID)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------

// shouldSendAlert is the idempotency guard of the Started category: an
// existing ledger record means the alert already went out. Ledger read
// failures err on the side of not sending.
func (s *Scheduler) shouldSendAlert(projectID uuid.UUID, typ project.AlertType) bool {
	alerts, err := s.repo.DoneAlerts(projectID, typ)
	if err != nil {
		s.logger.Error(fmt.Sprintf("alerts: checking existing %s alerts for project %s", typ, projectID), err)
		return false
	}
	return len(alerts) == 0
}

func (s *Scheduler) markAlertDone(projectID uuid.UUID, typ project.AlertType) {
	if err := s.repo.CreateDoneAlert(projectID, typ, s.now().UTC()); err != nil {
		s.logger.Error(fmt.Sprintf("alerts: recording %s alert for project %s", typ, projectID), err)
	}
}
