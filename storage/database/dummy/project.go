package dummydb

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/bitbox360/backend/core/project"
)

type projectRepository struct {
	db *projectTables
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *DB) project.Repository {
	return &projectRepository{db: db.project}
}

func (repo *projectRepository) ListCurrentProjects() ([]project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	now := time.Now()
	projects := make([]project.Project, 0, len(repo.db.projects))
	for _, p := range repo.db.projects {
		if p.StartDate.After(now) || p.State == project.StateNotationFinished {
			continue
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

func (repo *projectRepository) UpdateProjectState(projectID uuid.UUID, state project.State) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.projects[projectID]
	if !ok {
		return project.ErrNotFound
	}
	p.State = state
	return nil
}

func (repo *projectRepository) ListProjectGroups(projectID uuid.UUID) ([]project.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	groups := make([]project.Group, 0)
	for _, g := range repo.db.groups {
		if g.ProjectID == projectID {
			groups = append(groups, *g)
		}
	}
	return groups, nil
}

func (repo *projectRepository) ListGroupMembers(groupID uuid.UUID) ([]project.GroupMember, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	members := make([]project.GroupMember, 0, len(repo.db.members[groupID]))
	for _, m := range repo.db.members[groupID] {
		members = append(members, *m)
	}
	return members, nil
}

func (repo *projectRepository) GetStudentGroup(studentID, projectID uuid.UUID) (project.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for gid, members := range repo.db.members {
		g, ok := repo.db.groups[gid]
		if !ok || g.ProjectID != projectID {
			continue
		}
		for _, m := range members {
			if m.Student.ID == studentID {
				return *g, nil
			}
		}
	}
	return project.Group{}, project.ErrNotFound
}

func (repo *projectRepository) ListReceivedMarks(studentID, groupID uuid.UUID) ([]project.Mark, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	marks := make([]project.Mark, 0)
	for _, m := range repo.db.marks {
		if m.NotedStudentID == studentID && m.GroupID == groupID {
			marks = append(marks, m)
		}
	}
	return marks, nil
}

func (repo *projectRepository) UpdateGroupStudentMark(groupID, studentID uuid.UUID, mark null.Float64) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, m := range repo.db.members[groupID] {
		if m.Student.ID == studentID {
			m.StudentMark = mark
			return nil
		}
	}
	return project.ErrNotFound
}

func (repo *projectRepository) CreateStudentToken(token project.StudentToken) (uuid.UUID, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	token.ID = uuid.New()
	repo.db.tokens[token.ID] = &token
	return token.ID, nil
}

func (repo *projectRepository) GetStudentToken(studentID, projectID uuid.UUID) (project.StudentToken, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, t := range repo.db.tokens {
		if t.StudentID == studentID && t.ProjectID == projectID {
			return *t, nil
		}
	}
	return project.StudentToken{}, project.ErrNotFound
}

func (repo *projectRepository) ListUnusedTokenHolders(projectID uuid.UUID) ([]project.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	seen := make(map[uuid.UUID]bool)
	students := make([]project.Student, 0)
	for _, t := range repo.db.tokens {
		if t.ProjectID != projectID || t.Used || seen[t.StudentID] {
			continue
		}
		seen[t.StudentID] = true
		if s, ok := repo.findStudent(t.StudentID); ok {
			students = append(students, s)
		}
	}
	return students, nil
}

func (repo *projectRepository) findStudent(studentID uuid.UUID) (project.Student, bool) {
	for _, members := range repo.db.members {
		for _, m := range members {
			if m.Student.ID == studentID {
				return m.Student, true
			}
		}
	}
	return project.Student{}, false
}

func (repo *projectRepository) DoneAlerts(projectID uuid.UUID, typ project.AlertType) ([]project.DoneAlert, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	alerts := make([]project.DoneAlert, 0)
	for _, a := range repo.db.doneAlerts {
		if a.ProjectID == projectID && a.Type == typ {
			alerts = append(alerts, a)
		}
	}
	return alerts, nil
}

func (repo *projectRepository) CreateDoneAlert(projectID uuid.UUID, typ project.AlertType, publishedAt time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.doneAlerts = append(repo.db.doneAlerts, project.DoneAlert{
		ID:          len(repo.db.doneAlerts) + 1,
		ProjectID:   projectID,
		Type:        typ,
		PublishedAt: publishedAt,
	})
	return nil
}

func (repo *projectRepository) GetTeacher(promotionID uuid.UUID) (project.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.teachers[promotionID]; ok {
		return t, nil
	}
	return project.Teacher{}, project.ErrNotFound
}

func (repo *projectRepository) GetTeacherConfig(promotionID uuid.UUID) (project.UserConfig, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cfg, ok := repo.db.configs[promotionID]; ok {
		return cfg, nil
	}
	return project.UserConfig{}, project.ErrNotFound
}
