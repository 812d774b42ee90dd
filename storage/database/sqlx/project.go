package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/bitbox360/backend/core/project"
)

type projectRepository struct {
	db *sqlx.DB
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *sqlx.DB) project.Repository {
	return &projectRepository{db: db}
}

func (repo *projectRepository) ListCurrentProjects() ([]project.Project, error) {
	projects := make([]project.Project, 0)
	err := repo.db.Select(&projects, `
		SELECT id, name, description, start_date, end_date, notation_period_duration, promotion_id, state
		FROM projects
		WHERE start_date <= now() AND state <> 'notation_finished'`,
	)
	return projects, err
}

func (repo *projectRepository) UpdateProjectState(projectID uuid.UUID, state project.State) error {
	res, err := repo.db.Exec(`UPDATE projects SET state = $1 WHERE id = $2`, state, projectID)
	if err != nil {
		return err
	}
	return checkFound(res)
}

func (repo *projectRepository) ListProjectGroups(projectID uuid.UUID) ([]project.Group, error) {
	groups := make([]project.Group, 0)
	err := repo.db.Select(&groups, `
		SELECT id, name, mark, max_mark, project_id
		FROM groups
		WHERE project_id = $1`,
		projectID,
	)
	return groups, err
}

func (repo *projectRepository) ListGroupMembers(groupID uuid.UUID) ([]project.GroupMember, error) {
	members := make([]project.GroupMember, 0)
	err := repo.db.Select(&members, `
		SELECT gs.group_id, gs.student_mark, gs.max_mark,
		       s.id AS "student.id", s.name AS "student.name",
		       s.surname AS "student.surname", s.email AS "student.email"
		FROM groups_students gs
		JOIN students s ON s.id = gs.student_id
		WHERE gs.group_id = $1`,
		groupID,
	)
	return members, err
}

func (repo *projectRepository) GetStudentGroup(studentID, projectID uuid.UUID) (project.Group, error) {
	var g project.Group
	err := repo.db.Get(&g, `
		SELECT g.id, g.name, g.mark, g.max_mark, g.project_id
		FROM groups g
		JOIN groups_students gs ON gs.group_id = g.id
		WHERE gs.student_id = $1 AND g.project_id = $2`,
		studentID, projectID,
	)
	if err == sql.ErrNoRows {
		return project.Group{}, project.ErrNotFound
	}
	return g, err
}

func (repo *projectRepository) ListReceivedMarks(studentID, groupID uuid.UUID) ([]project.Mark, error) {
	marks := make([]project.Mark, 0)
	err := repo.db.Select(&marks, `
		SELECT project_id, group_id, noted_student_id, grader_student_id, mark, max_mark, comment
		FROM marks
		WHERE noted_student_id = $1 AND group_id = $2`,
		studentID, groupID,
	)
	return marks, err
}

func (repo *projectRepository) UpdateGroupStudentMark(groupID, studentID uuid.UUID, mark null.Float64) error {
	res, err := repo.db.Exec(`
		UPDATE groups_students SET student_mark = $1
		WHERE group_id = $2 AND student_id = $3`,
		mark, groupID, studentID,
	)
	if err != nil {
		return err
	}
	return checkFound(res)
}

func (repo *projectRepository) CreateStudentToken(token project.StudentToken) (uuid.UUID, error) {
	var id uuid.UUID
	err := repo.db.Get(&id, `
		INSERT INTO students_tokens (token, student_id, project_id)
		VALUES ($1, $2, $3)
		RETURNING id`,
		token.Token, token.StudentID, token.ProjectID,
	)
	return id, err
}

func (repo *projectRepository) GetStudentToken(studentID, projectID uuid.UUID) (project.StudentToken, error) {
	var t project.StudentToken
	err := repo.db.Get(&t, `
		SELECT id, token, student_id, project_id, used
		FROM students_tokens
		WHERE student_id = $1 AND project_id = $2
		ORDER BY id
		LIMIT 1`,
		studentID, projectID,
	)
	if err == sql.ErrNoRows {
		return project.StudentToken{}, project.ErrNotFound
	}
	return t, err
}

func (repo *projectRepository) ListUnusedTokenHolders(projectID uuid.UUID) ([]project.Student, error) {
	students := make([]project.Student, 0)
	err := repo.db.Select(&students, `
		SELECT DISTINCT s.id, s.name, s.surname, s.email
		FROM students s
		JOIN students_tokens st ON st.student_id = s.id
		WHERE st.project_id = $1 AND NOT st.used`,
		projectID,
	)
	return students, err
}

func (repo *projectRepository) DoneAlerts(projectID uuid.UUID, typ project.AlertType) ([]project.DoneAlert, error) {
	alerts := make([]project.DoneAlert, 0)
	err := repo.db.Select(&alerts, `
		SELECT id, description, project_id, type, published_at
		FROM done_alerts
		WHERE project_id = $1 AND type = $2`,
		projectID, typ,
	)
	return alerts, err
}

func (repo *projectRepository) CreateDoneAlert(projectID uuid.UUID, typ project.AlertType, publishedAt time.Time) error {
	_, err := repo.db.Exec(`
		INSERT INTO done_alerts (project_id, type, published_at)
		VALUES ($1, $2, $3)`,
		projectID, typ, publishedAt,
	)
	return err
}

func (repo *projectRepository) GetTeacher(promotionID uuid.UUID) (project.Teacher, error) {
	var t project.Teacher
	err := repo.db.Get(&t, `
		SELECT u.id, u.username, u.email
		FROM users u
		JOIN promotions p ON p.teacher_id = u.id
		WHERE p.id = $1`,
		promotionID,
	)
	if err == sql.ErrNoRows {
		return project.Teacher{}, project.ErrNotFound
	}
	return t, err
}

func (repo *projectRepository) GetTeacherConfig(promotionID uuid.UUID) (project.UserConfig, error) {
	var row struct {
		ID        int       `db:"id"`
		UserID    uuid.UUID `db:"user_id"`
		Alerts    []byte    `db:"alerts"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	err := repo.db.Get(&row, `
		SELECT uc.id, uc.user_id, uc.alerts, uc.updated_at
		FROM user_config uc
		JOIN promotions p ON p.teacher_id = uc.user_id
		WHERE p.id = $1`,
		promotionID,
	)
	if err == sql.ErrNoRows {
		return project.UserConfig{}, project.ErrNotFound
	}
	if err != nil {
		return project.UserConfig{}, err
	}

	cfg := project.UserConfig{ID: row.ID, UserID: row.UserID, UpdatedAt: row.UpdatedAt}
	if err := json.Unmarshal(row.Alerts, &cfg.Alerts); err != nil {
		return project.UserConfig{}, errors.Wrap(err, "decoding alert offsets")
	}
	return cfg, nil
}

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return project.ErrNotFound
	}
	return nil
}
