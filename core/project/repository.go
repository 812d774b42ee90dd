package project

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrNotFound = errors.New("not found")
)

// Repository is the data access contract of the lifecycle engine. Not-found
// conditions surface as ErrNotFound; any other error is considered transient
// and the affected operation is retried on the next scheduler cycle.
type Repository interface {
	// ListCurrentProjects returns all projects whose start date has passed
	// and whose notation is not finished yet.
	ListCurrentProjects() ([]Project, error)
	UpdateProjectState(projectID uuid.UUID, state State) error

	ListProjectGroups(projectID uuid.UUID) ([]Group, error)
	ListGroupMembers(groupID uuid.UUID) ([]GroupMember, error)
	// GetStudentGroup returns the group the student belongs to within the
	// given project.
	GetStudentGroup(studentID, projectID uuid.UUID) (Group, error)

	// ListReceivedMarks returns the peer marks given to a student within a
	// group.
	ListReceivedMarks(studentID, groupID uuid.UUID) ([]Mark, error)
	UpdateGroupStudentMark(groupID, studentID uuid.UUID, mark null.Float64) error

	CreateStudentToken(token StudentToken) (uuid.UUID, error)
	GetStudentToken(studentID, projectID uuid.UUID) (StudentToken, error)
	// ListUnusedTokenHolders returns the students of a project still holding
	// an unused evaluation token, i.e. those who have not submitted their
	// peer evaluation yet.
	ListUnusedTokenHolders(projectID uuid.UUID) ([]Student, error)

	DoneAlerts(projectID uuid.UUID, typ AlertType) ([]DoneAlert, error)
	CreateDoneAlert(projectID uuid.UUID, typ AlertType, publishedAt time.Time) error

	// GetTeacher resolves the teacher of the promotion a project belongs to.
	GetTeacher(promotionID uuid.UUID) (Teacher, error)
	GetTeacherConfig(promotionID uuid.UUID) (UserConfig, error)
}
