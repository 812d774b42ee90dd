package scheduler

// Template data for the lifecycle mails; each pairs with a template under
// assets/templates/email.
type (
	evaluationOpenStudentData struct {
		GroupName     string
		ProjectName   string
		TokenID       string
		RemainingDays int
	}

	evaluationOpenTeacherData struct {
		ProjectName   string
		RemainingDays int
	}

	reminderStudentData struct {
		GroupName   string
		ProjectName string
		TokenID     string
		Deadline    string
	}

	reminderTeacherData struct {
		ProjectName string
		Deadline    string
	}

	evaluationClosedData struct {
		ProjectName string
	}
)
