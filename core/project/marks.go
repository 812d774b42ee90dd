package project

import (
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

type (
	// GroupNotation bundles everything the mark computation needs for one
	// group: its members and the peer marks each member received.
	GroupNotation struct {
		Group    Group
		Students []Student
		// ReceivedMarks maps a member's ID to the marks their peers gave them.
		ReceivedMarks map[uuid.UUID][]Mark
	}

	// StudentMarkKey identifies one member's final mark.
	StudentMarkKey struct {
		GroupID   uuid.UUID
		StudentID uuid.UUID
	}
)

// ComputeStudentMarks derives each member's final individual mark from the
// teacher-assigned group mark and the peer evaluations.
//
// Per group: a member's personal average is the mean of the marks they
// received (0 when they received none); the group average is the mean of all
// personal averages (0 for an empty group). A member whose personal average
// falls below the group average loses the difference off the group mark;
// nobody is adjusted above the group mark. Groups without a teacher mark
// yield null marks: finalization must not invent a grade.
func ComputeStudentMarks(groups []GroupNotation) map[StudentMarkKey]null.Float64 {
	studentMarks := make(map[StudentMarkKey]null.Float64)

	for _, gn := range groups {
		groupAvg := groupAverage(gn)
		for _, student := range gn.Students {
			key := StudentMarkKey{GroupID: gn.Group.ID, StudentID: student.ID}
			if !gn.Group.Mark.Valid {
				studentMarks[key] = null.Float64{}
				continue
			}
			delta := groupAvg - personalAverage(gn, student.ID)
			mark := gn.Group.Mark.Float64
			if delta > 0 {
				mark -= delta
			}
			studentMarks[key] = null.Float64From(mark)
		}
	}

	return studentMarks
}

// groupAverage is the mean of all members' personal averages.
func groupAverage(gn GroupNotation) float64 {
	avgs := make([]float64, 0, len(gn.Students))
	for _, student := range gn.Students {
		avgs = append(avgs, personalAverage(gn, student.ID))
	}
	return average(avgs)
}

// personalAverage is the mean of the marks a member received from their peers.
func personalAverage(gn GroupNotation, studentID uuid.UUID) float64 {
	received := gn.ReceivedMarks[studentID]
	marks := make([]float64, 0, len(received))
	for _, m := range received {
		marks = append(marks, m.Mark)
	}
	return average(marks)
}

func average(numbers []float64) float64 {
	if len(numbers) == 0 {
		return 0
	}
	var sum float64
	for _, n := range numbers {
		sum += n
	}
	return sum / float64(len(numbers))
}
