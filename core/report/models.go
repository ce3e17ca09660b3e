package report

import (
	"strings"
	"time"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/course"
	"github.com/trezcool/sajili/core/student"
)

// Qualification statuses
const (
	StatusQualified    = "qualified"
	StatusDisqualified = "disqualified"
	StatusNoData       = "no_data" // no session held yet
)

func qualificationStatus(st attendance.Stats) string {
	switch {
	case st.TotalSessions == 0:
		return StatusNoData
	case st.Qualifies:
		return StatusQualified
	default:
		return StatusDisqualified
	}
}

type Row struct {
	Student student.Student  `json:"student"`
	Stats   attendance.Stats `json:"stats"`
	Status  string           `json:"status"`
}

type Summary struct {
	Students          int     `json:"students"`
	Qualified         int     `json:"qualified"`
	Disqualified      int     `json:"disqualified"`
	NoData            int     `json:"no_data"`
	AverageAttendance float64 `json:"average_attendance"`
}

type CourseReport struct {
	Course      course.Course            `json:"course"`
	Sessions    int                      `json:"sessions"`
	Rows        []Row                    `json:"rows"`
	Summary     Summary                  `json:"summary"`
	Weekly      []attendance.WeekSummary `json:"weekly"`
	GeneratedAt time.Time                `json:"generated_at"`
}

type StudentCourse struct {
	Course course.Course    `json:"course"`
	Stats  attendance.Stats `json:"stats"`
	Status string           `json:"status"`
}

type StudentReport struct {
	Student student.Student `json:"student"`
	Courses []StudentCourse `json:"courses"`
}

// Filter narrows the students of a course report. Level defaults to the course level.
type Filter struct {
	Level      string `query:"level"`
	Department string `query:"department"`
}

func (f *Filter) Clean() {
	f.Level = strings.ToUpper(core.CleanString(f.Level))
	f.Department = core.CleanString(f.Department)
}

// EmailRequest asks for a course report to be sent by email.
type EmailRequest struct {
	Filter
	To []string `json:"to" validate:"required,min=1,dive,email"`
}
