package attendance

import (
	"time"

	"github.com/pkg/errors"
)

// Status of a student for a given Session.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
)

var Statuses = []Status{StatusPresent, StatusLate, StatusAbsent}

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// Attended reports whether the status counts toward qualification.
func (s Status) Attended() bool {
	return s == StatusPresent || s == StatusLate
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Session is a scheduled meeting of a course in a given week.
type Session struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"course_id"`
	Week         int       `json:"week"`
	Date         string    `json:"date"`       // YYYY-MM-DD
	StartTime    string    `json:"start_time"` // HH:MM
	EndTime      string    `json:"end_time"`   // HH:MM
	Code         string    `json:"code,omitempty"`
	CodeIssuedAt time.Time `json:"code_issued_at,omitempty"` // UTC
	IsActive     bool      `json:"is_active"`
	Location     string    `json:"location,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

// StartsAt returns the moment the session starts in loc.
func (s Session) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, s.Date+" "+s.StartTime, loc)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parsing session start")
	}
	return t, nil
}

// Record is an attendance event: a student marked for a session.
// Only one Record may exist per (SessionID, StudentID).
type Record struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	StudentID    string    `json:"student_id"`
	MatricNumber string    `json:"matric_number"`
	MarkedAt     time.Time `json:"marked_at"` // UTC
	Status       Status    `json:"status"`
	Location     string    `json:"location,omitempty"`
}

// Stats is a student's attendance summary for a course. It is derived, never stored.
type Stats struct {
	CourseID         string  `json:"course_id"`
	StudentID        string  `json:"student_id"`
	TotalSessions    int     `json:"total_sessions"`
	AttendedSessions int     `json:"attended_sessions"`
	Percentage       float64 `json:"percentage"`
	Qualifies        bool    `json:"qualifies"`
}

// WeekSummary counts the marks of all students for one session.
type WeekSummary struct {
	SessionID string `json:"session_id"`
	Week      int    `json:"week"`
	Date      string `json:"date"`
	Present   int    `json:"present"`
	Late      int    `json:"late"`
	Absent    int    `json:"absent"`
	Total     int    `json:"total"`
}
