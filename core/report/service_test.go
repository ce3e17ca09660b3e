package report_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/course"
	"github.com/trezcool/sajili/core/report"
	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/tests"
)

const wantCSV = `Matric Number,Name,Department,Level,Total Sessions,Attended,Percentage,Status
CFJ/ND/COM/2024/001,Student1 ND1,Computer Science,ND1,4,4,100.0%,Qualified
CFJ/ND/COM/2024/002,Student2 ND1,Computer Science,ND1,4,3,75.0%,Qualified
CFJ/ND/COM/2024/003,Student3 ND1,Computer Science,ND1,4,2,50.0%,Disqualified
`

// seed creates a 4-session ND1 course where students 1, 2 & 3 attended 4, 3 & 2 sessions.
func seed(t *testing.T, app *testutil.App) course.Course {
	crs := testutil.CreateCourse(t, app.CourseRepo, "COM 101", student.LevelND1)
	// created out of order on purpose
	c := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 3)
	a := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 1)
	b := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 2)
	other := testutil.CreateStudent(t, app.StudentRepo, student.LevelND2, 1)

	marks := [][]struct {
		std    student.Student
		status attendance.Status
	}{
		{{a, attendance.StatusPresent}, {b, attendance.StatusPresent}, {c, attendance.StatusPresent}},
		{{a, attendance.StatusPresent}, {b, attendance.StatusLate}, {c, attendance.StatusAbsent}},
		{{a, attendance.StatusPresent}, {b, attendance.StatusPresent}, {c, attendance.StatusPresent}},
		{{a, attendance.StatusLate}, {b, attendance.StatusAbsent}},
	}
	dates := []string{"2024-10-07", "2024-10-14", "2024-10-21", "2024-10-28"}
	for i, week := range marks {
		sess := testutil.CreateSession(t, app.SessionRepo, crs, i+1, dates[i])
		for _, m := range week {
			testutil.CreateRecord(t, app.RecordRepo, sess, m.std, m.status)
		}
	}

	// attendance to other courses is irrelevant
	com201 := testutil.CreateCourse(t, app.CourseRepo, "COM 201", student.LevelND2)
	testutil.CreateRecord(t, app.RecordRepo, testutil.CreateSession(t, app.SessionRepo, com201, 1, "2024-10-08"), other, attendance.StatusPresent)
	return crs
}

func TestService_CourseReport(t *testing.T) {
	app := testutil.NewApp(t)
	crs := seed(t, app)

	rep, err := app.Reports.CourseReport(context.Background(), crs.ID, report.Filter{})
	require.NoError(t, err)

	assert.Equal(t, crs.ID, rep.Course.ID)
	assert.Equal(t, 4, rep.Sessions)
	require.Len(t, rep.Rows, 3)

	matrics := []string{rep.Rows[0].Student.MatricNumber, rep.Rows[1].Student.MatricNumber, rep.Rows[2].Student.MatricNumber}
	assert.Equal(t, []string{"CFJ/ND/COM/2024/001", "CFJ/ND/COM/2024/002", "CFJ/ND/COM/2024/003"}, matrics)
	assert.Equal(t, report.StatusQualified, rep.Rows[1].Status, "75% qualifies")
	assert.Equal(t, report.StatusDisqualified, rep.Rows[2].Status)
	assert.Equal(t, report.Summary{Students: 3, Qualified: 2, Disqualified: 1, AverageAttendance: 75}, rep.Summary)

	require.Len(t, rep.Weekly, 4)
	assert.Equal(t, attendance.WeekSummary{
		SessionID: rep.Weekly[1].SessionID, Week: 2, Date: "2024-10-14", Present: 1, Late: 1, Absent: 1, Total: 3,
	}, rep.Weekly[1])
	assert.Equal(t, 2, rep.Weekly[3].Total)

	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf, rep))
	assert.Equal(t, wantCSV, buf.String())
	assert.Equal(t, "COM_101_attendance_report.csv", report.Filename(rep.Course))
}

func TestService_CourseReport_filters(t *testing.T) {
	app := testutil.NewApp(t)
	crs := seed(t, app)

	rep, err := app.Reports.CourseReport(context.Background(), crs.ID, report.Filter{Department: "Accounting"})
	require.NoError(t, err)
	assert.Empty(t, rep.Rows)
	assert.Zero(t, rep.Summary.AverageAttendance)

	// ND2 students do not attend COM 101 sessions
	rep, err = app.Reports.CourseReport(context.Background(), crs.ID, report.Filter{Level: student.LevelND2})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	assert.Zero(t, rep.Rows[0].Stats.AttendedSessions)

	_, err = app.Reports.CourseReport(context.Background(), "unknown", report.Filter{})
	assert.Equal(t, course.ErrNotFound, err)
}

func TestService_CourseReport_noSessions(t *testing.T) {
	app := testutil.NewApp(t)
	crs := testutil.CreateCourse(t, app.CourseRepo, "COM 101", student.LevelND1)
	testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 1)

	rep, err := app.Reports.CourseReport(context.Background(), crs.ID, report.Filter{})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, report.StatusNoData, rep.Rows[0].Status)
	assert.Equal(t, 0.0, rep.Rows[0].Stats.Percentage)
	assert.False(t, rep.Rows[0].Stats.Qualifies)
	assert.Equal(t, 1, rep.Summary.NoData)
}

func TestService_StudentReport(t *testing.T) {
	app := testutil.NewApp(t)
	crs := seed(t, app)
	testutil.CreateCourse(t, app.CourseRepo, "COM 102", student.LevelND1)

	std, err := app.Students.GetByMatricNumber(context.Background(), "CFJ/ND/COM/2024/002")
	require.NoError(t, err)
	rep, err := app.Reports.StudentReport(context.Background(), std)
	require.NoError(t, err)

	require.Len(t, rep.Courses, 2)
	assert.Equal(t, crs.ID, rep.Courses[0].Course.ID)
	assert.Equal(t, 75.0, rep.Courses[0].Stats.Percentage)
	assert.Equal(t, report.StatusQualified, rep.Courses[0].Status)
	assert.Equal(t, report.StatusNoData, rep.Courses[1].Status)
}

func TestService_EmailCourseReport(t *testing.T) {
	app := testutil.NewApp(t)
	crs := seed(t, app)

	err := app.Reports.EmailCourseReport(context.Background(), crs.ID, report.Filter{}, "hod@school.edu", "lecturer@school.edu")
	require.NoError(t, err)

	sent := app.Mail.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	require.Len(t, msg.To, 2)
	assert.Equal(t, "hod@school.edu", msg.To[0].Address)
	assert.Contains(t, msg.Subject, "COM 101")
	assert.Contains(t, msg.TextContent, "3 students, 2 qualified, 1 disqualified (4 sessions held)")

	require.Len(t, msg.Attachments, 1)
	att := msg.Attachments[0]
	assert.Equal(t, "COM_101_attendance_report.csv", att.Filename)
	assert.Equal(t, "text/csv", att.ContentType)
	content, err := base64.StdEncoding.DecodeString(att.Content.String())
	require.NoError(t, err)
	assert.Equal(t, wantCSV, string(content))
}
