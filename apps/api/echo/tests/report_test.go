package tests

import (
	"net/http"
	"net/mail"
	"testing"

	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/report"
	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/tests"
)

func Test_reportApi(t *testing.T) {
	app, srv := setup(t)

	token := getToken(t, app, createAdmin(t, app, "admin"))
	crs := testutil.CreateCourse(t, app.CourseRepo, "COM 101", student.LevelND1)
	std1 := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 1)
	std2 := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 2)
	week1 := testutil.CreateSession(t, app.SessionRepo, crs, 1, "2024-10-07")
	week2 := testutil.CreateSession(t, app.SessionRepo, crs, 2, "2024-10-14")
	testutil.CreateRecord(t, app.RecordRepo, week1, std1, attendance.StatusPresent)
	testutil.CreateRecord(t, app.RecordRepo, week2, std1, attendance.StatusLate)
	testutil.CreateRecord(t, app.RecordRepo, week1, std2, attendance.StatusPresent)
	testutil.CreateRecord(t, app.RecordRepo, week2, std2, attendance.StatusAbsent)

	path := "/v1/reports/courses/" + crs.ID

	runHTTPTests(t, srv, []httpTest{
		{name: "Admin required", path: path, token: getStudentToken(t, app, std1), wantCode: http.StatusForbidden},
		{name: "Unknown course", path: "/v1/reports/courses/unknown", token: token, wantCode: http.StatusNotFound},
	})

	rec := serve(srv, httpTest{path: path, token: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("report failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var rep report.CourseReport
	decode(t, rec, &rep)
	wantSummary := report.Summary{Students: 2, Qualified: 1, Disqualified: 1, AverageAttendance: 75}
	if rep.Summary != wantSummary {
		t.Errorf("failed! summary = %+v; want %+v", rep.Summary, wantSummary)
	}
	if len(rep.Rows) != 2 || rep.Rows[0].Student.ID != std1.ID || rep.Rows[0].Status != report.StatusQualified {
		t.Errorf("failed! rows = %+v", rep.Rows)
	}

	// CSV export
	rec = serve(srv, httpTest{path: path + ".csv", token: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("csv failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	wantCSV := "Matric Number,Name,Department,Level,Total Sessions,Attended,Percentage,Status\n" +
		"CFJ/ND/COM/2024/001,Student1 ND1,Computer Science,ND1,2,2,100.0%,Qualified\n" +
		"CFJ/ND/COM/2024/002,Student2 ND1,Computer Science,ND1,2,1,50.0%,Disqualified\n"
	if got := rec.Body.String(); got != wantCSV {
		t.Errorf("failed! csv = %q; want %q", got, wantCSV)
	}
	if got, want := rec.Header().Get("Content-Disposition"), `attachment; filename="COM_101_attendance_report.csv"`; got != want {
		t.Errorf("failed! Content-Disposition = %v; want %v", got, want)
	}

	// email
	runHTTPTests(t, srv, []httpTest{
		{
			name: "Recipients required", method: http.MethodPost, path: path + "/email", token: token,
			body: marchallObj(t, report.EmailRequest{}), wantCode: http.StatusBadRequest,
		},
		{
			name: "Invalid recipient", method: http.MethodPost, path: path + "/email", token: token,
			body: marchallObj(t, report.EmailRequest{To: []string{"not-an-email"}}), wantCode: http.StatusBadRequest,
		},
		{
			name: "Emailed", method: http.MethodPost, path: path + "/email", token: token,
			body:     marchallObj(t, report.EmailRequest{To: []string{"hod@sajili.test"}}),
			wantCode: http.StatusAccepted,
			wantData: marchallObj(t, map[string]string{"success": "The report will be delivered shortly."}),
		},
	})

	sent := app.Mail.SentMessages()
	if len(sent) != 1 {
		t.Fatalf("failed! %d messages sent; want 1", len(sent))
	}
	if want := []mail.Address{{Address: "hod@sajili.test"}}; len(sent[0].To) != 1 || sent[0].To[0] != want[0] {
		t.Errorf("failed! To = %v; want %v", sent[0].To, want)
	}
	if len(sent[0].Attachments) != 1 || sent[0].Attachments[0].Filename != "COM_101_attendance_report.csv" {
		t.Errorf("failed! attachments = %+v", sent[0].Attachments)
	}
}
