package tests

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/sajili/apps/api/echo"
	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/course"
	"github.com/trezcool/sajili/core/record"
	"github.com/trezcool/sajili/core/session"
	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/core/user"
	"github.com/trezcool/sajili/tests"
)

// freezeClock sets the attendance clock to 2024-10-07 at clock (HH:MM, UTC) until the test ends.
func freezeClock(t *testing.T, clock string) {
	now, err := time.Parse("2006-01-02 15:04", "2024-10-07 "+clock)
	if err != nil {
		t.Fatalf("freezeClock(%s) failed: %v", clock, err)
	}
	attendance.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { attendance.NowFunc = time.Now })
}

func Test_sessionApi_create(t *testing.T) {
	app, srv := setup(t)

	token := getToken(t, app, createAdmin(t, app, "admin"))
	crs := testutil.CreateCourse(t, app.CourseRepo, "COM 101", student.LevelND1)

	runHTTPTests(t, srv, []httpTest{
		{
			name: "Unknown course", method: http.MethodPost, path: "/v1/sessions", token: token,
			body:     marchallObj(t, session.NewSession{CourseID: "unknown", Date: "2024-10-07", StartTime: "09:00", EndTime: "11:00"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"course_id": "course not found"}),
		},
		{
			name: "Invalid times", method: http.MethodPost, path: "/v1/sessions", token: token,
			body:     marchallObj(t, session.NewSession{CourseID: crs.ID, Date: "07/10/2024", StartTime: "9am", EndTime: "11:00"}),
			wantCode: http.StatusBadRequest,
		},
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/sessions", token, marchallObj(t, session.NewSession{
		CourseID:  crs.ID,
		Date:      "2024-10-07",
		StartTime: "09:00",
		EndTime:   "11:00",
		Location:  "Lab 2",
	}))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var sess attendance.Session
	decode(t, rec, &sess)
	if sess.Week != 1 || sess.IsActive || sess.Code != "" || sess.Location != "Lab 2" {
		t.Errorf("failed! session = %+v", sess)
	}

	runHTTPTests(t, srv, []httpTest{
		{name: "Query", path: "/v1/sessions?course_id=" + crs.ID, token: token, wantCode: http.StatusOK, wantData: marchallList(t, sess)},
		{name: "Query (inactive)", path: "/v1/sessions?is_active=true", token: token, wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "Retrieve", path: "/v1/sessions/" + sess.ID, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, sess)},
		{name: "Unknown", path: "/v1/sessions/unknown", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: session.ErrNotFound.Error()})},
	})
}

func Test_sessionApi_lifecycle(t *testing.T) {
	app, srv := setup(t)
	freezeClock(t, "09:05")

	token := getToken(t, app, createAdmin(t, app, "admin"))
	crs := testutil.CreateCourse(t, app.CourseRepo, "COM 101", student.LevelND1)
	sess := testutil.CreateSession(t, app.SessionRepo, crs, 1, "2024-10-07")
	std1 := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 1)
	std2 := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 2)
	path := "/v1/sessions/" + sess.ID

	inactive := marchallObj(t, httpErr{Error: session.ErrSessionInactive.Error()})
	runHTTPTests(t, srv, []httpTest{
		{name: "Refresh inactive", method: http.MethodPost, path: path + "/refresh", token: token, wantCode: http.StatusConflict, wantData: inactive},
		{name: "QR of inactive", path: path + "/qr.png", token: token, wantCode: http.StatusConflict, wantData: inactive},
	})

	// start
	rec := serve(srv, httpTest{method: http.MethodPost, path: path + "/start", token: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("start failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &sess)
	if !sess.IsActive || !attendance.IsValid(sess.Code, sess.ID) {
		t.Fatalf("failed! started session = %+v", sess)
	}

	runHTTPTests(t, srv, []httpTest{
		{
			name: "QR", path: path + "/qr", token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, session.NewQR(sess, app.Conf.Attendance.CodeMaxAge)),
		},
	})

	rec = serve(srv, httpTest{path: path + "/qr.png", token: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("qr.png failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("failed! Content-Type = %v; want image/png", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("failed! body is not a PNG image")
	}

	// refresh
	freezeClock(t, "09:06")
	rec = serve(srv, httpTest{method: http.MethodPost, path: path + "/refresh", token: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var refreshed attendance.Session
	decode(t, rec, &refreshed)
	if refreshed.Code == sess.Code || !refreshed.IsActive {
		t.Errorf("failed! code not renewed: %+v", refreshed)
	}

	// manual mark
	rec = serve(srv, httpTest{
		method: http.MethodPost, path: path + "/records", token: token,
		body: marchallObj(t, record.NewMark{MatricNumber: std1.MatricNumber}),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("mark failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var marked attendance.Record
	decode(t, rec, &marked)
	if marked.StudentID != std1.ID || marked.Status != attendance.StatusPresent {
		t.Errorf("failed! record = %+v", marked)
	}

	runHTTPTests(t, srv, []httpTest{
		{
			name: "Mark twice", method: http.MethodPost, path: path + "/records", token: token,
			body:     marchallObj(t, record.NewMark{MatricNumber: std1.MatricNumber}),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: record.ErrAlreadyMarked.Error()}),
		},
		{
			name: "Mark invalid status", method: http.MethodPost, path: path + "/records", token: token,
			body:     marchallObj(t, record.NewMark{MatricNumber: std2.MatricNumber, Status: "sick"}),
			wantCode: http.StatusBadRequest,
		},
		{name: "Records", path: path + "/records", token: token, wantCode: http.StatusOK, wantData: marchallList(t, marked)},
	})

	// stop
	rec = serve(srv, httpTest{method: http.MethodPost, path: path + "/stop?mark_absent=true", token: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("stop failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var stopped echoapi.StopResponse
	decode(t, rec, &stopped)
	if stopped.Session.IsActive || stopped.Session.Code != "" || stopped.AbsentMarked != 1 {
		t.Errorf("failed! stop = %+v", stopped)
	}

	records, err := app.Records.Query(context.Background(), &record.QueryFilter{SessionID: sess.ID, StudentID: std2.ID})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(records) != 1 || records[0].Status != attendance.StatusAbsent {
		t.Errorf("failed! records of absentee = %+v", records)
	}

	// delete
	rec = serve(srv, httpTest{method: http.MethodDelete, path: path, token: token})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
}

func Test_lecturerPermissions(t *testing.T) {
	app, srv := setup(t)
	freezeClock(t, "09:05")

	token := getToken(t, app, createAdmin(t, app, "lecturer", user.RoleLecturer))
	crs := testutil.CreateCourse(t, app.CourseRepo, "COM 101", student.LevelND1)
	sess := testutil.CreateSession(t, app.SessionRepo, crs, 1, "2024-10-07")
	std := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 1)
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	runHTTPTests(t, srv, []httpTest{
		{name: "Read courses", path: "/v1/courses", token: token, wantCode: http.StatusOK, wantData: marchallList(t, crs)},
		{name: "Read students", path: "/v1/students/" + std.ID, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, std)},
		{name: "Start session", method: http.MethodPost, path: "/v1/sessions/" + sess.ID + "/start", token: token, wantCode: http.StatusOK},
		{
			name: "Create course", method: http.MethodPost, path: "/v1/courses", token: token,
			body:     marchallObj(t, course.NewCourse{Code: "COM 102", Title: "X", CreditUnit: 2, Department: "CS", Level: "ND1", Semester: course.FirstSemester}),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{name: "Delete student", method: http.MethodDelete, path: "/v1/students/" + std.ID, token: token, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "List users", path: "/v1/users", token: token, wantCode: http.StatusForbidden, wantData: forbidden},
	})
}
