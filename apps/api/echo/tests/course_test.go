package tests

import (
	"net/http"
	"testing"

	"github.com/trezcool/sajili/core/course"
	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/tests"
)

func Test_courseApi(t *testing.T) {
	app, srv := setup(t)

	token := getToken(t, app, createAdmin(t, app, "admin"))
	com201 := testutil.CreateCourse(t, app.CourseRepo, "COM 201", student.LevelND2)
	com101 := testutil.CreateCourse(t, app.CourseRepo, "COM 101", student.LevelND1)

	newCourse := course.NewCourse{
		Code:       "  com   102 ",
		Title:      "Introduction to Programming",
		CreditUnit: 3,
		Department: student.DefaultDepartment,
		Level:      "nd1",
		Semester:   course.FirstSemester,
	}

	runHTTPTests(t, srv, []httpTest{
		{name: "Auth required", path: "/v1/courses", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get all", path: "/v1/courses", token: token, wantCode: http.StatusOK, wantData: marchallList(t, com101, com201)},
		{name: "level", path: "/v1/courses?level=ND2", token: token, wantCode: http.StatusOK, wantData: marchallList(t, com201)},
		{name: "Retrieve", path: "/v1/courses/" + com101.ID, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, com101)},
		{name: "Unknown", path: "/v1/courses/unknown", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: course.ErrNotFound.Error()})},
		{
			name: "Semester", method: http.MethodPost, path: "/v1/courses", token: token,
			body:     marchallObj(t, course.NewCourse{Code: "COM 103", Title: "X", CreditUnit: 2, Department: "CS", Level: "ND1", Semester: "Third"}),
			wantCode: http.StatusBadRequest,
		},
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/courses", token, marchallObj(t, newCourse))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var created course.Course
	decode(t, rec, &created)
	if created.Code != "COM 102" || created.Level != student.LevelND1 {
		t.Errorf("failed! created = %+v", created)
	}

	// code is unique
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses", token, marchallObj(t, newCourse))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate code! code = %v; body %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPut, "/v1/courses/"+created.ID, token, marchallObj(t, course.UpdateCourse{Lecturer: "Dr. Okafor"}))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var updated course.Course
	decode(t, rec, &updated)
	if updated.Lecturer != "Dr. Okafor" || updated.Title != newCourse.Title || updated.CreditUnit != 3 {
		t.Errorf("failed! updated = %+v", updated)
	}

	req, rec = newAuthRequest(http.MethodDelete, "/v1/courses/"+created.ID, token)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	if _, err := app.Courses.GetByID(req.Context(), created.ID); err != course.ErrNotFound {
		t.Errorf("failed! err = %v; want %v", err, course.ErrNotFound)
	}
}
