package student_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/record"
	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/tests"
)

func failedFields(t *testing.T, err error) []string {
	t.Helper()
	var fields []string
	var verr validator.ValidationErrors
	var cerr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		for _, fe := range verr {
			fields = append(fields, fe.Field())
		}
	case errors.As(err, &cerr):
		for _, fe := range cerr.Fields {
			fields = append(fields, fe.Field)
		}
	case err != nil:
		t.Fatalf("unexpected error: %v", err)
	}
	return fields
}

func TestNewStudent_Validate(t *testing.T) {
	app := testutil.NewApp(t)
	testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 1)

	tests := []struct {
		name       string
		ns         student.NewStudent
		wantFields []string
	}{
		{
			name: "valid",
			ns:   student.NewStudent{MatricNumber: " cfj/nd/com/2024/002", FirstName: "Ada", LastName: "Obi", Level: "nd1"},
		},
		{
			name:       "missing fields",
			ns:         student.NewStudent{},
			wantFields: []string{"matric_number", "first_name", "last_name", "level"},
		},
		{
			name:       "bad formats",
			ns:         student.NewStudent{MatricNumber: "ND/2024/002", FirstName: "Ada", LastName: "Obi", Email: "ada@", Level: "ND3"},
			wantFields: []string{"matric_number", "email", "level"},
		},
		{
			name:       "taken matric number",
			ns:         student.NewStudent{MatricNumber: "CFJ/ND/COM/2024/001", FirstName: "Ada", LastName: "Obi", Level: "ND1"},
			wantFields: []string{"matric_number"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate(app.Validate, app.Students)
			assert.ElementsMatch(t, tt.wantFields, failedFields(t, err))
		})
	}
}

func TestService_Create(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()

	ns := student.NewStudent{MatricNumber: "cfj/hnd/com/2023/010", FirstName: " Ada ", LastName: "Obi", Level: "hnd2", Email: "Ada@Mail.com"}
	require.NoError(t, ns.Validate(app.Validate, app.Students))
	std, err := app.Students.Create(ctx, ns)
	require.NoError(t, err)

	assert.NotEmpty(t, std.ID)
	assert.Equal(t, "CFJ/HND/COM/2023/010", std.MatricNumber)
	assert.Equal(t, "Ada Obi", std.FullName())
	assert.Equal(t, student.LevelHND2, std.Level)
	assert.Equal(t, student.DefaultDepartment, std.Department)
	assert.Equal(t, "ada@mail.com", std.Email)

	got, err := app.Students.GetByMatricNumber(ctx, "cfj/hnd/com/2023/010")
	require.NoError(t, err)
	assert.Equal(t, std.ID, got.ID)

	_, err = app.Students.GetByMatricNumber(ctx, "garbage")
	assert.Equal(t, student.ErrNotFound, err)
}

func TestService_Query(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	nd2 := testutil.CreateStudent(t, app.StudentRepo, student.LevelND2, 1, "Chidi", "Eze")
	nd1b := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 2, "Bola", "Ade")
	nd1a := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 1, "Amaka", "Okoro")

	ids := func(stds []student.Student) []string {
		res := make([]string, len(stds))
		for i, std := range stds {
			res[i] = std.ID
		}
		return res
	}

	tests := []struct {
		name     string
		filter   *student.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "default ordering", want: []string{nd1a.ID, nd1b.ID, nd2.ID}},
		{name: "by level", filter: &student.QueryFilter{Level: student.LevelND2}, want: []string{nd2.ID}},
		{name: "search", filter: &student.QueryFilter{Search: "okoro"}, want: []string{nd1a.ID}},
		{
			name:     "ordered by first name desc",
			ordering: []core.DBOrdering{{Field: "first_name"}},
			want:     []string{nd2.ID, nd1b.ID, nd1a.ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := app.Students.Query(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestService_Update(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 1)
	taken := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 2)
	crs := testutil.CreateCourse(t, app.CourseRepo, "COM 101", student.LevelND1)
	sess := testutil.CreateSession(t, app.SessionRepo, crs, 1, "2024-10-07")
	testutil.CreateRecord(t, app.RecordRepo, sess, std, attendance.StatusPresent)

	us := student.UpdateStudent{MatricNumber: taken.MatricNumber}
	assert.Equal(t, []string{"matric_number"}, failedFields(t, us.Validate(std, app.Validate, app.Students)))

	us = student.UpdateStudent{MatricNumber: "CFJ/ND/COM/2024/050", PhoneNumber: "0803"}
	require.NoError(t, us.Validate(std, app.Validate, app.Students))
	updated, err := app.Students.Update(ctx, std, us)
	require.NoError(t, err)
	assert.Equal(t, "CFJ/ND/COM/2024/050", updated.MatricNumber)
	assert.Equal(t, std.FirstName, updated.FirstName, "empty fields keep their value")
	assert.Equal(t, "0803", updated.PhoneNumber)

	recs, err := app.Records.Query(ctx, &record.QueryFilter{StudentID: std.ID})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, updated.MatricNumber, recs[0].MatricNumber)
}

func TestService_Delete(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, app.StudentRepo, student.LevelND1, 1)
	crs := testutil.CreateCourse(t, app.CourseRepo, "COM 101", student.LevelND1)
	sess := testutil.CreateSession(t, app.SessionRepo, crs, 1, "2024-10-07")
	testutil.CreateRecord(t, app.RecordRepo, sess, std, attendance.StatusPresent)

	sub, err := app.Bus.Subscribe(ctx, core.TopicStudents)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, app.Students.Delete(ctx, std.ID))
	_, err = app.Students.GetByID(ctx, std.ID)
	assert.Equal(t, student.ErrNotFound, err)

	recs, err := app.Records.Query(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, recs)

	evt := <-sub.C()
	assert.Equal(t, core.ActionDeleted, evt.Action)
	assert.Equal(t, []string{std.ID}, evt.IDs)
}
