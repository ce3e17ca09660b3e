package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/sajili/apps/shared"
	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/course"
	"github.com/trezcool/sajili/core/record"
	"github.com/trezcool/sajili/core/report"
	"github.com/trezcool/sajili/core/session"
	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/core/user"
	"github.com/trezcool/sajili/services/email"
	"github.com/trezcool/sajili/services/events"
	"github.com/trezcool/sajili/services/logger"
	"github.com/trezcool/sajili/services/metrics"
	"github.com/trezcool/sajili/storage/database/inmem"
)

// App wires every service on top of a fresh in-memory store.
type App struct {
	Conf       *core.Config
	DB         *inmemdb.DB
	Logger     core.Logger
	Bus        *eventsvc.MemoryBus
	Metrics    *metricsvc.Prometheus
	Mail       *emailsvc.ConsoleService
	Validate   *validator.Validate
	Translator ut.Translator

	UserRepo    user.Repository
	StudentRepo student.Repository
	CourseRepo  course.Repository
	SessionRepo session.Repository
	RecordRepo  record.Repository

	Users    *user.Service
	Students *student.Service
	Courses  *course.Service
	Sessions *session.Service
	Records  *record.Service
	Reports  *report.Service
}

func NewApp(t *testing.T) *App {
	t.Helper()

	app := &App{
		Conf:    core.NewTestConfig(),
		DB:      inmemdb.NewDB(),
		Logger:  logsvc.NewTestLogger(),
		Metrics: metricsvc.NewPrometheus(),
	}
	app.Bus = eventsvc.NewMemoryBus(app.Metrics)
	app.Mail = emailsvc.NewConsoleServiceMock(app.Conf, app.Logger)
	app.Validate, app.Translator = shared.NewValidator()
	t.Cleanup(func() { _ = app.Bus.Close() })

	app.UserRepo = inmemdb.NewUserRepository(app.DB)
	app.StudentRepo = inmemdb.NewStudentRepository(app.DB)
	app.CourseRepo = inmemdb.NewCourseRepository(app.DB)
	app.SessionRepo = inmemdb.NewSessionRepository(app.DB)
	app.RecordRepo = inmemdb.NewRecordRepository(app.DB)

	app.Users = user.NewService(app.UserRepo)
	app.Students = student.NewService(app.StudentRepo, app.Bus, app.Logger)
	app.Courses = course.NewService(app.CourseRepo, app.Bus, app.Logger)
	app.Sessions = session.NewService(app.SessionRepo, app.Courses, app.Bus, app.Metrics, app.Logger)
	app.Records = record.NewService(
		app.RecordRepo, app.Sessions, app.Courses, app.Students, app.Bus, app.Metrics, app.Logger, app.Conf.Attendance,
	)
	app.Reports = report.NewService(app.Courses, app.Sessions, app.Records, app.Students, app.Mail, app.Logger)
	return app
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateStudent adds the n-th student of a level, e.g. CFJ/ND/COM/2024/001 for (ND1, 1).
func CreateStudent(t *testing.T, repo student.Repository, level string, n int, names ...string) student.Student {
	year, prefix := 2024, "ND"
	switch level {
	case student.LevelND2:
		year = 2023
	case student.LevelHND1:
		prefix = "HND"
	case student.LevelHND2:
		year, prefix = 2023, "HND"
	}
	first, last := fmt.Sprintf("Student%d", n), level
	if len(names) > 0 {
		first = names[0]
	}
	if len(names) > 1 {
		last = names[1]
	}

	now := time.Now().UTC()
	std, err := repo.CreateStudent(context.Background(), student.Student{
		MatricNumber: fmt.Sprintf("CFJ/%s/COM/%d/%03d", prefix, year, n),
		FirstName:    first,
		LastName:     last,
		Department:   student.DefaultDepartment,
		Level:        level,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

func CreateCourse(t *testing.T, repo course.Repository, code, level string) course.Course {
	now := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Code:       course.CleanCode(code),
		Title:      "Course " + code,
		CreditUnit: 3,
		Department: student.DefaultDepartment,
		Level:      level,
		Semester:   course.FirstSemester,
		Session:    "2024/2025",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

// CreateSession schedules a session of the course on date (YYYY-MM-DD) from 09:00 to 11:00.
func CreateSession(t *testing.T, repo session.Repository, crs course.Course, week int, date string) attendance.Session {
	sess, err := repo.CreateSession(context.Background(), attendance.Session{
		CourseID:  crs.ID,
		Week:      week,
		Date:      date,
		StartTime: "09:00",
		EndTime:   "11:00",
		Location:  "Lab 1",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createSession() failed: %v", err)
	}
	return sess
}

func CreateRecord(t *testing.T, repo record.Repository, sess attendance.Session, std student.Student, status attendance.Status) attendance.Record {
	rec, err := repo.CreateRecord(context.Background(), attendance.Record{
		SessionID:    sess.ID,
		StudentID:    std.ID,
		MatricNumber: std.MatricNumber,
		MarkedAt:     time.Now().UTC(),
		Status:       status,
	})
	if err != nil {
		t.Fatalf("createRecord() failed: %v", err)
	}
	return rec
}

// CounterValue reads a counter from reg; labels are name/value pairs.
func CounterValue(t *testing.T, reg prometheus.Gatherer, name string, labels ...string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	want := make(map[string]string, len(labels)/2)
	for i := 0; i+1 < len(labels); i += 2 {
		want[labels[i]] = labels[i+1]
	}

	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
	metrics:
		for _, m := range fam.GetMetric() {
			for _, lbl := range m.GetLabel() {
				if v, ok := want[lbl.GetName()]; ok && v != lbl.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
