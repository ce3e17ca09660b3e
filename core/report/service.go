package report

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/course"
	"github.com/trezcool/sajili/core/record"
	"github.com/trezcool/sajili/core/session"
	"github.com/trezcool/sajili/core/student"
)

type Service struct {
	courses  *course.Service
	sessions *session.Service
	records  *record.Service
	students *student.Service
	mailSvc  core.EmailService
	logger   core.Logger
}

func NewService(
	courses *course.Service,
	sessions *session.Service,
	records *record.Service,
	students *student.Service,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(courses, "courses"),
		vala.IsNotNil(sessions, "sessions"),
		vala.IsNotNil(records, "records"),
		vala.IsNotNil(students, "students"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		courses:  courses,
		sessions: sessions,
		records:  records,
		students: students,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

// CourseReport computes the qualification of every student taking the course,
// best attendance first, along with the week by week breakdown.
func (svc *Service) CourseReport(ctx context.Context, courseID string, filter Filter) (CourseReport, error) {
	crs, err := svc.courses.GetByID(ctx, courseID)
	if err != nil {
		return CourseReport{}, err
	}
	sessions, err := svc.sessions.Query(ctx, &session.QueryFilter{CourseID: crs.ID})
	if err != nil {
		return CourseReport{}, errors.Wrap(err, "querying sessions")
	}
	records, err := svc.records.Query(ctx, &record.QueryFilter{CourseID: crs.ID})
	if err != nil {
		return CourseReport{}, errors.Wrap(err, "querying records")
	}

	if filter.Level == "" {
		filter.Level = crs.Level
	}
	students, err := svc.students.Query(ctx, &student.QueryFilter{Level: filter.Level, Department: filter.Department}, nil)
	if err != nil {
		return CourseReport{}, errors.Wrap(err, "querying students")
	}

	rep := CourseReport{
		Course:      crs,
		Sessions:    len(sessions),
		Rows:        make([]Row, 0, len(students)),
		Weekly:      attendance.ComputeWeeklyBreakdown(records, sessions, crs.ID),
		GeneratedAt: time.Now().UTC(),
	}

	var total float64
	for _, std := range students {
		stats := attendance.ComputeStats(records, sessions, std.ID, crs.ID)
		row := Row{Student: std, Stats: stats, Status: qualificationStatus(stats)}
		rep.Rows = append(rep.Rows, row)

		switch row.Status {
		case StatusQualified:
			rep.Summary.Qualified++
		case StatusDisqualified:
			rep.Summary.Disqualified++
		default:
			rep.Summary.NoData++
		}
		total += stats.Percentage
	}
	rep.Summary.Students = len(rep.Rows)
	if rep.Summary.Students > 0 {
		rep.Summary.AverageAttendance = total / float64(rep.Summary.Students)
	}

	sort.SliceStable(rep.Rows, func(i, j int) bool {
		pi, pj := rep.Rows[i].Stats.Percentage, rep.Rows[j].Stats.Percentage
		if pi != pj {
			return pi > pj
		}
		return rep.Rows[i].Student.MatricNumber < rep.Rows[j].Student.MatricNumber
	})
	return rep, nil
}

// StudentReport computes the qualification of std in every course of its level.
func (svc *Service) StudentReport(ctx context.Context, std student.Student) (StudentReport, error) {
	courses, err := svc.courses.ForStudent(ctx, std)
	if err != nil {
		return StudentReport{}, errors.Wrap(err, "querying courses")
	}
	records, err := svc.records.Query(ctx, &record.QueryFilter{StudentID: std.ID})
	if err != nil {
		return StudentReport{}, errors.Wrap(err, "querying records")
	}

	rep := StudentReport{Student: std, Courses: make([]StudentCourse, 0, len(courses))}
	for _, crs := range courses {
		sessions, err := svc.sessions.Query(ctx, &session.QueryFilter{CourseID: crs.ID})
		if err != nil {
			return StudentReport{}, errors.Wrap(err, "querying sessions")
		}
		stats := attendance.ComputeStats(records, sessions, std.ID, crs.ID)
		rep.Courses = append(rep.Courses, StudentCourse{Course: crs, Stats: stats, Status: qualificationStatus(stats)})
	}
	return rep, nil
}

// EmailCourseReport sends the CSV export of a course report to the given addresses.
func (svc *Service) EmailCourseReport(ctx context.Context, courseID string, filter Filter, to ...string) error {
	if svc.mailSvc == nil {
		return errors.New("no email service configured")
	}
	rep, err := svc.CourseReport(ctx, courseID, filter)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err = WriteCSV(&buf, rep); err != nil {
		return errors.Wrap(err, "writing csv")
	}

	recipients := make([]mail.Address, 0, len(to))
	for _, addr := range to {
		recipients = append(recipients, mail.Address{Address: addr})
	}
	msg := &core.EmailMessage{
		To:      recipients,
		Subject: fmt.Sprintf("Attendance report: %s %s", rep.Course.Code, rep.Course.Title),
		TextContent: fmt.Sprintf(
			"%d students, %d qualified, %d disqualified (%d sessions held).\nAverage attendance: %.1f%%.",
			rep.Summary.Students, rep.Summary.Qualified, rep.Summary.Disqualified, rep.Sessions, rep.Summary.AverageAttendance,
		),
	}
	if err = msg.Attach(&buf, Filename(rep.Course), "text/csv"); err != nil {
		return errors.Wrap(err, "attaching csv")
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}
