package record

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/course"
	"github.com/trezcool/sajili/core/session"
	"github.com/trezcool/sajili/core/student"
)

var (
	// errors
	ErrInvalidCode   = errors.New("invalid or expired code")
	ErrNotEnrolled   = errors.New("student does not take this course")
	ErrAlreadyMarked = errors.New("attendance already marked for this session")
)

// rejection reasons
const (
	reasonMalformed  = "malformed"
	reasonUnknown    = "unknown_session"
	reasonInactive   = "inactive"
	reasonSuperseded = "superseded"
	reasonExpired    = "expired"
	reasonEnrollment = "not_enrolled"
	reasonDuplicate  = "already_marked"
)

type (
	Repository interface {
		// CreateRecord returns ErrAlreadyMarked if the student already has a record for the session.
		CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error)
		// QueryRecords applies AND operation on available QueryFilter fields; records are ordered by MarkedAt.
		QueryRecords(ctx context.Context, filter *QueryFilter) ([]attendance.Record, error)
	}

	Service struct {
		repo     Repository
		sessions *session.Service
		courses  *course.Service
		students *student.Service
		bus      core.EventBus
		metrics  core.Metrics
		logger   core.Logger
		cfg      core.AttendanceConfig
	}
)

func NewService(
	repo Repository,
	sessions *session.Service,
	courses *course.Service,
	students *student.Service,
	bus core.EventBus,
	metrics core.Metrics,
	logger core.Logger,
	cfg core.AttendanceConfig,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(sessions, "sessions"),
		vala.IsNotNil(courses, "courses"),
		vala.IsNotNil(students, "students"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	if metrics == nil {
		metrics = core.NopMetrics{}
	}
	if cfg.CodeMaxAge <= 0 {
		cfg.CodeMaxAge = attendance.DefaultMaxAge
	}
	return &Service{
		repo:     repo,
		sessions: sessions,
		courses:  courses,
		students: students,
		bus:      bus,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

func (svc *Service) reject(reason string, err error) error {
	svc.metrics.ScanRejected(reason)
	return err
}

// Scan marks std for the session the code was issued for.
// The code must be the current code of an active session and younger than the configured max age.
func (svc *Service) Scan(ctx context.Context, std student.Student, ns NewScan) (attendance.Record, error) {
	tok, err := attendance.Decode(ns.Code)
	if err != nil {
		return attendance.Record{}, svc.reject(reasonMalformed, ErrInvalidCode)
	}

	sess, err := svc.sessions.GetByID(ctx, tok.SessionID)
	if err != nil {
		if errors.Cause(err) == session.ErrNotFound {
			return attendance.Record{}, svc.reject(reasonUnknown, ErrInvalidCode)
		}
		return attendance.Record{}, err
	}
	switch {
	case !sess.IsActive:
		return attendance.Record{}, svc.reject(reasonInactive, ErrInvalidCode)
	case sess.Code != ns.Code:
		return attendance.Record{}, svc.reject(reasonSuperseded, ErrInvalidCode)
	case !attendance.IsValid(ns.Code, sess.ID, svc.cfg.CodeMaxAge):
		return attendance.Record{}, svc.reject(reasonExpired, ErrInvalidCode)
	}

	return svc.mark(ctx, sess, std, "")
}

// MarkManual marks the student with the given matric number for a session, whether it is active or not.
func (svc *Service) MarkManual(ctx context.Context, sessionID string, nm NewMark) (attendance.Record, error) {
	sess, err := svc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return attendance.Record{}, err
	}
	std, err := svc.students.GetByMatricNumber(ctx, nm.MatricNumber)
	if err != nil {
		return attendance.Record{}, err
	}
	return svc.mark(ctx, sess, std, nm.Status)
}

func (svc *Service) mark(ctx context.Context, sess attendance.Session, std student.Student, status attendance.Status) (attendance.Record, error) {
	crs, err := svc.courses.GetByID(ctx, sess.CourseID)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "loading session course")
	}
	if crs.Level != std.Level {
		return attendance.Record{}, svc.reject(reasonEnrollment, ErrNotEnrolled)
	}

	now := attendance.NowFunc()
	if status == "" {
		status = svc.StatusAt(sess, now)
	}
	rec, err := svc.repo.CreateRecord(ctx, attendance.Record{
		SessionID:    sess.ID,
		StudentID:    std.ID,
		MatricNumber: std.MatricNumber,
		MarkedAt:     now.UTC(),
		Status:       status,
		Location:     sess.Location,
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyMarked {
			return attendance.Record{}, svc.reject(reasonDuplicate, ErrAlreadyMarked)
		}
		return attendance.Record{}, err
	}

	svc.metrics.RecordMarked(string(rec.Status))
	core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicRecords, core.ActionCreated, rec.ID))
	return rec, nil
}

// StatusAt returns the status of a student marked at t: late once the grace period after the session start elapsed.
func (svc *Service) StatusAt(sess attendance.Session, t time.Time) attendance.Status {
	start, err := sess.StartsAt(svc.cfg.Location())
	if err != nil {
		svc.logger.Warn("computing attendance status", err, map[string]interface{}{"session": sess.ID})
		return attendance.StatusPresent
	}
	if t.After(start.Add(svc.cfg.LateAfter)) {
		return attendance.StatusLate
	}
	return attendance.StatusPresent
}

// MarkAbsentees records every student of the session's course level who has no record as absent.
// It returns the number of records created.
func (svc *Service) MarkAbsentees(ctx context.Context, sessionID string) (int, error) {
	sess, err := svc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	crs, err := svc.courses.GetByID(ctx, sess.CourseID)
	if err != nil {
		return 0, errors.Wrap(err, "loading session course")
	}
	students, err := svc.students.Query(ctx, &student.QueryFilter{Level: crs.Level}, nil)
	if err != nil {
		return 0, errors.Wrap(err, "querying students")
	}
	existing, err := svc.repo.QueryRecords(ctx, &QueryFilter{SessionID: sess.ID})
	if err != nil {
		return 0, errors.Wrap(err, "querying records")
	}

	marked := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		marked[rec.StudentID] = struct{}{}
	}

	now := attendance.NowFunc().UTC()
	ids := make([]string, 0, len(students))
	for _, std := range students {
		if _, ok := marked[std.ID]; ok {
			continue
		}
		rec, err := svc.repo.CreateRecord(ctx, attendance.Record{
			SessionID:    sess.ID,
			StudentID:    std.ID,
			MatricNumber: std.MatricNumber,
			MarkedAt:     now,
			Status:       attendance.StatusAbsent,
			Location:     sess.Location,
		})
		if err != nil {
			if errors.Cause(err) == ErrAlreadyMarked {
				continue // marked meanwhile
			}
			return len(ids), err
		}
		svc.metrics.RecordMarked(string(attendance.StatusAbsent))
		ids = append(ids, rec.ID)
	}

	if len(ids) > 0 {
		core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicRecords, core.ActionCreated, ids...))
	}
	return len(ids), nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]attendance.Record, error) {
	return svc.repo.QueryRecords(ctx, filter)
}
