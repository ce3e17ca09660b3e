package session

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/course"
)

var (
	// errors
	ErrNotFound        = errors.New("session not found")
	ErrSessionInactive = errors.New("session is not active")
)

type (
	Repository interface {
		CreateSession(ctx context.Context, sess attendance.Session) (attendance.Session, error)
		// QuerySessions returns the sessions ordered by week then date.
		QuerySessions(ctx context.Context, filter *QueryFilter) ([]attendance.Session, error)
		CountSessions(ctx context.Context, courseID string) (int, error)
		GetSession(ctx context.Context, id string) (attendance.Session, error)
		UpdateSession(ctx context.Context, sess attendance.Session) (attendance.Session, error)
		// RenewSessionCode replaces the code of the session only while it is stored as active,
		// returns ErrSessionInactive otherwise.
		RenewSessionCode(ctx context.Context, id, code string, issuedAt time.Time) (attendance.Session, error)
		// DeleteSessionsByID removes the sessions and their records.
		DeleteSessionsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo    Repository
		courses *course.Service
		bus     core.EventBus
		metrics core.Metrics
		logger  core.Logger
	}
)

func NewService(repo Repository, courses *course.Service, bus core.EventBus, metrics core.Metrics, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(courses, "courses"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	if metrics == nil {
		metrics = core.NopMetrics{}
	}
	return &Service{repo: repo, courses: courses, bus: bus, metrics: metrics, logger: logger}
}

// Create schedules a new, inactive, session. Week defaults to the number of sessions of the course + 1.
func (svc *Service) Create(ctx context.Context, ns NewSession) (attendance.Session, error) {
	crs, err := svc.courses.GetByID(ctx, ns.CourseID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return attendance.Session{}, core.NewValidationError(err, core.FieldError{Field: "course_id", Error: err.Error()})
		}
		return attendance.Session{}, err
	}

	week := ns.Week
	if week == 0 {
		count, err := svc.repo.CountSessions(ctx, crs.ID)
		if err != nil {
			return attendance.Session{}, errors.Wrap(err, "counting sessions")
		}
		week = count + 1
	}

	sess, err := svc.repo.CreateSession(ctx, attendance.Session{
		CourseID:  crs.ID,
		Week:      week,
		Date:      ns.Date,
		StartTime: ns.StartTime,
		EndTime:   ns.EndTime,
		Location:  ns.Location,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return attendance.Session{}, err
	}
	core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicSessions, core.ActionCreated, sess.ID))
	return sess, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]attendance.Session, error) {
	return svc.repo.QuerySessions(ctx, filter)
}

// Active returns the active sessions of the given courses (of every course if none is given).
func (svc *Service) Active(ctx context.Context, courseIDs ...string) ([]attendance.Session, error) {
	active := true
	sessions, err := svc.repo.QuerySessions(ctx, &QueryFilter{IsActive: &active})
	if err != nil || len(courseIDs) == 0 {
		return sessions, err
	}

	wanted := make(map[string]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = struct{}{}
	}
	filtered := make([]attendance.Session, 0, len(sessions))
	for _, sess := range sessions {
		if _, ok := wanted[sess.CourseID]; ok {
			filtered = append(filtered, sess)
		}
	}
	return filtered, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (attendance.Session, error) {
	return svc.repo.GetSession(ctx, id)
}

// Start activates the session and issues its first code.
// Starting an active session issues a new code.
func (svc *Service) Start(ctx context.Context, id string) (attendance.Session, error) {
	sess, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		return attendance.Session{}, err
	}

	sess.IsActive = true
	sess.Code, sess.CodeIssuedAt = attendance.NewCode(sess.ID)
	if sess, err = svc.repo.UpdateSession(ctx, sess); err != nil {
		return attendance.Session{}, err
	}

	svc.metrics.SessionStarted()
	core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicSessions, core.ActionStarted, sess.ID))
	return sess, nil
}

// RefreshCode supersedes the code of an active session.
// A session stopped meanwhile stays stopped.
func (svc *Service) RefreshCode(ctx context.Context, id string) (attendance.Session, error) {
	code, issuedAt := attendance.NewCode(id)
	sess, err := svc.repo.RenewSessionCode(ctx, id, code, issuedAt)
	if err != nil {
		return attendance.Session{}, err
	}
	core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicSessions, core.ActionRenewed, sess.ID))
	return sess, nil
}

// Stop deactivates the session. Its code is discarded.
func (svc *Service) Stop(ctx context.Context, id string) (attendance.Session, error) {
	sess, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		return attendance.Session{}, err
	}

	sess.IsActive = false
	sess.Code = ""
	sess.CodeIssuedAt = time.Time{}
	if sess, err = svc.repo.UpdateSession(ctx, sess); err != nil {
		return attendance.Session{}, err
	}
	core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicSessions, core.ActionStopped, sess.ID))
	return sess, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if _, err := svc.repo.DeleteSessionsByID(ctx, ids...); err != nil {
		return err
	}
	core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicSessions, core.ActionDeleted, ids...))
	return nil
}

// RefreshActive renews the code of every active session and returns how many were renewed.
func (svc *Service) RefreshActive(ctx context.Context) (int, error) {
	sessions, err := svc.Active(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	for _, sess := range sessions {
		if _, err := svc.RefreshCode(ctx, sess.ID); err != nil {
			if errors.Cause(err) == ErrSessionInactive || errors.Cause(err) == ErrNotFound {
				continue // stopped or deleted meanwhile
			}
			return n, errors.Wrapf(err, "refreshing session %s", sess.ID)
		}
		n++
	}
	return n, nil
}
