package course

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/student"
)

var (
	// errors
	ErrNotFound   = errors.New("course not found")
	ErrCodeExists = errors.New("a course with this code already exists")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrCodeExists if any Course but excluded has the code.
		CheckUniqueness(ctx context.Context, code string, excluded ...Course) error
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		// QueryCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on the code, title or lecturer.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		GetCourse(ctx context.Context, filter GetFilter) (Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo   Repository
		bus    core.EventBus
		logger core.Logger
	}
)

func NewService(repo Repository, bus core.EventBus, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, bus: bus, logger: logger}
}

func (svc *Service) CheckUniqueness(code string, excluded ...Course) error {
	if err := svc.repo.CheckUniqueness(context.Background(), code, excluded...); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs, err := svc.repo.CreateCourse(ctx, Course{
		Code:       CleanCode(nc.Code),
		Title:      nc.Title,
		CreditUnit: nc.CreditUnit,
		Lecturer:   nc.Lecturer,
		Department: nc.Department,
		Level:      nc.Level,
		Semester:   nc.Semester,
		Session:    nc.Session,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return Course{}, err
	}
	core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicCourses, core.ActionCreated, crs.ID))
	return crs, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "code", Ascending: true}}
	}
	return svc.repo.QueryCourses(ctx, filter, core.FilterOrderings(ordering,
		"code", "title", "level", "semester", "department", "created_at"))
}

// ForStudent returns the courses a student takes: every course of the student's level.
func (svc *Service) ForStudent(ctx context.Context, std student.Student) ([]Course, error) {
	return svc.Query(ctx, &QueryFilter{Level: std.Level}, nil)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByCode(ctx context.Context, code string) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{Code: CleanCode(code)})
}

func (svc *Service) Update(ctx context.Context, crs Course, uc UpdateCourse) (Course, error) {
	crs.Code = uc.Code
	crs.Title = uc.Title
	crs.CreditUnit = uc.CreditUnit
	crs.Lecturer = uc.Lecturer
	crs.Department = uc.Department
	crs.Level = uc.Level
	crs.Semester = uc.Semester
	crs.Session = uc.Session
	crs.UpdatedAt = time.Now().UTC()

	crs, err := svc.repo.UpdateCourse(ctx, crs)
	if err != nil {
		return Course{}, err
	}
	core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicCourses, core.ActionUpdated, crs.ID))
	return crs, nil
}

// Delete removes courses; their sessions and records go with them.
func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if _, err := svc.repo.DeleteCoursesByID(ctx, ids...); err != nil {
		return err
	}
	core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicCourses, core.ActionDeleted, ids...))
	return nil
}
