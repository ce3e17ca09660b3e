package student

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core"
)

var (
	// errors
	ErrNotFound     = errors.New("student not found")
	ErrMatricExists = errors.New("a student with this matric number already exists")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrMatricExists if any Student but excluded has the matric number.
		CheckUniqueness(ctx context.Context, matricNumber string, excluded ...Student) error
		CreateStudent(ctx context.Context, std Student) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on the matric number, names or email.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetStudent(ctx context.Context, filter GetFilter) (Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) (int, error)
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

func (svc *Service) CheckUniqueness(matric string, excluded ...Student) error {
	if err := svc.repo.CheckUniqueness(context.Background(), matric, excluded...); err != nil {
		if errors.Cause(err) == ErrMatricExists {
			return core.NewValidationError(err, core.FieldError{Field: "matric_number", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	std, err := svc.repo.CreateStudent(ctx, Student{
		MatricNumber: CleanMatricNumber(ns.MatricNumber),
		FirstName:    ns.FirstName,
		LastName:     ns.LastName,
		Email:        ns.Email,
		Department:   ns.Department,
		Level:        ns.Level,
		PhoneNumber:  ns.PhoneNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Student{}, err
	}
	core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicStudents, core.ActionCreated, std.ID))
	return std, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "level", Ascending: true}, {Field: "matric_number", Ascending: true}}
	}
	return svc.repo.QueryStudents(ctx, filter, core.FilterOrderings(ordering,
		"matric_number", "first_name", "last_name", "level", "department", "created_at"))
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByMatricNumber(ctx context.Context, matric string) (Student, error) {
	matric = CleanMatricNumber(matric)
	if !IsMatricNumber(matric) {
		return Student{}, ErrNotFound
	}
	return svc.repo.GetStudent(ctx, GetFilter{MatricNumber: matric})
}

func (svc *Service) Update(ctx context.Context, std Student, us UpdateStudent) (Student, error) {
	std.MatricNumber = us.MatricNumber
	std.FirstName = us.FirstName
	std.LastName = us.LastName
	std.Email = us.Email
	std.Department = us.Department
	std.Level = us.Level
	std.PhoneNumber = us.PhoneNumber
	std.UpdatedAt = time.Now().UTC()

	std, err := svc.repo.UpdateStudent(ctx, std)
	if err != nil {
		return Student{}, err
	}
	core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicStudents, core.ActionUpdated, std.ID))
	return std, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if _, err := svc.repo.DeleteStudentsByID(ctx, ids...); err != nil {
		return err
	}
	core.Publish(ctx, svc.bus, svc.logger, core.NewEvent(core.TopicStudents, core.ActionDeleted, ids...))
	return nil
}
