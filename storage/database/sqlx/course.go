package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/course"
)

const courseColumns = "id, code, title, credit_unit, lecturer, department, level, semester, session, created_at, updated_at"

type courseRow struct {
	ID         string      `db:"id"`
	Code       string      `db:"code"`
	Title      string      `db:"title"`
	CreditUnit int         `db:"credit_unit"`
	Lecturer   null.String `db:"lecturer"`
	Department string      `db:"department"`
	Level      string      `db:"level"`
	Semester   string      `db:"semester"`
	Session    null.String `db:"session"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func newCourseRow(crs course.Course) courseRow {
	return courseRow{
		ID:         crs.ID,
		Code:       crs.Code,
		Title:      crs.Title,
		CreditUnit: crs.CreditUnit,
		Lecturer:   null.NewString(crs.Lecturer, crs.Lecturer != ""),
		Department: crs.Department,
		Level:      crs.Level,
		Semester:   crs.Semester,
		Session:    null.NewString(crs.Session, crs.Session != ""),
		CreatedAt:  crs.CreatedAt.UTC(),
		UpdatedAt:  crs.UpdatedAt.UTC(),
	}
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:         r.ID,
		Code:       r.Code,
		Title:      r.Title,
		CreditUnit: r.CreditUnit,
		Lecturer:   r.Lecturer.String,
		Department: r.Department,
		Level:      r.Level,
		Semester:   r.Semester,
		Session:    r.Session.String,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

type courseRepository struct {
	exec sqlx.ExtContext
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec sqlx.ExtContext) course.Repository {
	return &courseRepository{exec: exec}
}

func (repo *courseRepository) trapUniqueErr(err error, msg string) error {
	if _, ok := violatedConstraint(err); ok {
		return course.ErrCodeExists
	}
	return errors.Wrap(err, msg)
}

func (repo *courseRepository) CheckUniqueness(ctx context.Context, code string, excluded ...course.Course) error {
	var w where
	w.add("code = ?", code)
	ids := make([]string, 0, len(excluded))
	for _, crs := range excluded {
		ids = append(ids, crs.ID)
	}
	excludedIDs(ids, &w)

	var exists bool
	q := repo.exec.Rebind("SELECT EXISTS (SELECT 1 FROM courses" + w.String() + ")")
	if err := sqlx.GetContext(ctx, repo.exec, &exists, q, w.args...); err != nil {
		return errors.Wrap(err, "checking course uniqueness")
	}
	if exists {
		return course.ErrCodeExists
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = newID()
	q := `INSERT INTO courses (` + courseColumns + `)
		VALUES (:id, :code, :title, :credit_unit, :lecturer, :department, :level, :semester, :session, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, newCourseRow(crs)); err != nil {
		return course.Course{}, repo.trapUniqueErr(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			val := like(filter.Search)
			w.add("code ILIKE ? OR title ILIKE ? OR lecturer ILIKE ?", val, val, val)
		}
		if filter.Level != "" {
			w.add("level = ?", filter.Level)
		}
		if filter.Department != "" {
			w.add("department ILIKE ?", filter.Department)
		}
		if filter.Semester != "" {
			w.add("semester ILIKE ?", filter.Semester)
		}
	}

	var rows []courseRow
	q := repo.exec.Rebind("SELECT " + courseColumns + " FROM courses" + w.String() + orderBy(ordering, "code ASC"))
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (course.Course, error) {
	var w where
	switch {
	case filter.ID != "":
		if !isUUID(filter.ID) {
			return course.Course{}, course.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.Code != "":
		w.add("code = ?", filter.Code)
	default:
		return course.Course{}, course.ErrNotFound
	}

	var row courseRow
	q := repo.exec.Rebind("SELECT " + courseColumns + " FROM courses" + w.String())
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, w.args...); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return row.course(), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	if !isUUID(crs.ID) {
		return course.Course{}, course.ErrNotFound
	}
	q := `UPDATE courses SET code = :code, title = :title, credit_unit = :credit_unit, lecturer = :lecturer,
		department = :department, level = :level, semester = :semester, session = :session, updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, newCourseRow(crs))
	if err != nil {
		return course.Course{}, repo.trapUniqueErr(err, "updating course")
	}
	if err = updated(res, nil, course.ErrNotFound, "updating course"); err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

// DeleteCoursesByID relies on ON DELETE CASCADE to remove their sessions and records.
func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) (int, error) {
	return deleteByID(ctx, repo.exec, "courses", ids)
}
