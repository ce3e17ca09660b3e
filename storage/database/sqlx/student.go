package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/student"
)

const studentColumns = "id, matric_number, first_name, last_name, email, department, level, phone_number, created_at, updated_at"

type studentRow struct {
	ID           string      `db:"id"`
	MatricNumber string      `db:"matric_number"`
	FirstName    string      `db:"first_name"`
	LastName     string      `db:"last_name"`
	Email        null.String `db:"email"`
	Department   string      `db:"department"`
	Level        string      `db:"level"`
	PhoneNumber  null.String `db:"phone_number"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func newStudentRow(std student.Student) studentRow {
	return studentRow{
		ID:           std.ID,
		MatricNumber: std.MatricNumber,
		FirstName:    std.FirstName,
		LastName:     std.LastName,
		Email:        null.NewString(std.Email, std.Email != ""),
		Department:   std.Department,
		Level:        std.Level,
		PhoneNumber:  null.NewString(std.PhoneNumber, std.PhoneNumber != ""),
		CreatedAt:    std.CreatedAt.UTC(),
		UpdatedAt:    std.UpdatedAt.UTC(),
	}
}

func (r studentRow) student() student.Student {
	return student.Student{
		ID:           r.ID,
		MatricNumber: r.MatricNumber,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email.String,
		Department:   r.Department,
		Level:        r.Level,
		PhoneNumber:  r.PhoneNumber.String,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

// NewStudentRepository needs a *sqlx.DB: updating a matric number rewrites the student's records in a transaction.
func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) trapUniqueErr(err error, msg string) error {
	if _, ok := violatedConstraint(err); ok {
		return student.ErrMatricExists
	}
	return errors.Wrap(err, msg)
}

func (repo *studentRepository) CheckUniqueness(ctx context.Context, matricNumber string, excluded ...student.Student) error {
	var w where
	w.add("matric_number = ?", matricNumber)
	ids := make([]string, 0, len(excluded))
	for _, std := range excluded {
		ids = append(ids, std.ID)
	}
	excludedIDs(ids, &w)

	var exists bool
	q := repo.db.Rebind("SELECT EXISTS (SELECT 1 FROM students" + w.String() + ")")
	if err := repo.db.GetContext(ctx, &exists, q, w.args...); err != nil {
		return errors.Wrap(err, "checking student uniqueness")
	}
	if exists {
		return student.ErrMatricExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	std.ID = newID()
	q := `INSERT INTO students (` + studentColumns + `)
		VALUES (:id, :matric_number, :first_name, :last_name, :email, :department, :level, :phone_number, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newStudentRow(std)); err != nil {
		return student.Student{}, repo.trapUniqueErr(err, "inserting student")
	}
	return std, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			val := like(filter.Search)
			w.add("matric_number ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", val, val, val, val)
		}
		if filter.Level != "" {
			w.add("level = ?", filter.Level)
		}
		if filter.Department != "" {
			w.add("department ILIKE ?", filter.Department)
		}
	}

	var rows []studentRow
	q := repo.db.Rebind("SELECT " + studentColumns + " FROM students" + w.String() + orderBy(ordering, "matric_number ASC"))
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, filter student.GetFilter) (student.Student, error) {
	var w where
	switch {
	case filter.ID != "":
		if !isUUID(filter.ID) {
			return student.Student{}, student.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.MatricNumber != "":
		w.add("matric_number = ?", filter.MatricNumber)
	default:
		return student.Student{}, student.ErrNotFound
	}

	var row studentRow
	q := repo.db.Rebind("SELECT " + studentColumns + " FROM students" + w.String())
	if err := repo.db.GetContext(ctx, &row, q, w.args...); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student")
	}
	return row.student(), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	if !isUUID(std.ID) {
		return student.Student{}, student.ErrNotFound
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `UPDATE students SET matric_number = :matric_number, first_name = :first_name, last_name = :last_name,
		email = :email, department = :department, level = :level, phone_number = :phone_number, updated_at = :updated_at
		WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, q, newStudentRow(std))
	if err != nil {
		return student.Student{}, repo.trapUniqueErr(err, "updating student")
	}
	if err = updated(res, nil, student.ErrNotFound, "updating student"); err != nil {
		return student.Student{}, err
	}

	// records keep a copy of the matric number
	if _, err = tx.ExecContext(ctx, "UPDATE records SET matric_number = $1 WHERE student_id = $2", std.MatricNumber, std.ID); err != nil {
		return student.Student{}, errors.Wrap(err, "updating student records")
	}
	if err = tx.Commit(); err != nil {
		return student.Student{}, errors.Wrap(err, "committing transaction")
	}
	return std, nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) (int, error) {
	return deleteByID(ctx, repo.db, "students", ids)
}
