package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

// checkUniqueness must be called with the lock held.
func (repo *studentRepository) checkUniqueness(matric string, excluded ...student.Student) error {
	for _, std := range repo.db.students {
		if std.MatricNumber != matric {
			continue
		}
		var skip bool
		for _, e := range excluded {
			if e.ID == std.ID {
				skip = true
				break
			}
		}
		if !skip {
			return student.ErrMatricExists
		}
	}
	return nil
}

func (repo *studentRepository) CheckUniqueness(_ context.Context, matric string, excluded ...student.Student) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.checkUniqueness(matric, excluded...)
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkUniqueness(std.MatricNumber); err != nil {
		return student.Student{}, err
	}
	std.ID = newID()
	repo.db.students[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]student.Student, 0, len(repo.db.students))
	for _, std := range repo.db.students {
		if filter != nil {
			if filter.Search != "" && !contains(filter.Search, std.MatricNumber, std.FirstName, std.LastName, std.Email) {
				continue
			}
			if filter.Level != "" && std.Level != filter.Level {
				continue
			}
			if filter.Department != "" && !strings.EqualFold(std.Department, filter.Department) {
				continue
			}
		}
		students = append(students, *std)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].MatricNumber < students[j].MatricNumber })

	orderBy(len(students), func(i, j int) { students[i], students[j] = students[j], students[i] }, ordering, func(i, j int, field string) int {
		a, b := students[i], students[j]
		switch field {
		case "matric_number":
			return strings.Compare(a.MatricNumber, b.MatricNumber)
		case "first_name":
			return strings.Compare(a.FirstName, b.FirstName)
		case "last_name":
			return strings.Compare(a.LastName, b.LastName)
		case "level":
			return strings.Compare(a.Level, b.Level)
		case "department":
			return strings.Compare(a.Department, b.Department)
		case "created_at":
			return cmpTime(a.CreatedAt, b.CreatedAt)
		}
		return 0
	})
	return students, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, filter student.GetFilter) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if std, ok := repo.db.students[filter.ID]; ok {
			return *std, nil
		}
		return student.Student{}, student.ErrNotFound
	}
	if filter.MatricNumber != "" {
		for _, std := range repo.db.students {
			if std.MatricNumber == filter.MatricNumber {
				return *std, nil
			}
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[std.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	if err := repo.checkUniqueness(std.MatricNumber, std); err != nil {
		return student.Student{}, err
	}
	repo.db.students[std.ID] = &std

	// keep the denormalized matric number of records in sync
	for _, rec := range repo.db.records {
		if rec.StudentID == std.ID {
			rec.MatricNumber = std.MatricNumber
		}
	}
	return std, nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	deleted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := repo.db.students[id]; ok {
			delete(repo.db.students, id)
			deleted[id] = struct{}{}
		}
	}
	repo.db.deleteRecordsWhere(func(rec *attendance.Record) bool {
		_, ok := deleted[rec.StudentID]
		return ok
	})
	return len(deleted), nil
}
