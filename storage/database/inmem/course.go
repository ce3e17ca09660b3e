package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

// checkUniqueness must be called with the lock held.
func (repo *courseRepository) checkUniqueness(code string, excluded ...course.Course) error {
	for _, crs := range repo.db.courses {
		if crs.Code != code {
			continue
		}
		var skip bool
		for _, e := range excluded {
			if e.ID == crs.ID {
				skip = true
				break
			}
		}
		if !skip {
			return course.ErrCodeExists
		}
	}
	return nil
}

func (repo *courseRepository) CheckUniqueness(_ context.Context, code string, excluded ...course.Course) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.checkUniqueness(code, excluded...)
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkUniqueness(crs.Code); err != nil {
		return course.Course{}, err
	}
	crs.ID = newID()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if filter != nil {
			if filter.Search != "" && !contains(filter.Search, crs.Code, crs.Title, crs.Lecturer) {
				continue
			}
			if filter.Level != "" && crs.Level != filter.Level {
				continue
			}
			if filter.Department != "" && !strings.EqualFold(crs.Department, filter.Department) {
				continue
			}
			if filter.Semester != "" && !strings.EqualFold(crs.Semester, filter.Semester) {
				continue
			}
		}
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })

	orderBy(len(courses), func(i, j int) { courses[i], courses[j] = courses[j], courses[i] }, ordering, func(i, j int, field string) int {
		a, b := courses[i], courses[j]
		switch field {
		case "code":
			return strings.Compare(a.Code, b.Code)
		case "title":
			return strings.Compare(a.Title, b.Title)
		case "level":
			return strings.Compare(a.Level, b.Level)
		case "semester":
			return strings.Compare(a.Semester, b.Semester)
		case "department":
			return strings.Compare(a.Department, b.Department)
		case "created_at":
			return cmpTime(a.CreatedAt, b.CreatedAt)
		}
		return 0
	})
	return courses, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, filter course.GetFilter) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if crs, ok := repo.db.courses[filter.ID]; ok {
			return *crs, nil
		}
		return course.Course{}, course.ErrNotFound
	}
	if filter.Code != "" {
		for _, crs := range repo.db.courses {
			if crs.Code == filter.Code {
				return *crs, nil
			}
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.courses[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	if err := repo.checkUniqueness(crs.Code, crs); err != nil {
		return course.Course{}, err
	}
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) DeleteCoursesByID(_ context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	sessions := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := repo.db.courses[id]; !ok {
			continue
		}
		delete(repo.db.courses, id)
		n++
		for _, sess := range repo.db.sessions {
			if sess.CourseID == id {
				sessions[sess.ID] = struct{}{}
			}
		}
	}
	repo.db.deleteSessions(sessions)
	return n, nil
}
