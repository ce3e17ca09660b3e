package inmemdb

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/course"
	"github.com/trezcool/sajili/core/student"
	"github.com/trezcool/sajili/core/user"
)

// DB keeps every table in memory. All repositories created from the same DB share its lock.
type DB struct {
	mutex    sync.RWMutex
	users    map[string]*user.User
	students map[string]*student.Student
	courses  map[string]*course.Course
	sessions map[string]*attendance.Session
	records  map[string]*attendance.Record
}

func NewDB() *DB {
	return &DB{
		users:    make(map[string]*user.User),
		students: make(map[string]*student.Student),
		courses:  make(map[string]*course.Course),
		sessions: make(map[string]*attendance.Session),
		records:  make(map[string]*attendance.Record),
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.users = make(map[string]*user.User)
	db.students = make(map[string]*student.Student)
	db.courses = make(map[string]*course.Course)
	db.sessions = make(map[string]*attendance.Session)
	db.records = make(map[string]*attendance.Record)
}

func newID() string {
	return uuid.New().String()
}

// deleteRecordsWhere must be called with the write lock held.
func (db *DB) deleteRecordsWhere(match func(rec *attendance.Record) bool) {
	for id, rec := range db.records {
		if match(rec) {
			delete(db.records, id)
		}
	}
}

// deleteSessions must be called with the write lock held.
func (db *DB) deleteSessions(ids map[string]struct{}) {
	for id := range ids {
		delete(db.sessions, id)
	}
	db.deleteRecordsWhere(func(rec *attendance.Record) bool {
		_, ok := ids[rec.SessionID]
		return ok
	})
}

// contains reports whether any of vals contains the keyword, ignoring case.
func contains(keyword string, vals ...string) bool {
	keyword = strings.ToLower(keyword)
	for _, val := range vals {
		if strings.Contains(strings.ToLower(val), keyword) {
			return true
		}
	}
	return false
}

// orderBy sorts n elements by the given orderings.
// compare returns <0, 0 or >0 for the named field of elements i and j.
func orderBy(n int, swap func(i, j int), ordering []core.DBOrdering, compare func(i, j int, field string) int) {
	if len(ordering) == 0 {
		return
	}
	sort.Stable(&sorter{n: n, swap: swap, less: func(i, j int) bool {
		for _, ord := range ordering {
			c := compare(i, j, ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	}})
}

type sorter struct {
	n    int
	swap func(i, j int)
	less func(i, j int) bool
}

func (s *sorter) Len() int           { return s.n }
func (s *sorter) Swap(i, j int)      { s.swap(i, j) }
func (s *sorter) Less(i, j int) bool { return s.less(i, j) }

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
