package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/session"
)

type sessionRepository struct {
	db *DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(_ context.Context, sess attendance.Session) (attendance.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sess.ID = newID()
	repo.db.sessions[sess.ID] = &sess
	return sess, nil
}

func (repo *sessionRepository) QuerySessions(_ context.Context, filter *session.QueryFilter) ([]attendance.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sessions := make([]attendance.Session, 0, len(repo.db.sessions))
	for _, sess := range repo.db.sessions {
		if filter != nil {
			if filter.CourseID != "" && sess.CourseID != filter.CourseID {
				continue
			}
			if filter.IsActive != nil && sess.IsActive != *filter.IsActive {
				continue
			}
		}
		sessions = append(sessions, *sess)
	}
	sortSessions(sessions)
	return sessions, nil
}

// sortSessions orders by week, date, start time then creation.
func sortSessions(sessions []attendance.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func (repo *sessionRepository) CountSessions(_ context.Context, courseID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int
	for _, sess := range repo.db.sessions {
		if sess.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (repo *sessionRepository) GetSession(_ context.Context, id string) (attendance.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sess, ok := repo.db.sessions[id]; ok {
		return *sess, nil
	}
	return attendance.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) UpdateSession(_ context.Context, sess attendance.Session) (attendance.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.sessions[sess.ID]; !ok {
		return attendance.Session{}, session.ErrNotFound
	}
	repo.db.sessions[sess.ID] = &sess
	return sess, nil
}

func (repo *sessionRepository) RenewSessionCode(_ context.Context, id, code string, issuedAt time.Time) (attendance.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sess, ok := repo.db.sessions[id]
	if !ok {
		return attendance.Session{}, session.ErrNotFound
	}
	if !sess.IsActive {
		return attendance.Session{}, session.ErrSessionInactive
	}
	sess.Code, sess.CodeIssuedAt = code, issuedAt
	return *sess, nil
}

func (repo *sessionRepository) DeleteSessionsByID(_ context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	deleted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := repo.db.sessions[id]; ok {
			deleted[id] = struct{}{}
		}
	}
	repo.db.deleteSessions(deleted)
	return len(deleted), nil
}
