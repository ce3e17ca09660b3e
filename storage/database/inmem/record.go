package inmemdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/record"
)

type recordRepository struct {
	db *DB
}

var _ record.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *DB) record.Repository {
	return &recordRepository{db: db}
}

func (repo *recordRepository) CreateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.sessions[rec.SessionID]; !ok {
		return attendance.Record{}, errors.Errorf("session %s does not exist", rec.SessionID)
	}
	if _, ok := repo.db.students[rec.StudentID]; !ok {
		return attendance.Record{}, errors.Errorf("student %s does not exist", rec.StudentID)
	}
	for _, r := range repo.db.records {
		if r.SessionID == rec.SessionID && r.StudentID == rec.StudentID {
			return attendance.Record{}, record.ErrAlreadyMarked
		}
	}

	if rec.ID == "" {
		rec.ID = newID()
	}
	repo.db.records[rec.ID] = &rec
	return rec, nil
}

func (repo *recordRepository) QueryRecords(_ context.Context, filter *record.QueryFilter) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.records {
		if filter != nil {
			if filter.SessionID != "" && rec.SessionID != filter.SessionID {
				continue
			}
			if filter.StudentID != "" && rec.StudentID != filter.StudentID {
				continue
			}
			if filter.CourseID != "" {
				sess, ok := repo.db.sessions[rec.SessionID]
				if !ok || sess.CourseID != filter.CourseID {
					continue
				}
			}
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].MarkedAt.Equal(records[j].MarkedAt) {
			return records[i].MarkedAt.Before(records[j].MarkedAt)
		}
		return records[i].MatricNumber < records[j].MatricNumber
	})
	return records, nil
}
