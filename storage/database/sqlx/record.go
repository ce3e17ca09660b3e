package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/record"
)

const (
	recordColumns = "r.id, r.session_id, r.student_id, r.matric_number, r.marked_at, r.status, r.location"

	recordSessionStudentKey = "records_session_student_key"
)

type recordRow struct {
	ID           string      `db:"id"`
	SessionID    string      `db:"session_id"`
	StudentID    string      `db:"student_id"`
	MatricNumber string      `db:"matric_number"`
	MarkedAt     time.Time   `db:"marked_at"`
	Status       string      `db:"status"`
	Location     null.String `db:"location"`
}

func (r recordRow) record() attendance.Record {
	return attendance.Record{
		ID:           r.ID,
		SessionID:    r.SessionID,
		StudentID:    r.StudentID,
		MatricNumber: r.MatricNumber,
		MarkedAt:     r.MarkedAt.UTC(),
		Status:       attendance.Status(r.Status),
		Location:     r.Location.String,
	}
}

type recordRepository struct {
	exec sqlx.ExtContext
}

var _ record.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(exec sqlx.ExtContext) record.Repository {
	return &recordRepository{exec: exec}
}

func (repo *recordRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if rec.ID == "" {
		rec.ID = newID()
	}
	q := `INSERT INTO records (id, session_id, student_id, matric_number, marked_at, status, location)
		VALUES (:id, :session_id, :student_id, :matric_number, :marked_at, :status, :location)`
	row := recordRow{
		ID:           rec.ID,
		SessionID:    rec.SessionID,
		StudentID:    rec.StudentID,
		MatricNumber: rec.MatricNumber,
		MarkedAt:     rec.MarkedAt.UTC(),
		Status:       string(rec.Status),
		Location:     null.NewString(rec.Location, rec.Location != ""),
	}
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		if constraint, ok := violatedConstraint(err); ok && constraint == recordSessionStudentKey {
			return attendance.Record{}, record.ErrAlreadyMarked
		}
		return attendance.Record{}, errors.Wrap(err, "inserting record")
	}
	return rec, nil
}

func (repo *recordRepository) QueryRecords(ctx context.Context, filter *record.QueryFilter) ([]attendance.Record, error) {
	var w where
	from := " FROM records r"
	if filter != nil {
		for _, id := range []string{filter.SessionID, filter.StudentID, filter.CourseID} {
			if id != "" && !isUUID(id) {
				return []attendance.Record{}, nil
			}
		}
		if filter.SessionID != "" {
			w.add("r.session_id = ?", filter.SessionID)
		}
		if filter.StudentID != "" {
			w.add("r.student_id = ?", filter.StudentID)
		}
		if filter.CourseID != "" {
			from += " JOIN sessions s ON s.id = r.session_id"
			w.add("s.course_id = ?", filter.CourseID)
		}
	}

	var rows []recordRow
	q := repo.exec.Rebind("SELECT " + recordColumns + from + w.String() + " ORDER BY r.marked_at ASC, r.matric_number ASC")
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}
