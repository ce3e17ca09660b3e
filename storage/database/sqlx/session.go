package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sajili/core/attendance"
	"github.com/trezcool/sajili/core/session"
)

const sessionColumns = `id, course_id, week, to_char(date, 'YYYY-MM-DD') AS date,
	to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time,
	code, code_issued_at, is_active, location, created_at`

type sessionRow struct {
	ID           string      `db:"id"`
	CourseID     string      `db:"course_id"`
	Week         int         `db:"week"`
	Date         string      `db:"date"`
	StartTime    string      `db:"start_time"`
	EndTime      string      `db:"end_time"`
	Code         null.String `db:"code"`
	CodeIssuedAt null.Time   `db:"code_issued_at"`
	IsActive     bool        `db:"is_active"`
	Location     null.String `db:"location"`
	CreatedAt    time.Time   `db:"created_at"`
}

func newSessionRow(sess attendance.Session) sessionRow {
	return sessionRow{
		ID:           sess.ID,
		CourseID:     sess.CourseID,
		Week:         sess.Week,
		Date:         sess.Date,
		StartTime:    sess.StartTime,
		EndTime:      sess.EndTime,
		Code:         null.NewString(sess.Code, sess.Code != ""),
		CodeIssuedAt: null.NewTime(sess.CodeIssuedAt.UTC(), !sess.CodeIssuedAt.IsZero()),
		IsActive:     sess.IsActive,
		Location:     null.NewString(sess.Location, sess.Location != ""),
		CreatedAt:    sess.CreatedAt.UTC(),
	}
}

func (r sessionRow) session() attendance.Session {
	sess := attendance.Session{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Week:      r.Week,
		Date:      r.Date,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Code:      r.Code.String,
		IsActive:  r.IsActive,
		Location:  r.Location.String,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.CodeIssuedAt.Valid {
		sess.CodeIssuedAt = r.CodeIssuedAt.Time.UTC()
	}
	return sess
}

type sessionRepository struct {
	exec sqlx.ExtContext
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(exec sqlx.ExtContext) session.Repository {
	return &sessionRepository{exec: exec}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, sess attendance.Session) (attendance.Session, error) {
	if !isUUID(sess.CourseID) {
		return attendance.Session{}, errors.Errorf("course %s does not exist", sess.CourseID)
	}
	sess.ID = newID()
	q := `INSERT INTO sessions (id, course_id, week, date, start_time, end_time, code, code_issued_at, is_active, location, created_at)
		VALUES (:id, :course_id, :week, :date, :start_time, :end_time, :code, :code_issued_at, :is_active, :location, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, newSessionRow(sess)); err != nil {
		return attendance.Session{}, errors.Wrap(err, "inserting session")
	}
	return sess, nil
}

func (repo *sessionRepository) QuerySessions(ctx context.Context, filter *session.QueryFilter) ([]attendance.Session, error) {
	var w where
	if filter != nil {
		if filter.CourseID != "" {
			if !isUUID(filter.CourseID) {
				return []attendance.Session{}, nil
			}
			w.add("course_id = ?", filter.CourseID)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
	}

	var rows []sessionRow
	q := repo.exec.Rebind("SELECT " + sessionColumns + " FROM sessions" + w.String() +
		" ORDER BY week ASC, date ASC, start_time ASC, created_at ASC")
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]attendance.Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.session())
	}
	return sessions, nil
}

func (repo *sessionRepository) CountSessions(ctx context.Context, courseID string) (int, error) {
	if !isUUID(courseID) {
		return 0, nil
	}
	var n int
	if err := sqlx.GetContext(ctx, repo.exec, &n, "SELECT COUNT(*) FROM sessions WHERE course_id = $1", courseID); err != nil {
		return 0, errors.Wrap(err, "counting sessions")
	}
	return n, nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, id string) (attendance.Session, error) {
	if !isUUID(id) {
		return attendance.Session{}, session.ErrNotFound
	}
	var row sessionRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, "SELECT "+sessionColumns+" FROM sessions WHERE id = $1", id); err != nil {
		return attendance.Session{}, trapNoRowsErr(err, session.ErrNotFound, "finding session")
	}
	return row.session(), nil
}

func (repo *sessionRepository) UpdateSession(ctx context.Context, sess attendance.Session) (attendance.Session, error) {
	if !isUUID(sess.ID) {
		return attendance.Session{}, session.ErrNotFound
	}
	q := `UPDATE sessions SET week = :week, date = :date, start_time = :start_time, end_time = :end_time,
		code = :code, code_issued_at = :code_issued_at, is_active = :is_active, location = :location
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, newSessionRow(sess))
	if err = updated(res, err, session.ErrNotFound, "updating session"); err != nil {
		return attendance.Session{}, err
	}
	return sess, nil
}

func (repo *sessionRepository) RenewSessionCode(ctx context.Context, id, code string, issuedAt time.Time) (attendance.Session, error) {
	if !isUUID(id) {
		return attendance.Session{}, session.ErrNotFound
	}
	q := "UPDATE sessions SET code = $2, code_issued_at = $3 WHERE id = $1 AND is_active RETURNING " + sessionColumns
	var row sessionRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, id, code, issuedAt.UTC()); err != nil {
		if errors.Cause(err) != sql.ErrNoRows {
			return attendance.Session{}, errors.Wrap(err, "renewing session code")
		}
		// stopped or deleted
		if _, err = repo.GetSession(ctx, id); err != nil {
			return attendance.Session{}, err
		}
		return attendance.Session{}, session.ErrSessionInactive
	}
	return row.session(), nil
}

func (repo *sessionRepository) DeleteSessionsByID(ctx context.Context, ids ...string) (int, error) {
	return deleteByID(ctx, repo.exec, "sessions", ids)
}
