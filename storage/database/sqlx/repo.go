package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core"
)

const uniqueViolation = "23505"

// violatedConstraint returns the name of the unique constraint err violates, if any.
func violatedConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// isUUID guards lookups by ID: postgres refuses to compare a UUID column with anything else.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

func newID() string {
	return uuid.New().String()
}

// where accumulates AND-ed conditions written with `?` placeholders.
type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, "("+clause+")")
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// orderBy builds an ORDER BY clause; fields must have been checked with core.FilterOrderings.
func orderBy(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + fallback
	}
	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	orderList = append(orderList, fallback)
	return " ORDER BY " + strings.Join(orderList, ", ")
}

func like(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(search) + "%"
}

func excludedIDs(ids []string, w *where) {
	if ids = validIDs(ids); len(ids) > 0 {
		w.add("id <> ALL(?)", pq.Array(ids))
	}
}

// deleteByID removes the rows of table with the given IDs and returns how many were deleted.
func deleteByID(ctx context.Context, exec sqlx.ExtContext, table string, ids []string) (int, error) {
	if ids = validIDs(ids); len(ids) == 0 {
		return 0, nil
	}
	res, err := exec.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, errors.Wrapf(err, "deleting %s", table)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// updated maps an UPDATE that touched no row to notFound.
func updated(res sql.Result, err error, notFound error, msg string) error {
	if err != nil {
		return errors.Wrap(err, msg)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// trapNoRowsErr maps "no rows" errors to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}
