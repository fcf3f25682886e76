package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Pensezy/EduTrack-CM-sub003/storage/database"
)

const (
	pqUniqueViolation = "23505"
	pqInvalidTextRepr = "22P02"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// repo is the base of every sqlx repository: a connection pool and the circuit breaker guarding it.
type repo struct {
	db *sqlx.DB
	br *database.Breaker
}

func (r repo) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return r.br.Do(func() error {
		return r.db.GetContext(ctx, dest, query, args...)
	})
}

func (r repo) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return r.br.Do(func() error {
		return r.db.SelectContext(ctx, dest, query, args...)
	})
}

func (r repo) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var n int64
	err := r.br.Do(func() error {
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool { return pqCode(err) == pqUniqueViolation }

// isInvalidText is true when an argument cannot be cast to its column type (eg. a malformed uuid).
func isInvalidText(err error) bool { return pqCode(err) == pqInvalidTextRepr }

// containsPattern returns a LIKE pattern matching s anywhere, with its wildcards escaped.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// where joins conditions with AND.
type where struct {
	conds []string
	args  []interface{}
}

// arg registers a query argument and returns its placeholder.
func (w *where) arg(v interface{}) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *where) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
