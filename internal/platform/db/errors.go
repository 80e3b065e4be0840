package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUniqueViolation is a test-friendly sentinel for a duplicate-key
// insert. Production code sees the pgconn error instead.
var ErrUniqueViolation = errors.New("unique constraint violation")

// IsUniqueViolation reports whether err is a Postgres duplicate-key
// error (SQLSTATE 23505). Identity inserts race under concurrent
// submissions; the unique indexes on npi and mrn are the arbiter and
// the caller re-fetches on violation.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, ErrUniqueViolation) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
