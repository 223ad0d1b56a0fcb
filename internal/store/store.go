// Package store holds the SQL for every aggregate. Functions take the
// database handle explicitly; lookups return (nil, nil) for missing rows and
// mutations return model.ErrNotFound.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/toir/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// nowUTC is the timestamp written to created_at and updated_at columns. All
// stored instants are UTC so they compare correctly as text.
func nowUTC() time.Time {
	return time.Now().UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// withTx runs fn in a transaction, committing when it returns nil. The DSN
// sets _txlock=immediate so the write lock is taken at BEGIN.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting affected rows: %w", err)
	}
	return n, nil
}

// expectOne turns a mutation that touched no rows into a not-found error.
func expectOne(res sql.Result, notFound string) error {
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NotFoundf("%s", notFound)
	}
	return nil
}
