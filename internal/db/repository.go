// Package db provides the transactional repository for topic engine data.
package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"sync"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Repository provides persistence for all models. A Repository obtained
// from WithTx runs every statement inside that transaction.
type Repository struct {
	db *sql.DB
	q  querier

	inTx bool

	// Prepared statements for reads outside transactions, keyed by query text.
	stmtCache *sync.Map // map[string]*sql.Stmt
}

// NewRepository creates a new Repository instance.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db, stmtCache: &sync.Map{}}
}

// PrepareStmt gets or creates a prepared statement from cache.
func (r *Repository) PrepareStmt(ctx context.Context, query string) (*sql.Stmt, error) {
	if stmt, ok := r.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	// Another goroutine may have prepared the same query; keep theirs.
	actual, loaded := r.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}

	return stmt, nil
}

// Close closes all cached prepared statements.
func (r *Repository) Close() error {
	var firstErr error
	r.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.stmtCache.Delete(key)
		return true
	})
	return firstErr
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back on error, panic or context cancellation.
// Calling WithTx on a transactional Repository joins the outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(Store) error) (err error) {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	txRepo := &Repository{db: r.db, q: tx, inTx: true, stmtCache: r.stmtCache}
	if err := fn(txRepo); err != nil {
		tx.Rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.Rollback()
		return apperr.Wrap(apperr.ErrDatabase, "transaction cancelled", err)
	}
	if err := tx.Commit(); err != nil {
		return wrapDB("failed to commit transaction", err)
	}
	return nil
}

// queryRow uses a cached prepared statement outside transactions. Inside a
// transaction the single pooled connection is held by the tx, so statements
// run directly on it.
func (r *Repository) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if !r.inTx {
		if stmt, err := r.PrepareStmt(ctx, query); err == nil {
			return stmt.QueryRowContext(ctx, args...)
		}
	}
	return r.q.QueryRowContext(ctx, query, args...)
}

// exec runs a statement and returns the number of affected rows.
func (r *Repository) exec(ctx context.Context, op string, query string, args ...interface{}) (int64, error) {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapDB(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, wrapDB(op, err)
	}
	return n, nil
}

// isUniqueViolation reports whether err is an SQLite unique or primary key
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if stderrors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// wrapDB classifies a storage error. AppErrors pass through untouched and
// unique violations become CONFLICT.
func wrapDB(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if isUniqueViolation(err) {
		return apperr.Wrap(apperr.ErrConflict, op+": concurrent modification", err)
	}
	return apperr.Wrap(apperr.ErrDatabase, op, err)
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(i *int64) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func intPtr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	i := ni.Int64
	return &i
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
