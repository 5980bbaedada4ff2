// Package postgres implements the store contracts on top of PostgreSQL.
//
// The engine leverages a database adapter so it can be constructed from a
// pgxpool.Pool, a sql.DB, or a sqlx.DB. SQL is built with goqu. Units of
// work run inside a database transaction; book rows read within a unit of
// work are locked with SELECT ... FOR UPDATE, which serializes all
// inventory mutations per book id.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"library-circulation/internal/store"
	"library-circulation/internal/store/postgres/internal/adapters"
)

const (
	dialectPostgres = "postgres"

	tableBooks         = "books"
	tableUsers         = "users"
	tableTransactions  = "transactions"
	tableFines         = "fines"
	tableNotifications = "notifications"

	logMsgBuildQueryFailed = "failed to build sql query"
	logMsgDBQueryFailed    = "database query execution failed"
	logMsgDBExecFailed     = "database statement execution failed"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logMsgScanRowFailed    = "failed to scan database row"
	logMsgSQLExecuted      = "executed sql"
	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrDurationMS      = "duration_ms"
)

var (
	// ErrNilDatabaseConnection is returned when an engine is constructed from a nil connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrBuildingQueryFailed is returned when goqu fails to render a statement to SQL.
	ErrBuildingQueryFailed = errors.New("building sql query failed")

	// ErrQueryFailed is returned when a select statement fails to execute.
	ErrQueryFailed = errors.New("executing sql query failed")

	// ErrExecFailed is returned when an insert, update or delete fails to execute.
	ErrExecFailed = errors.New("executing sql statement failed")

	// ErrScanningRowFailed is returned when a result row cannot be scanned.
	ErrScanningRowFailed = errors.New("scanning database row failed")

	// ErrBeginTxFailed is returned when a database transaction cannot be started.
	ErrBeginTxFailed = errors.New("starting database transaction failed")

	// ErrCommitTxFailed is returned when a database transaction cannot be committed.
	ErrCommitTxFailed = errors.New("committing database transaction failed")
)

// queryTarget is satisfied by both the plain adapter and an open transaction.
type queryTarget interface {
	Query(ctx context.Context, query string) (adapters.DBRows, error)
	Exec(ctx context.Context, query string) (adapters.DBResult, error)
}

// session carries the execution target for all repository methods. Engine
// reads run against the pool; unit-of-work sessions run against an open
// transaction with row locking enabled.
type session struct {
	q       queryTarget
	logger  store.Logger
	locking bool
}

// Engine implements store.Store for plain reads and store.UnitOfWork for
// transactional multi-entity writes.
type Engine struct {
	session
	db adapters.DBAdapter
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine) error

// WithLogger sets the logger for the engine.
//
// Debug level: SQL statements with execution timing (development use)
// Warn level: non-critical issues like row cleanup failures
// Error level: failures that cause operation errors.
func WithLogger(logger store.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// NewEngineFromPGXPool creates an Engine using a pgx pool with optional configuration.
func NewEngineFromPGXPool(pool *pgxpool.Pool, options ...Option) (*Engine, error) {
	if pool == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(pool), options...)
}

// NewEngineFromSQLDB creates an Engine using a sql.DB with optional configuration.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options...)
}

// NewEngineFromSQLX creates an Engine using a sqlx.DB with optional configuration.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options...)
}

func newEngine(db adapters.DBAdapter, options ...Option) (*Engine, error) {
	e := &Engine{db: db}
	e.session.q = db

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Execute runs fn against a transaction-bound store view. All writes commit
// together when fn returns nil; any error rolls the whole unit of work back.
// Book reads inside fn take a row lock, so concurrent units of work on the
// same book are serialized by the database.
func (e *Engine) Execute(ctx context.Context, fn func(ctx context.Context, s store.Store) error) error {
	tx, beginErr := e.db.Begin(ctx)
	if beginErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgDBExecFailed, logAttrError, beginErr.Error())
		}

		return errors.Join(ErrBeginTxFailed, beginErr)
	}

	txSession := &session{q: tx, logger: e.logger, locking: true}

	if fnErr := fn(ctx, txSession); fnErr != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && e.logger != nil {
			e.logger.Warn(logMsgDBExecFailed, logAttrError, rbErr.Error())
		}

		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return errors.Join(ErrCommitTxFailed, commitErr)
	}

	return nil
}

// builder returns a goqu dialect builder for postgres.
func builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// runQuery executes a select statement and returns its rows with timing logged.
func (s *session) runQuery(ctx context.Context, sqlQuery string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := s.q.Query(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, time.Since(start))

	if queryErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		}

		return nil, errors.Join(ErrQueryFailed, queryErr)
	}

	return rows, nil
}

// runExec executes a mutating statement and returns the rows affected count.
func (s *session) runExec(ctx context.Context, sqlQuery string) (int64, error) {
	start := time.Now()
	result, execErr := s.q.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, time.Since(start))

	if execErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		}

		return 0, errors.Join(ErrExecFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		return 0, errors.Join(ErrExecFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (s *session) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (s *session) logQueryWithDuration(sqlQuery string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// nullableTime renders an optional timestamp as a SQL value.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return *t
}

// nullableUUID renders an optional uuid reference as a SQL value.
func nullableUUID(u uuid.NullUUID) any {
	if !u.Valid {
		return nil
	}

	return u.UUID
}

var (
	_ store.Store      = (*Engine)(nil)
	_ store.UnitOfWork = (*Engine)(nil)
	_ store.Store      = (*session)(nil)
)
