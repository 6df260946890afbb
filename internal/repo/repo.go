// Package repo contains all database access logic for the fleet scheduling API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Tx is the unit of work handed to Transactor.WithinTx. Every repo it returns
// runs inside the same database transaction.
type Tx interface {
	// LockDriver takes a transaction-scoped advisory lock for driverID.
	// Concurrent transactions locking the same driver wait for each other,
	// so a read-check-write sequence for one driver cannot interleave.
	LockDriver(ctx context.Context, driverID string) error

	Schedules() ScheduleRepo
	Trips() TripRepo
}

// Transactor runs a function inside a database transaction.
type Transactor interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type pgTransactor struct {
	db db
}

// NewTransactor constructs a Transactor backed by the provided db connection.
// Passing a pgx.Tx (as integration tests do) nests the work in a savepoint.
func NewTransactor(db db) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return pgx.BeginFunc(ctx, t.db, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockDriver(ctx context.Context, driverID string) error {
	const q = `SELECT pg_advisory_xact_lock(hashtextextended('driver:' || @driver_id, 0))`

	if _, err := t.tx.Exec(ctx, q, pgx.NamedArgs{"driver_id": driverID}); err != nil {
		return fmt.Errorf("repo.Tx.LockDriver: %w", err)
	}
	return nil
}

func (t *pgTx) Schedules() ScheduleRepo { return NewScheduleRepo(t.tx) }

func (t *pgTx) Trips() TripRepo { return NewTripRepo(t.tx) }

// optionalTime maps a zero time to nil so it is sent as SQL NULL.
func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
