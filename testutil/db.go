// Package testutil provides shared helpers for integration tests.
// Helpers in this package skip automatically when required environment
// variables are not set, so unit tests can run without a running database.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/pkordes/fleet-scheduler/internal/domain"
)

// NewPool opens a *pgxpool.Pool connected to TEST_DATABASE_URL.
// The test is skipped if the variable is not set, and the pool is closed
// when the test (and all its subtests) finish.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := requireDSN(t)

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB opens a *sql.DB on TEST_DATABASE_URL through the pgx database/sql
// driver, for goose. The connection is closed when the test finishes.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := requireDSN(t)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: open: %v", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		t.Fatalf("testutil.NewSQLDB: ping: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// MustOpenSQLDB opens a *sql.DB for the given DSN and panics on any error.
// Use this in TestMain functions where no *testing.T is available.
// Callers are responsible for closing the returned *sql.DB.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: open: " + err.Error())
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		panic("testutil.MustOpenSQLDB: ping: " + err.Error())
	}
	return db
}

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SeedDriver inserts a driver row. Drivers are owned by another system, so
// tests create them directly.
func SeedDriver(t *testing.T, db Execer, d domain.Driver) {
	t.Helper()

	const q = `
		INSERT INTO drivers (id, name, license, phone, assigned_bus_id, tenant_id, status)
		VALUES (@id, @name, @license, @phone, @assigned_bus_id, @tenant_id, @status)`

	status := d.Status
	if status == "" {
		status = domain.DriverActive
	}
	_, err := db.Exec(context.Background(), q, pgx.NamedArgs{
		"id":              d.ID,
		"name":            d.Name,
		"license":         d.License,
		"phone":           d.Phone,
		"assigned_bus_id": d.AssignedBusID,
		"tenant_id":       d.TenantID,
		"status":          string(status),
	})
	if err != nil {
		t.Fatalf("testutil.SeedDriver: %v", err)
	}
}

// SeedProfile inserts a user profile row.
func SeedProfile(t *testing.T, db Execer, p domain.Profile) {
	t.Helper()

	const q = `
		INSERT INTO user_profiles (uid, name, email, role, tenant_id)
		VALUES (@uid, @name, @email, @role, @tenant_id)`

	_, err := db.Exec(context.Background(), q, pgx.NamedArgs{
		"uid":       p.UID,
		"name":      p.Name,
		"email":     p.Email,
		"role":      string(p.Role),
		"tenant_id": p.TenantID,
	})
	if err != nil {
		t.Fatalf("testutil.SeedProfile: %v", err)
	}
}

// requireDSN returns TEST_DATABASE_URL, skipping the test if it is not set.
func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	return dsn
}
