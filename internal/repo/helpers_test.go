package repo_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fleet-scheduler/internal/domain"
	"github.com/pkordes/fleet-scheduler/testutil"
)

// newTestTx opens a transaction against the test database that is rolled back
// when the test finishes, giving free per-test isolation.
func newTestTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})
	return tx
}

func driverFixture(id, tenantID string) domain.Driver {
	return domain.Driver{
		ID:            id,
		Name:          "Juan Pérez",
		License:       "LIC-" + id,
		Phone:         "+525512345678",
		AssignedBusID: "bus-1",
		TenantID:      tenantID,
		Status:        domain.DriverActive,
	}
}
