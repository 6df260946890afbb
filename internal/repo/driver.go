package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/fleet-scheduler/internal/domain"
)

// DriverRepo defines the read operations on drivers this service needs.
type DriverRepo interface {
	// GetByID retrieves a driver by id.
	// Returns domain.ErrNotFound if no driver with that ID exists.
	GetByID(ctx context.Context, id string) (domain.Driver, error)
}

// pgDriverRepo is the Postgres implementation of DriverRepo.
type pgDriverRepo struct {
	db db
}

// NewDriverRepo constructs a DriverRepo backed by the provided db connection.
func NewDriverRepo(db db) DriverRepo {
	return &pgDriverRepo{db: db}
}

func (r *pgDriverRepo) GetByID(ctx context.Context, id string) (domain.Driver, error) {
	const q = `
		SELECT id, name, license, phone, assigned_bus_id, tenant_id, status, created_at
		FROM drivers
		WHERE id = @id`

	var (
		d      domain.Driver
		status string
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).
		Scan(&d.ID, &d.Name, &d.License, &d.Phone, &d.AssignedBusID, &d.TenantID, &status, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrNotFound
		}
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: %w", err)
	}

	d.Status = domain.DriverActive
	if status == string(domain.DriverSuspended) {
		d.Status = domain.DriverSuspended
	}
	return d, nil
}
