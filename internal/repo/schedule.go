package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/fleet-scheduler/internal/domain"
)

// ScheduleRepo defines the persistence operations for driver schedule entries.
// All single-row operations are scoped by driverID to enforce ownership.
type ScheduleRepo interface {
	// ListByDriver returns the driver's entries that start on or before r.Until
	// and end on or after r.From, ordered by start_date descending. Zero bounds
	// are open. A non-empty tenantID also matches entries with no tenant.
	ListByDriver(ctx context.Context, driverID, tenantID string, r domain.ScheduleRange) ([]domain.ScheduleEntry, error)

	// GetByID retrieves a single entry, scoped to the given driverID.
	// Returns domain.ErrNotFound if no entry with that ID exists for that driver.
	GetByID(ctx context.Context, driverID string, id uuid.UUID) (domain.ScheduleEntry, error)

	// Create inserts a new entry and returns the persisted record.
	Create(ctx context.Context, e domain.ScheduleEntry) (domain.ScheduleEntry, error)

	// Update overwrites the mutable fields of an entry, scoped to its DriverID.
	// Returns domain.ErrNotFound if no entry with that ID exists for that driver.
	Update(ctx context.Context, e domain.ScheduleEntry) (domain.ScheduleEntry, error)

	// Delete removes an entry, scoped to the given driverID.
	// Returns domain.ErrNotFound if no entry with that ID exists for that driver.
	Delete(ctx context.Context, driverID string, id uuid.UUID) error
}

// pgScheduleRepo is the Postgres implementation of ScheduleRepo.
type pgScheduleRepo struct {
	db db
}

// NewScheduleRepo constructs a ScheduleRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewScheduleRepo(db db) ScheduleRepo {
	return &pgScheduleRepo{db: db}
}

const scheduleColumns = `id, driver_id, tenant_id, start_date, end_date, status, reason, approved_by, created_at`

func (r *pgScheduleRepo) ListByDriver(ctx context.Context, driverID, tenantID string, rng domain.ScheduleRange) ([]domain.ScheduleEntry, error) {
	const q = `
		SELECT ` + scheduleColumns + `
		FROM driver_schedules
		WHERE driver_id = @driver_id
		  AND (@tenant_id = '' OR tenant_id = '' OR tenant_id = @tenant_id)
		  AND (@until::timestamptz IS NULL OR start_date <= @until::timestamptz)
		  AND (@from::timestamptz IS NULL OR end_date >= @from::timestamptz)
		ORDER BY start_date DESC`

	args := pgx.NamedArgs{
		"driver_id": driverID,
		"tenant_id": tenantID,
		"until":     optionalTime(rng.Until),
		"from":      optionalTime(rng.From),
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ScheduleRepo.ListByDriver: %w", err)
	}
	defer rows.Close()

	entries := []domain.ScheduleEntry{}
	for rows.Next() {
		e, err := scanScheduleEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ScheduleRepo.ListByDriver: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ScheduleRepo.ListByDriver: rows: %w", err)
	}
	return entries, nil
}

func (r *pgScheduleRepo) GetByID(ctx context.Context, driverID string, id uuid.UUID) (domain.ScheduleEntry, error) {
	const q = `
		SELECT ` + scheduleColumns + `
		FROM driver_schedules
		WHERE id = @id AND driver_id = @driver_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "driver_id": driverID})
	e, err := scanScheduleEntry(row)
	if err != nil {
		return domain.ScheduleEntry{}, fmt.Errorf("repo.ScheduleRepo.GetByID: %w", err)
	}
	return e, nil
}

func (r *pgScheduleRepo) Create(ctx context.Context, e domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	const q = `
		INSERT INTO driver_schedules (driver_id, tenant_id, start_date, end_date, status, reason, approved_by)
		VALUES (@driver_id, @tenant_id, @start_date, @end_date, @status, @reason, @approved_by)
		RETURNING ` + scheduleColumns

	row := r.db.QueryRow(ctx, q, scheduleArgs(e))
	created, err := scanScheduleEntry(row)
	if err != nil {
		return domain.ScheduleEntry{}, fmt.Errorf("repo.ScheduleRepo.Create: %w", err)
	}
	return created, nil
}

func (r *pgScheduleRepo) Update(ctx context.Context, e domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	const q = `
		UPDATE driver_schedules
		SET start_date  = @start_date,
		    end_date    = @end_date,
		    status      = @status,
		    reason      = @reason,
		    approved_by = @approved_by
		WHERE id = @id AND driver_id = @driver_id
		RETURNING ` + scheduleColumns

	args := scheduleArgs(e)
	args["id"] = e.ID

	row := r.db.QueryRow(ctx, q, args)
	updated, err := scanScheduleEntry(row)
	if err != nil {
		return domain.ScheduleEntry{}, fmt.Errorf("repo.ScheduleRepo.Update: %w", err)
	}
	return updated, nil
}

func (r *pgScheduleRepo) Delete(ctx context.Context, driverID string, id uuid.UUID) error {
	const q = `DELETE FROM driver_schedules WHERE id = @id AND driver_id = @driver_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "driver_id": driverID})
	if err != nil {
		return fmt.Errorf("repo.ScheduleRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ScheduleRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scheduleArgs(e domain.ScheduleEntry) pgx.NamedArgs {
	return pgx.NamedArgs{
		"driver_id":   e.DriverID,
		"tenant_id":   e.TenantID,
		"start_date":  e.StartDate,
		"end_date":    e.EndDate,
		"status":      string(e.Status),
		"reason":      e.Reason,
		"approved_by": e.ApprovedBy,
	}
}

// scanScheduleEntry maps a single database row into a domain.ScheduleEntry.
func scanScheduleEntry(s scanner) (domain.ScheduleEntry, error) {
	var (
		e      domain.ScheduleEntry
		id     pgtype.UUID
		status string
	)

	err := s.Scan(&id, &e.DriverID, &e.TenantID, &e.StartDate, &e.EndDate,
		&status, &e.Reason, &e.ApprovedBy, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ScheduleEntry{}, domain.ErrNotFound
		}
		return domain.ScheduleEntry{}, err
	}

	e.ID = uuid.UUID(id.Bytes)
	e.Status = domain.ScheduleStatus(status)
	return e, nil
}
