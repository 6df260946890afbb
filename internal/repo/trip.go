package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/fleet-scheduler/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with DB-generated
	// id and created_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key, scoped to tenantID.
	// Returns domain.ErrNotFound if no such trip exists in that tenant.
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (domain.Trip, error)

	// CountByDriverDay returns how many trips the driver already has on day,
	// across all tenants. Only the calendar date of day is used.
	CountByDriverDay(ctx context.Context, driverID string, day time.Time) (int, error)

	// ListByTenant returns the tenant's trips with from <= trip_date < to,
	// ordered by trip_date ascending.
	ListByTenant(ctx context.Context, tenantID string, from, to time.Time) ([]domain.Trip, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, trip_date, trip_day, route_id, bus_id, driver_id, state, tenant_id, created_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (trip_date, trip_day, route_id, bus_id, driver_id, state, tenant_id)
		VALUES (@trip_date, @trip_day, @route_id, @bus_id, @driver_id, @state, @tenant_id)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"trip_date": trip.Date,
		"trip_day":  calendarDate(trip.Day),
		"route_id":  trip.RouteID,
		"bus_id":    trip.BusID,
		"driver_id": trip.DriverID,
		"state":     string(trip.State),
		"tenant_id": trip.TenantID,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE id = @id AND tenant_id = @tenant_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "tenant_id": tenantID})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) CountByDriverDay(ctx context.Context, driverID string, day time.Time) (int, error) {
	const q = `
		SELECT count(*)
		FROM trips
		WHERE driver_id = @driver_id AND trip_day = @trip_day`

	args := pgx.NamedArgs{
		"driver_id": driverID,
		"trip_day":  calendarDate(day),
	}

	var n int
	if err := r.db.QueryRow(ctx, q, args).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.TripRepo.CountByDriverDay: %w", err)
	}
	return n, nil
}

func (r *pgTripRepo) ListByTenant(ctx context.Context, tenantID string, from, to time.Time) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE tenant_id = @tenant_id
		  AND trip_date >= @from
		  AND trip_date < @to
		ORDER BY trip_date ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"tenant_id": tenantID, "from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByTenant: %w", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.ListByTenant: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByTenant: rows: %w", err)
	}
	return trips, nil
}

// calendarDate encodes the calendar date of t (in t's own location) as a SQL DATE.
func calendarDate(t time.Time) pgtype.Date {
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// scanTrip maps a single database row into a domain.Trip.
// Day comes back as midnight UTC of the stored calendar date.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t     domain.Trip
		id    pgtype.UUID
		day   pgtype.Date
		state string
	)

	err := s.Scan(&id, &t.Date, &day, &t.RouteID, &t.BusID, &t.DriverID, &state, &t.TenantID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.Day = day.Time
	t.State = domain.TripState(state)
	return t, nil
}
