package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/fleet-scheduler/internal/domain"
	"github.com/pkordes/fleet-scheduler/internal/events"
	"github.com/pkordes/fleet-scheduler/internal/repo"
)

const tripsModule = "viajes"

// CreateTripRequest is the raw trip creation payload. Every field is required.
// Date is an RFC 3339 date-time or a bare YYYY-MM-DD.
type CreateTripRequest struct {
	Date     string
	RouteID  string
	BusID    string
	DriverID string
	State    string
	TenantID string
}

// missing returns the names of the fields that are empty after trimming.
func (r CreateTripRequest) missing() []string {
	var out []string
	for _, f := range []struct {
		name, value string
	}{
		{"date", r.Date},
		{"routeId", r.RouteID},
		{"busId", r.BusID},
		{"driverId", r.DriverID},
		{"state", r.State},
		{"tenantId", r.TenantID},
	} {
		if strings.TrimSpace(f.value) == "" {
			out = append(out, f.name)
		}
	}
	return out
}

// TripService creates trips behind the availability guard and lists them.
type TripService struct {
	deps Deps

	// exclusive rejects a second trip for the same driver on the same day.
	exclusive bool
}

// NewTripService constructs a TripService. With exclusiveDriverDay set a
// driver can hold at most one trip per calendar day.
func NewTripService(d Deps, exclusiveDriverDay bool) *TripService {
	return &TripService{deps: d.withDefaults(), exclusive: exclusiveDriverDay}
}

// Create validates the request, checks the caller's rights and the driver's
// availability, and persists the trip. Nothing is written unless every check
// passes.
func (s *TripService) Create(ctx context.Context, uid string, req CreateTripRequest) (domain.Trip, error) {
	trip, err := s.create(ctx, uid, req)
	if err != nil {
		if domain.KindOf(err) == domain.ErrUnknown {
			s.deps.Logger.ErrorContext(ctx, "create trip failed", "uid", uid, "driver_id", req.DriverID, "error", err)
		}
		return domain.Trip{}, wrapOp("service.TripService.Create", err)
	}
	return trip, nil
}

func (s *TripService) create(ctx context.Context, uid string, req CreateTripRequest) (domain.Trip, error) {
	if err := requireAuth(uid); err != nil {
		return domain.Trip{}, err
	}

	if missing := req.missing(); len(missing) > 0 {
		return domain.Trip{}, domain.Errorf(domain.ErrInvalidArgument,
			"missing required fields: %s", strings.Join(missing, ", "))
	}
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.DriverID = strings.TrimSpace(req.DriverID)

	caller, err := s.deps.loadProfile(ctx, uid, "no permission to create trips")
	if err != nil {
		return domain.Trip{}, err
	}
	if !caller.Role.CanScheduleTrips() {
		return domain.Trip{}, domain.Errorf(domain.ErrPermissionDenied, "no permission to create trips")
	}
	if !domain.CanCreateTrip(caller.Role, caller.TenantID, req.TenantID) {
		return domain.Trip{}, domain.Errorf(domain.ErrPermissionDenied, "cannot create trips for another tenant")
	}

	state := domain.TripState(strings.TrimSpace(req.State))
	if !state.Valid() {
		return domain.Trip{}, domain.Errorf(domain.ErrInvalidArgument, "invalid trip state %q", req.State)
	}

	date, ok := parseTripDate(strings.TrimSpace(req.Date), s.deps.Location)
	if !ok {
		return domain.Trip{}, domain.Errorf(domain.ErrInvalidArgument, "invalid date %q", req.Date)
	}

	driver, err := s.deps.loadDriver(ctx, req.DriverID)
	if err != nil {
		return domain.Trip{}, err
	}
	if driver.TenantID != "" && !caller.Role.IsSuperadmin() && driver.TenantID != req.TenantID {
		return domain.Trip{}, domain.Errorf(domain.ErrPermissionDenied, "driver does not belong to tenant")
	}

	dayStart, dayEnd := domain.DayBounds(date)
	trip := domain.Trip{
		Date:     date,
		Day:      dayStart,
		RouteID:  strings.TrimSpace(req.RouteID),
		BusID:    strings.TrimSpace(req.BusID),
		DriverID: driver.ID,
		State:    state,
		TenantID: req.TenantID,
	}

	var created domain.Trip
	err = s.deps.Tx.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if err := tx.LockDriver(ctx, driver.ID); err != nil {
			return err
		}

		entries, err := tx.Schedules().ListByDriver(ctx, driver.ID, driver.TenantID,
			domain.ScheduleRange{From: dayStart, Until: dayEnd})
		if err != nil {
			return err
		}
		if domain.EvaluateAvailability(entries, date) != domain.AvailabilityAvailable {
			return domain.Errorf(domain.ErrFailedPrecondition, "driver not available on selected date")
		}

		if s.exclusive {
			n, err := tx.Trips().CountByDriverDay(ctx, driver.ID, dayStart)
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.Errorf(domain.ErrFailedPrecondition, "driver already has a trip on selected date")
			}
		}

		created, err = tx.Trips().Create(ctx, trip)
		return err
	})
	if err != nil {
		return domain.Trip{}, err
	}

	s.deps.record(ctx, caller, created.TenantID, tripsModule, domain.AuditCreate,
		"trip "+created.ID.String()+" for driver "+created.DriverID+" on "+dayStart.Format(time.DateOnly))
	s.deps.publish(ctx, events.TopicTripCreated, created.DriverID, events.TripCreated{
		TripID:    created.ID.String(),
		TenantID:  created.TenantID,
		DriverID:  created.DriverID,
		RouteID:   created.RouteID,
		BusID:     created.BusID,
		State:     string(created.State),
		Date:      created.Date,
		CreatedBy: caller.UID,
	})

	return created, nil
}

// ListByMonth returns the tenant's trips for one calendar month in the service
// time zone, oldest first. An empty tenantID means the caller's own tenant.
func (s *TripService) ListByMonth(ctx context.Context, uid, tenantID string, year int, month time.Month) ([]domain.Trip, error) {
	if err := requireAuth(uid); err != nil {
		return nil, err
	}
	if month < time.January || month > time.December {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "invalid year %d", year)
	}

	tenantID, err := s.viewTenant(ctx, uid, tenantID)
	if err != nil {
		return nil, wrapOp("service.TripService.ListByMonth", err)
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, s.deps.Location)
	trips, err := s.deps.Trips.ListByTenant(ctx, tenantID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, wrapOp("service.TripService.ListByMonth", err)
	}
	return trips, nil
}

// Get returns one trip of the tenant. An empty tenantID means the caller's
// own tenant; trips of other tenants are reported as not found.
func (s *TripService) Get(ctx context.Context, uid, tenantID string, id uuid.UUID) (domain.Trip, error) {
	if err := requireAuth(uid); err != nil {
		return domain.Trip{}, err
	}
	if id == uuid.Nil {
		return domain.Trip{}, domain.Errorf(domain.ErrInvalidArgument, "trip id is required")
	}

	tenantID, err := s.viewTenant(ctx, uid, tenantID)
	if err != nil {
		return domain.Trip{}, wrapOp("service.TripService.Get", err)
	}

	trip, err := s.deps.Trips.GetByID(ctx, tenantID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Trip{}, domain.Errorf(domain.ErrNotFound, "trip not found")
	}
	if err != nil {
		return domain.Trip{}, wrapOp("service.TripService.Get", err)
	}
	return trip, nil
}

// viewTenant resolves the tenant whose trips the caller wants to read and
// checks the caller may read them.
func (s *TripService) viewTenant(ctx context.Context, uid, tenantID string) (string, error) {
	caller, err := s.deps.loadProfile(ctx, uid, "no permission to view trips")
	if err != nil {
		return "", err
	}

	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		tenantID = caller.TenantID
	}
	if tenantID == "" {
		return "", domain.Errorf(domain.ErrInvalidArgument, "tenantId is required")
	}
	if !domain.CanViewTrips(caller.Role, caller.TenantID, tenantID) {
		return "", domain.Errorf(domain.ErrPermissionDenied, "no permission to view trips of this tenant")
	}
	return tenantID, nil
}

// parseTripDate accepts an RFC 3339 instant or a bare date, and returns the
// instant in loc.
func parseTripDate(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), true
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}
