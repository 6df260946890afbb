package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/fleet-scheduler/internal/domain"
	"github.com/pkordes/fleet-scheduler/internal/events"
	"github.com/pkordes/fleet-scheduler/internal/repo"
)

const (
	schedulesModule = "horarios"

	// MaxCalendarDays caps the span of one availability calendar request.
	MaxCalendarDays = 62
)

// ScheduleService manages driver schedule entries and answers availability
// calendar queries.
type ScheduleService struct {
	deps Deps
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(d Deps) *ScheduleService {
	return &ScheduleService{deps: d.withDefaults()}
}

// authorize resolves the caller and the driver, and applies check to the
// caller's role and the driver's tenant. Drivers without a tenant are checked
// against the caller's own tenant.
func (s *ScheduleService) authorize(
	ctx context.Context,
	uid, driverID string,
	roleOK func(domain.Role) bool,
	check func(role domain.Role, callerTenant, driverTenant string) bool,
	deniedMsg string,
) (domain.Profile, domain.Driver, error) {
	if err := requireAuth(uid); err != nil {
		return domain.Profile{}, domain.Driver{}, err
	}
	driverID = strings.TrimSpace(driverID)
	if driverID == "" {
		return domain.Profile{}, domain.Driver{}, domain.Errorf(domain.ErrInvalidArgument, "driverId is required")
	}

	caller, err := s.deps.loadProfile(ctx, uid, deniedMsg)
	if err != nil {
		return domain.Profile{}, domain.Driver{}, err
	}
	if !roleOK(caller.Role) {
		return domain.Profile{}, domain.Driver{}, domain.Errorf(domain.ErrPermissionDenied, "%s", deniedMsg)
	}

	driver, err := s.deps.loadDriver(ctx, driverID)
	if err != nil {
		return domain.Profile{}, domain.Driver{}, err
	}
	driverTenant := driver.TenantID
	if driverTenant == "" {
		driverTenant = caller.TenantID
	}
	if !check(caller.Role, caller.TenantID, driverTenant) {
		return domain.Profile{}, domain.Driver{}, domain.Errorf(domain.ErrPermissionDenied, "driver belongs to another tenant")
	}
	return caller, driver, nil
}

func (s *ScheduleService) authorizeRead(ctx context.Context, uid, driverID string) (domain.Profile, domain.Driver, error) {
	return s.authorize(ctx, uid, driverID, domain.Role.CanReadSchedules, domain.CanViewSchedules,
		"no permission to view driver schedules")
}

func (s *ScheduleService) authorizeWrite(ctx context.Context, uid, driverID string) (domain.Profile, domain.Driver, error) {
	return s.authorize(ctx, uid, driverID, domain.Role.CanEditSchedules, domain.CanManageSchedules,
		"no permission to edit driver schedules")
}

// List returns the driver's entries overlapping [from, to], newest first.
// Only the calendar dates of from and to are used; a zero bound is open.
func (s *ScheduleService) List(ctx context.Context, uid, driverID string, from, to time.Time) ([]domain.ScheduleEntry, error) {
	_, driver, err := s.authorizeRead(ctx, uid, driverID)
	if err != nil {
		return nil, wrapOp("service.ScheduleService.List", err)
	}

	var rng domain.ScheduleRange
	if !from.IsZero() {
		rng.From = s.deps.startOfDay(from)
	}
	if !to.IsZero() {
		rng.Until = s.deps.endOfDay(to)
	}
	if !rng.From.IsZero() && !rng.Until.IsZero() && rng.Until.Before(rng.From) {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "to must be on or after from")
	}

	entries, err := s.deps.Schedules.ListByDriver(ctx, driver.ID, driver.TenantID, rng)
	if err != nil {
		return nil, wrapOp("service.ScheduleService.List", err)
	}
	for i := range entries {
		entries[i] = s.local(entries[i])
	}
	return entries, nil
}

// Create adds an entry to the driver's schedule. StartDate and EndDate are
// widened to whole days in the service time zone.
func (s *ScheduleService) Create(ctx context.Context, uid string, e domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	caller, driver, err := s.authorizeWrite(ctx, uid, e.DriverID)
	if err != nil {
		return domain.ScheduleEntry{}, wrapOp("service.ScheduleService.Create", err)
	}
	e, err = s.normalize(e, caller, driver)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}

	var created domain.ScheduleEntry
	err = s.deps.Tx.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if err := tx.LockDriver(ctx, driver.ID); err != nil {
			return err
		}
		created, err = tx.Schedules().Create(ctx, e)
		return err
	})
	if err != nil {
		return domain.ScheduleEntry{}, wrapOp("service.ScheduleService.Create", err)
	}

	s.changed(ctx, caller, created, domain.AuditCreate)
	return s.local(created), nil
}

// Update overwrites an existing entry. The entry must belong to e.DriverID.
func (s *ScheduleService) Update(ctx context.Context, uid string, e domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	caller, driver, err := s.authorizeWrite(ctx, uid, e.DriverID)
	if err != nil {
		return domain.ScheduleEntry{}, wrapOp("service.ScheduleService.Update", err)
	}
	if e.ID == uuid.Nil {
		return domain.ScheduleEntry{}, domain.Errorf(domain.ErrInvalidArgument, "schedule id is required")
	}
	e, err = s.normalize(e, caller, driver)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}

	var updated domain.ScheduleEntry
	err = s.deps.Tx.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if err := tx.LockDriver(ctx, driver.ID); err != nil {
			return err
		}
		updated, err = tx.Schedules().Update(ctx, e)
		return err
	})
	if err != nil {
		return domain.ScheduleEntry{}, wrapOp("service.ScheduleService.Update", err)
	}

	s.changed(ctx, caller, updated, domain.AuditUpdate)
	return s.local(updated), nil
}

// Delete removes an entry from the driver's schedule.
func (s *ScheduleService) Delete(ctx context.Context, uid, driverID string, id uuid.UUID) error {
	caller, driver, err := s.authorizeWrite(ctx, uid, driverID)
	if err != nil {
		return wrapOp("service.ScheduleService.Delete", err)
	}

	var removed domain.ScheduleEntry
	err = s.deps.Tx.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if err := tx.LockDriver(ctx, driver.ID); err != nil {
			return err
		}
		removed, err = tx.Schedules().GetByID(ctx, driver.ID, id)
		if err != nil {
			return err
		}
		return tx.Schedules().Delete(ctx, driver.ID, id)
	})
	if err != nil {
		return wrapOp("service.ScheduleService.Delete", err)
	}

	s.changed(ctx, caller, removed, domain.AuditDelete)
	return nil
}

// Availability returns one verdict per calendar day from from through to.
// A zero to means a single day.
func (s *ScheduleService) Availability(ctx context.Context, uid, driverID string, from, to time.Time) ([]domain.DayAvailability, error) {
	if err := requireAuth(uid); err != nil {
		return nil, err
	}
	if from.IsZero() {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "from is required")
	}
	if to.IsZero() {
		to = from
	}
	first, last := s.deps.startOfDay(from), s.deps.startOfDay(to)
	if last.Before(first) {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "to must be on or after from")
	}
	if last.After(first.AddDate(0, 0, MaxCalendarDays-1)) {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "range must not exceed %d days", MaxCalendarDays)
	}

	_, driver, err := s.authorizeRead(ctx, uid, driverID)
	if err != nil {
		return nil, wrapOp("service.ScheduleService.Availability", err)
	}

	_, lastEnd := domain.DayBounds(last)
	entries, err := s.deps.Schedules.ListByDriver(ctx, driver.ID, driver.TenantID,
		domain.ScheduleRange{From: first, Until: lastEnd})
	if err != nil {
		return nil, wrapOp("service.ScheduleService.Availability", err)
	}
	return domain.AvailabilityCalendar(entries, first, last), nil
}

// normalize validates a write and fills the fields the caller does not set.
func (s *ScheduleService) normalize(e domain.ScheduleEntry, caller domain.Profile, driver domain.Driver) (domain.ScheduleEntry, error) {
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return domain.ScheduleEntry{}, domain.Errorf(domain.ErrInvalidArgument, "startDate and endDate are required")
	}
	e.Status = domain.ScheduleStatus(strings.ToUpper(strings.TrimSpace(string(e.Status))))
	if !e.Status.Valid() {
		return domain.ScheduleEntry{}, domain.Errorf(domain.ErrInvalidArgument, "invalid schedule status %q", e.Status)
	}

	e.StartDate = s.deps.startOfDay(e.StartDate)
	e.EndDate = s.deps.endOfDay(e.EndDate)
	if e.EndDate.Before(e.StartDate) {
		return domain.ScheduleEntry{}, domain.Errorf(domain.ErrInvalidArgument, "endDate must be on or after startDate")
	}

	e.DriverID = driver.ID
	e.TenantID = driver.TenantID
	e.Reason = strings.TrimSpace(e.Reason)
	if strings.TrimSpace(e.ApprovedBy) == "" {
		e.ApprovedBy = caller.UID
	}
	return e, nil
}

// local expresses the entry bounds in the service time zone so their calendar
// dates read correctly.
func (s *ScheduleService) local(e domain.ScheduleEntry) domain.ScheduleEntry {
	e.StartDate = e.StartDate.In(s.deps.Location)
	e.EndDate = e.EndDate.In(s.deps.Location)
	return e
}

func (s *ScheduleService) changed(ctx context.Context, caller domain.Profile, e domain.ScheduleEntry, action domain.AuditAction) {
	e = s.local(e)
	s.deps.record(ctx, caller, e.TenantID, schedulesModule, action,
		string(action)+" schedule "+e.ID.String()+" for driver "+e.DriverID+
			" ("+string(e.Status)+" "+e.StartDate.Format(time.DateOnly)+" to "+e.EndDate.Format(time.DateOnly)+")")
	s.deps.publish(ctx, events.TopicScheduleChanged, e.DriverID, events.ScheduleChanged{
		EntryID:  e.ID.String(),
		DriverID: e.DriverID,
		TenantID: e.TenantID,
		Action:   string(action),
		ActorID:  caller.UID,
	})
}
