package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/fleet-scheduler/internal/domain"
	"github.com/pkordes/fleet-scheduler/internal/events"
	"github.com/pkordes/fleet-scheduler/internal/repo"
)

// Hand-written test doubles. Each method is a function field; set only the
// ones your test needs. A nil field panics, which flags an unexpected call.

type mockProfileRepo struct {
	getByUID func(ctx context.Context, uid string) (domain.Profile, error)
}

func (m *mockProfileRepo) GetByUID(ctx context.Context, uid string) (domain.Profile, error) {
	return m.getByUID(ctx, uid)
}

type mockDriverRepo struct {
	getByID func(ctx context.Context, id string) (domain.Driver, error)
}

func (m *mockDriverRepo) GetByID(ctx context.Context, id string) (domain.Driver, error) {
	return m.getByID(ctx, id)
}

type mockScheduleRepo struct {
	listByDriver func(ctx context.Context, driverID, tenantID string, r domain.ScheduleRange) ([]domain.ScheduleEntry, error)
	getByID      func(ctx context.Context, driverID string, id uuid.UUID) (domain.ScheduleEntry, error)
	create       func(ctx context.Context, e domain.ScheduleEntry) (domain.ScheduleEntry, error)
	update       func(ctx context.Context, e domain.ScheduleEntry) (domain.ScheduleEntry, error)
	delete       func(ctx context.Context, driverID string, id uuid.UUID) error
}

func (m *mockScheduleRepo) ListByDriver(ctx context.Context, driverID, tenantID string, r domain.ScheduleRange) ([]domain.ScheduleEntry, error) {
	return m.listByDriver(ctx, driverID, tenantID, r)
}
func (m *mockScheduleRepo) GetByID(ctx context.Context, driverID string, id uuid.UUID) (domain.ScheduleEntry, error) {
	return m.getByID(ctx, driverID, id)
}
func (m *mockScheduleRepo) Create(ctx context.Context, e domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	return m.create(ctx, e)
}
func (m *mockScheduleRepo) Update(ctx context.Context, e domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	return m.update(ctx, e)
}
func (m *mockScheduleRepo) Delete(ctx context.Context, driverID string, id uuid.UUID) error {
	return m.delete(ctx, driverID, id)
}

type mockTripRepo struct {
	create           func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID          func(ctx context.Context, tenantID string, id uuid.UUID) (domain.Trip, error)
	countByDriverDay func(ctx context.Context, driverID string, day time.Time) (int, error)
	listByTenant     func(ctx context.Context, tenantID string, from, to time.Time) ([]domain.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, tenantID, id)
}
func (m *mockTripRepo) CountByDriverDay(ctx context.Context, driverID string, day time.Time) (int, error) {
	return m.countByDriverDay(ctx, driverID, day)
}
func (m *mockTripRepo) ListByTenant(ctx context.Context, tenantID string, from, to time.Time) ([]domain.Trip, error) {
	return m.listByTenant(ctx, tenantID, from, to)
}

// recordingAudit keeps every event it is given.
type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	err    error
}

func (a *recordingAudit) Record(_ context.Context, ev domain.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return a.err
}

// recordingPublisher keeps every topic it is asked to publish to.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

// fakeTransactor runs fn against in-memory repos and records the locks taken.
// It does not roll anything back; tests assert on what fn did.
type fakeTransactor struct {
	schedules *mockScheduleRepo
	trips     *mockTripRepo
	locked    []string
	calls     int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repo.Tx) error) error {
	f.calls++
	return fn(ctx, &fakeTx{f: f})
}

type fakeTx struct {
	f *fakeTransactor
}

func (t *fakeTx) LockDriver(_ context.Context, driverID string) error {
	t.f.locked = append(t.f.locked, driverID)
	return nil
}

func (t *fakeTx) Schedules() repo.ScheduleRepo { return t.f.schedules }

func (t *fakeTx) Trips() repo.TripRepo { return t.f.trips }

// compile-time checks
var (
	_ repo.ProfileRepo  = (*mockProfileRepo)(nil)
	_ repo.DriverRepo   = (*mockDriverRepo)(nil)
	_ repo.ScheduleRepo = (*mockScheduleRepo)(nil)
	_ repo.TripRepo     = (*mockTripRepo)(nil)
	_ repo.AuditRepo    = (*recordingAudit)(nil)
	_ repo.Transactor   = (*fakeTransactor)(nil)
	_ events.Publisher  = (*recordingPublisher)(nil)
)

// ---- fixtures --------------------------------------------------------------

func profiles(ps ...domain.Profile) *mockProfileRepo {
	byUID := make(map[string]domain.Profile, len(ps))
	for _, p := range ps {
		byUID[p.UID] = p
	}
	return &mockProfileRepo{
		getByUID: func(_ context.Context, uid string) (domain.Profile, error) {
			p, ok := byUID[uid]
			if !ok {
				return domain.Profile{}, domain.ErrNotFound
			}
			return p, nil
		},
	}
}

func drivers(ds ...domain.Driver) *mockDriverRepo {
	byID := make(map[string]domain.Driver, len(ds))
	for _, d := range ds {
		byID[d.ID] = d
	}
	return &mockDriverRepo{
		getByID: func(_ context.Context, id string) (domain.Driver, error) {
			d, ok := byID[id]
			if !ok {
				return domain.Driver{}, domain.ErrNotFound
			}
			return d, nil
		},
	}
}

// scheduleStore is an in-memory schedule table backing mockScheduleRepo.
type scheduleStore struct {
	entries []domain.ScheduleEntry
}

func (s *scheduleStore) repo() *mockScheduleRepo {
	return &mockScheduleRepo{
		listByDriver: func(_ context.Context, driverID, _ string, r domain.ScheduleRange) ([]domain.ScheduleEntry, error) {
			var out []domain.ScheduleEntry
			for _, e := range s.entries {
				if e.DriverID != driverID {
					continue
				}
				if !r.Until.IsZero() && e.StartDate.After(r.Until) {
					continue
				}
				if !r.From.IsZero() && e.EndDate.Before(r.From) {
					continue
				}
				out = append(out, e)
			}
			return out, nil
		},
		getByID: func(_ context.Context, driverID string, id uuid.UUID) (domain.ScheduleEntry, error) {
			for _, e := range s.entries {
				if e.ID == id && e.DriverID == driverID {
					return e, nil
				}
			}
			return domain.ScheduleEntry{}, domain.ErrNotFound
		},
		create: func(_ context.Context, e domain.ScheduleEntry) (domain.ScheduleEntry, error) {
			e.ID = uuid.New()
			s.entries = append(s.entries, e)
			return e, nil
		},
		update: func(_ context.Context, e domain.ScheduleEntry) (domain.ScheduleEntry, error) {
			for i := range s.entries {
				if s.entries[i].ID == e.ID && s.entries[i].DriverID == e.DriverID {
					s.entries[i] = e
					return e, nil
				}
			}
			return domain.ScheduleEntry{}, domain.ErrNotFound
		},
		delete: func(_ context.Context, driverID string, id uuid.UUID) error {
			for i := range s.entries {
				if s.entries[i].ID == id && s.entries[i].DriverID == driverID {
					s.entries = append(s.entries[:i], s.entries[i+1:]...)
					return nil
				}
			}
			return domain.ErrNotFound
		},
	}
}

// tripStore is an in-memory trip table backing mockTripRepo.
type tripStore struct {
	trips []domain.Trip
}

func (s *tripStore) repo() *mockTripRepo {
	return &mockTripRepo{
		create: func(_ context.Context, t domain.Trip) (domain.Trip, error) {
			t.ID = uuid.New()
			t.CreatedAt = time.Now()
			s.trips = append(s.trips, t)
			return t, nil
		},
		getByID: func(_ context.Context, tenantID string, id uuid.UUID) (domain.Trip, error) {
			for _, t := range s.trips {
				if t.ID == id && t.TenantID == tenantID {
					return t, nil
				}
			}
			return domain.Trip{}, domain.ErrNotFound
		},
		countByDriverDay: func(_ context.Context, driverID string, day time.Time) (int, error) {
			n := 0
			for _, t := range s.trips {
				if t.DriverID == driverID && t.Day.Equal(day) {
					n++
				}
			}
			return n, nil
		},
		listByTenant: func(_ context.Context, tenantID string, from, to time.Time) ([]domain.Trip, error) {
			var out []domain.Trip
			for _, t := range s.trips {
				if t.TenantID == tenantID && !t.Date.Before(from) && t.Date.Before(to) {
					out = append(out, t)
				}
			}
			return out, nil
		},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(driverID string, from, to time.Time, status domain.ScheduleStatus) domain.ScheduleEntry {
	_, end := domain.DayBounds(to)
	return domain.ScheduleEntry{
		ID:        uuid.New(),
		DriverID:  driverID,
		StartDate: from,
		EndDate:   end,
		Status:    status,
	}
}
