// Package service contains the business logic for the fleet scheduling API.
// Services authorize the caller, validate inputs, enforce business rules, and
// orchestrate repo calls. No SQL lives here; services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkordes/fleet-scheduler/internal/domain"
	"github.com/pkordes/fleet-scheduler/internal/events"
	"github.com/pkordes/fleet-scheduler/internal/repo"
)

// Deps holds the collaborators shared by every service. It is built once in
// main and passed by value.
type Deps struct {
	Profiles  repo.ProfileRepo
	Drivers   repo.DriverRepo
	Schedules repo.ScheduleRepo
	Trips     repo.TripRepo
	Tx        repo.Transactor
	Audit     repo.AuditRepo
	Events    events.Publisher

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Location is the time zone calendar days are computed in. Defaults to UTC.
	Location *time.Location
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	return d
}

type ctxKey string

const clientIPKey ctxKey = "client_ip"

// WithClientIP returns a context carrying the caller's IP for audit entries.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// requireAuth rejects an empty uid.
func requireAuth(uid string) error {
	if strings.TrimSpace(uid) == "" {
		return domain.Errorf(domain.ErrUnauthenticated, "authentication required")
	}
	return nil
}

// loadProfile resolves the caller's profile. A caller without a profile is
// authenticated but has no rights, so a missing profile is PermissionDenied.
func (d Deps) loadProfile(ctx context.Context, uid, deniedMsg string) (domain.Profile, error) {
	p, err := d.Profiles.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Profile{}, domain.Errorf(domain.ErrPermissionDenied, "%s", deniedMsg)
		}
		return domain.Profile{}, err
	}
	return p, nil
}

// loadDriver fetches a driver, turning a missing row into a NotFound error
// with a caller-facing message.
func (d Deps) loadDriver(ctx context.Context, driverID string) (domain.Driver, error) {
	driver, err := d.Drivers.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Driver{}, domain.Errorf(domain.ErrNotFound, "driver not found")
		}
		return domain.Driver{}, err
	}
	return driver, nil
}

// record writes an audit entry. Failures are logged and swallowed; the audit
// log must never fail the operation it describes.
func (d Deps) record(ctx context.Context, caller domain.Profile, tenantID, module string, action domain.AuditAction, description string) {
	if d.Audit == nil {
		return
	}
	err := d.Audit.Record(ctx, domain.AuditEvent{
		UserID:      caller.UID,
		Role:        caller.Role,
		TenantID:    tenantID,
		Module:      module,
		Action:      action,
		Description: description,
		IP:          clientIP(ctx),
	})
	if err != nil {
		d.Logger.WarnContext(ctx, "audit record failed", "module", module, "action", action, "error", err)
	}
}

// publish hands an event to the publisher, logging failures.
func (d Deps) publish(ctx context.Context, topic, key string, event any) {
	if err := d.Events.Publish(ctx, topic, key, event); err != nil {
		d.Logger.WarnContext(ctx, "event publish failed", "topic", topic, "key", key, "error", err)
	}
}

// startOfDay returns midnight of t's calendar date in the service location.
// Only the date components of t are used, so a date parsed as UTC midnight
// keeps its day.
func (d Deps) startOfDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location)
}

// endOfDay returns 23:59:59.999 of t's calendar date in the service location.
func (d Deps) endOfDay(t time.Time) time.Time {
	_, end := domain.DayBounds(d.startOfDay(t))
	return end
}

// wrapOp prefixes err with the operation name, leaving nil untouched.
func wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
