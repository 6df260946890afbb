package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleStatus tags a schedule entry as working or on leave.
type ScheduleStatus string

const (
	ScheduleAvailable ScheduleStatus = "DISPONIBLE"
	ScheduleOnLeave   ScheduleStatus = "DESCANSO"
)

// Valid reports whether s is a known schedule status.
func (s ScheduleStatus) Valid() bool {
	return s == ScheduleAvailable || s == ScheduleOnLeave
}

// ScheduleEntry is an inclusive date range in a driver's schedule.
// TenantID is copied from the driver when the entry is written and may be
// empty for entries created before tenants existed.
type ScheduleEntry struct {
	ID         uuid.UUID
	DriverID   string
	TenantID   string
	StartDate  time.Time
	EndDate    time.Time
	Status     ScheduleStatus
	Reason     string
	ApprovedBy string
	CreatedAt  time.Time
}

// ScheduleRange bounds a schedule query. Entries are returned when they start
// on or before Until and end on or after From. A zero bound is open.
type ScheduleRange struct {
	From  time.Time
	Until time.Time
}
