package domain

import "time"

// Availability is the verdict for one driver on one calendar day.
type Availability string

const (
	AvailabilityAvailable Availability = "DISPONIBLE"
	AvailabilityOnLeave   Availability = "DESCANSO"
	AvailabilityUndefined Availability = "SIN_DEFINIR"
)

// DayAvailability is one cell of an availability calendar.
type DayAvailability struct {
	Date   time.Time
	Status Availability
}

// DayBounds returns midnight and 23:59:59.999 of t's calendar day in t's location.
func DayBounds(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end = time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
	return start, end
}

// Covers reports whether the entry overlaps the window [dayStart, dayEnd].
// Entries with a missing bound never cover anything, and neither do inverted
// ranges.
func (e ScheduleEntry) Covers(dayStart, dayEnd time.Time) bool {
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return false
	}
	if e.EndDate.Before(e.StartDate) {
		return false
	}
	return !e.StartDate.After(dayEnd) && !e.EndDate.Before(dayStart)
}

// EvaluateAvailability reduces a driver's schedule entries to a verdict for
// the calendar day containing target.
//
// A single covering DESCANSO entry wins over any number of DISPONIBLE ones.
// Input order does not matter. No covering entry yields SIN_DEFINIR, which
// callers treat as not available.
func EvaluateAvailability(entries []ScheduleEntry, target time.Time) Availability {
	dayStart, dayEnd := DayBounds(target)

	available := false
	for _, e := range entries {
		if !e.Covers(dayStart, dayEnd) {
			continue
		}
		switch e.Status {
		case ScheduleOnLeave:
			return AvailabilityOnLeave
		case ScheduleAvailable:
			available = true
		}
	}

	if available {
		return AvailabilityAvailable
	}
	return AvailabilityUndefined
}

// AvailabilityCalendar evaluates every calendar day from from through to,
// inclusive, in from's location. It returns nil when to is before from.
func AvailabilityCalendar(entries []ScheduleEntry, from, to time.Time) []DayAvailability {
	first, _ := DayBounds(from)
	last, _ := DayBounds(to.In(from.Location()))
	if last.Before(first) {
		return nil
	}

	var out []DayAvailability
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		out = append(out, DayAvailability{Date: day, Status: EvaluateAvailability(entries, day)})
	}
	return out
}
