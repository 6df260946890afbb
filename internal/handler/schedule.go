package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/fleet-scheduler/internal/domain"
)

// SchedulePayload is the body of POST and PUT on a driver's schedules.
type SchedulePayload struct {
	StartDate  *openapi_types.Date `json:"startDate"`
	EndDate    *openapi_types.Date `json:"endDate"`
	Status     *string             `json:"status"`
	Reason     *string             `json:"reason"`
	ApprovedBy *string             `json:"approvedBy"`
}

// ScheduleEntry is the wire form of a schedule entry.
type ScheduleEntry struct {
	ID         uuid.UUID          `json:"id"`
	DriverID   string             `json:"driverId"`
	TenantID   string             `json:"tenantId,omitempty"`
	StartDate  openapi_types.Date `json:"startDate"`
	EndDate    openapi_types.Date `json:"endDate"`
	Status     string             `json:"status"`
	Reason     string             `json:"reason,omitempty"`
	ApprovedBy string             `json:"approvedBy,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// DayAvailability is one day of GET /drivers/{driverId}/availability.
type DayAvailability struct {
	Date   openapi_types.Date `json:"date"`
	Status string             `json:"status"`
}

// ListSchedules handles GET /drivers/{driverId}/schedules?from=&to=.
func (s *Server) ListSchedules(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	driverID, ok := s.driverParam(w, r)
	if !ok {
		return
	}
	from, to, ok := s.dateRangeParams(w, r, false)
	if !ok {
		return
	}

	entries, err := s.schedules.List(r.Context(), uid, driverID, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]ScheduleEntry, len(entries))
	for i, e := range entries {
		out[i] = scheduleToResponse(e)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateSchedule handles POST /drivers/{driverId}/schedules.
func (s *Server) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	driverID, ok := s.driverParam(w, r)
	if !ok {
		return
	}

	var p SchedulePayload
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.schedules.Create(requestContext(r), uid, p.toEntry(driverID, uuid.Nil))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, scheduleToResponse(created))
}

// UpdateSchedule handles PUT /drivers/{driverId}/schedules/{scheduleId}.
func (s *Server) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	driverID, ok := s.driverParam(w, r)
	if !ok {
		return
	}
	id, ok := s.scheduleIDParam(w, r)
	if !ok {
		return
	}

	var p SchedulePayload
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.schedules.Update(requestContext(r), uid, p.toEntry(driverID, id))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleToResponse(updated))
}

// DeleteSchedule handles DELETE /drivers/{driverId}/schedules/{scheduleId}.
func (s *Server) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	driverID, ok := s.driverParam(w, r)
	if !ok {
		return
	}
	id, ok := s.scheduleIDParam(w, r)
	if !ok {
		return
	}

	if err := s.schedules.Delete(requestContext(r), uid, driverID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAvailability handles GET /drivers/{driverId}/availability?from=[&to=].
func (s *Server) GetAvailability(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	driverID, ok := s.driverParam(w, r)
	if !ok {
		return
	}
	from, to, ok := s.dateRangeParams(w, r, true)
	if !ok {
		return
	}

	days, err := s.schedules.Availability(r.Context(), uid, driverID, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]DayAvailability, len(days))
	for i, d := range days {
		out[i] = DayAvailability{Date: openapi_types.Date{Time: d.Date}, Status: string(d.Status)}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- parameter binding ------------------------------------------------------

func (s *Server) driverParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var driverID string
	err := runtime.BindStyledParameterWithOptions("simple", "driverId", chi.URLParam(r, "driverId"), &driverID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil || driverID == "" {
		s.writeError(w, r, domain.Errorf(domain.ErrInvalidArgument, "invalid path parameter driverId"))
		return "", false
	}
	return driverID, true
}

func (s *Server) scheduleIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "scheduleId", chi.URLParam(r, "scheduleId"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		s.writeError(w, r, domain.Errorf(domain.ErrInvalidArgument, "scheduleId must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// dateRangeParams binds the optional from and to query parameters
// (YYYY-MM-DD). Absent values come back as zero times.
func (s *Server) dateRangeParams(w http.ResponseWriter, r *http.Request, fromRequired bool) (from, to time.Time, ok bool) {
	var fromParam, toParam *openapi_types.Date
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, fromRequired, "from", q, &fromParam); err != nil {
		s.writeError(w, r, domain.Errorf(domain.ErrInvalidArgument, "query parameter from must be a date (YYYY-MM-DD)"))
		return time.Time{}, time.Time{}, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "to", q, &toParam); err != nil {
		s.writeError(w, r, domain.Errorf(domain.ErrInvalidArgument, "query parameter to must be a date (YYYY-MM-DD)"))
		return time.Time{}, time.Time{}, false
	}
	if fromParam != nil {
		from = fromParam.Time
	}
	if toParam != nil {
		to = toParam.Time
	}
	return from, to, true
}

// --- mapping helpers --------------------------------------------------------

func (p SchedulePayload) toEntry(driverID string, id uuid.UUID) domain.ScheduleEntry {
	e := domain.ScheduleEntry{
		ID:         id,
		DriverID:   driverID,
		Status:     domain.ScheduleStatus(deref(p.Status)),
		Reason:     deref(p.Reason),
		ApprovedBy: deref(p.ApprovedBy),
	}
	if p.StartDate != nil {
		e.StartDate = p.StartDate.Time
	}
	if p.EndDate != nil {
		e.EndDate = p.EndDate.Time
	}
	return e
}

func scheduleToResponse(e domain.ScheduleEntry) ScheduleEntry {
	return ScheduleEntry{
		ID:         e.ID,
		DriverID:   e.DriverID,
		TenantID:   e.TenantID,
		StartDate:  openapi_types.Date{Time: e.StartDate},
		EndDate:    openapi_types.Date{Time: e.EndDate},
		Status:     string(e.Status),
		Reason:     e.Reason,
		ApprovedBy: e.ApprovedBy,
		CreatedAt:  e.CreatedAt,
	}
}
