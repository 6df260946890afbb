package handler

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/fleet-scheduler/internal/domain"
	"github.com/pkordes/fleet-scheduler/internal/middleware"
	"github.com/pkordes/fleet-scheduler/internal/service"
)

// CreateTripPayload is the body of POST /trips. Fields are pointers so a
// missing field can be told apart from a mistyped one; presence is checked
// by the service.
type CreateTripPayload struct {
	Date     *string `json:"date"`
	RouteID  *string `json:"routeId"`
	BusID    *string `json:"busId"`
	DriverID *string `json:"driverId"`
	State    *string `json:"state"`
	TenantID *string `json:"tenantId"`
}

// CreateTripResponse is the body of a successful POST /trips.
type CreateTripResponse struct {
	ID uuid.UUID `json:"id"`
}

// Trip is the wire form of a trip.
type Trip struct {
	ID        uuid.UUID          `json:"id"`
	Date      time.Time          `json:"date"`
	Day       openapi_types.Date `json:"day"`
	RouteID   string             `json:"routeId"`
	BusID     string             `json:"busId"`
	DriverID  string             `json:"driverId"`
	State     string             `json:"state"`
	TenantID  string             `json:"tenantId"`
	CreatedAt time.Time          `json:"createdAt"`
}

// CreateTrip handles POST /trips.
// The caller must be authenticated before the body is even parsed, so an
// anonymous malformed request is reported as unauthenticated.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var p CreateTripPayload
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.trips.Create(requestContext(r), uid, p.toRequest())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateTripResponse{ID: created.ID})
}

// ListTrips handles GET /trips?tenantId=&year=&month=.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var (
		tenantID *string
		year     int
		month    int
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "tenantId", q, &tenantID); err != nil {
		s.writeError(w, r, domain.Errorf(domain.ErrInvalidArgument, "invalid query parameter tenantId"))
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "year", q, &year); err != nil {
		s.writeError(w, r, domain.Errorf(domain.ErrInvalidArgument, "query parameter year is required and must be an integer"))
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "month", q, &month); err != nil {
		s.writeError(w, r, domain.Errorf(domain.ErrInvalidArgument, "query parameter month is required and must be an integer"))
		return
	}

	tenant := ""
	if tenantID != nil {
		tenant = *tenantID
	}
	trips, err := s.trips.ListByMonth(r.Context(), uid, tenant, year, time.Month(month))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]Trip, len(trips))
	for i, t := range trips {
		out[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetTrip handles GET /trips/{tripId}?tenantId=.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "tripId", chi.URLParam(r, "tripId"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		s.writeError(w, r, domain.Errorf(domain.ErrInvalidArgument, "tripId must be a UUID"))
		return
	}
	var tenantID *string
	if err := runtime.BindQueryParameter("form", true, false, "tenantId", r.URL.Query(), &tenantID); err != nil {
		s.writeError(w, r, domain.Errorf(domain.ErrInvalidArgument, "invalid query parameter tenantId"))
		return
	}

	trip, err := s.trips.Get(r.Context(), uid, deref(tenantID), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// --- helpers ----------------------------------------------------------------

// requireUser returns the authenticated uid, or writes 401 and returns false.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := middleware.UserID(r.Context())
	if uid == "" {
		s.writeError(w, r, domain.Errorf(domain.ErrUnauthenticated, "authentication required"))
		return "", false
	}
	return uid, true
}

// requestContext attaches the client IP for audit entries.
func requestContext(r *http.Request) context.Context {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	return service.WithClientIP(r.Context(), ip)
}

func (p CreateTripPayload) toRequest() service.CreateTripRequest {
	return service.CreateTripRequest{
		Date:     deref(p.Date),
		RouteID:  deref(p.RouteID),
		BusID:    deref(p.BusID),
		DriverID: deref(p.DriverID),
		State:    deref(p.State),
		TenantID: deref(p.TenantID),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// tripToResponse converts a domain.Trip into its wire form.
func tripToResponse(t domain.Trip) Trip {
	return Trip{
		ID:        t.ID,
		Date:      t.Date,
		Day:       openapi_types.Date{Time: t.Day},
		RouteID:   t.RouteID,
		BusID:     t.BusID,
		DriverID:  t.DriverID,
		State:     string(t.State),
		TenantID:  t.TenantID,
		CreatedAt: t.CreatedAt,
	}
}
