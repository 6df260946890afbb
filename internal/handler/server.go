// Package handler implements the HTTP handlers for the fleet scheduling API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, schedule.go) but share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/fleet-scheduler/internal/domain"
	"github.com/pkordes/fleet-scheduler/internal/service"
)

// TripServicer defines the trip operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, uid string, req service.CreateTripRequest) (domain.Trip, error)
	ListByMonth(ctx context.Context, uid, tenantID string, year int, month time.Month) ([]domain.Trip, error)
	Get(ctx context.Context, uid, tenantID string, id uuid.UUID) (domain.Trip, error)
}

// ScheduleServicer defines the schedule and availability operations.
type ScheduleServicer interface {
	List(ctx context.Context, uid, driverID string, from, to time.Time) ([]domain.ScheduleEntry, error)
	Create(ctx context.Context, uid string, e domain.ScheduleEntry) (domain.ScheduleEntry, error)
	Update(ctx context.Context, uid string, e domain.ScheduleEntry) (domain.ScheduleEntry, error)
	Delete(ctx context.Context, uid, driverID string, id uuid.UUID) error
	Availability(ctx context.Context, uid, driverID string, from, to time.Time) ([]domain.DayAvailability, error)
}

// Pinger reports whether the database is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies shared by every handler.
type Server struct {
	trips     TripServicer
	schedules ScheduleServicer
	db        Pinger
	log       *slog.Logger
}

// NewServer constructs the Server. db and log may be nil; a nil db makes
// /healthz report ok without checking the database.
func NewServer(trips TripServicer, schedules ScheduleServicer, db Pinger, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{trips: trips, schedules: schedules, db: db, log: log}
}

// Routes returns a router with every API endpoint registered.
// Global middleware (request IDs, auth, logging) is applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.CreateTrip)
		r.Get("/", s.ListTrips)
		r.Get("/{tripId}", s.GetTrip)
	})

	r.Route("/drivers/{driverId}", func(r chi.Router) {
		r.Get("/schedules", s.ListSchedules)
		r.Post("/schedules", s.CreateSchedule)
		r.Put("/schedules/{scheduleId}", s.UpdateSchedule)
		r.Delete("/schedules/{scheduleId}", s.DeleteSchedule)
		r.Get("/availability", s.GetAvailability)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not-found", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("invalid-argument", "method not allowed"))
	})

	return r
}
