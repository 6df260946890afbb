// Package events publishes domain events to Kafka. Publishing is
// fire-and-forget: delivery failures are logged, never returned to the
// request that produced the event.
package events

import (
	"context"
	"time"
)

// Well-known topic names.
const (
	TopicTripCreated     = "trip.created"
	TopicScheduleChanged = "driver.schedule.changed"
)

// TripCreated is published to trip.created after a trip is committed.
type TripCreated struct {
	TripID    string    `json:"trip_id"`
	TenantID  string    `json:"tenant_id"`
	DriverID  string    `json:"driver_id"`
	RouteID   string    `json:"route_id"`
	BusID     string    `json:"bus_id"`
	State     string    `json:"state"`
	Date      time.Time `json:"date"`
	CreatedBy string    `json:"created_by"`
}

// ScheduleChanged is published to driver.schedule.changed after a schedule
// entry is created, updated or deleted.
type ScheduleChanged struct {
	EntryID  string `json:"entry_id"`
	DriverID string `json:"driver_id"`
	TenantID string `json:"tenant_id"`
	Action   string `json:"action"`
	ActorID  string `json:"actor_id"`
}

// Publisher sends a JSON-serialisable event to a topic, keyed for partitioning.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// Nop discards every event. It is used when no brokers are configured.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, string, any) error { return nil }
