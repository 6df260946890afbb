package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fleet-scheduler/internal/events"
)

func TestNop_Publish(t *testing.T) {
	var p events.Publisher = events.Nop{}

	assert.NoError(t, p.Publish(context.Background(), events.TopicTripCreated, "k", struct{}{}))
}

func TestTripCreated_JSONShape(t *testing.T) {
	ev := events.TripCreated{
		TripID:    "t1",
		TenantID:  "A",
		DriverID:  "d1",
		RouteID:   "r1",
		BusID:     "b1",
		State:     "programado",
		Date:      time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC),
		CreatedBy: "u1",
	}

	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "t1", m["trip_id"])
	assert.Equal(t, "d1", m["driver_id"])
	assert.Equal(t, "2024-03-11T08:00:00Z", m["date"])
}
