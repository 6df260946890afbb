package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fleet-scheduler/internal/domain"
	"github.com/pkordes/fleet-scheduler/internal/handler"
	"github.com/pkordes/fleet-scheduler/internal/middleware"
	"github.com/pkordes/fleet-scheduler/internal/service"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	create      func(ctx context.Context, uid string, req service.CreateTripRequest) (domain.Trip, error)
	listByMonth func(ctx context.Context, uid, tenantID string, year int, month time.Month) ([]domain.Trip, error)
	get         func(ctx context.Context, uid, tenantID string, id uuid.UUID) (domain.Trip, error)
}

func (m *mockTripServicer) Create(ctx context.Context, uid string, req service.CreateTripRequest) (domain.Trip, error) {
	return m.create(ctx, uid, req)
}
func (m *mockTripServicer) ListByMonth(ctx context.Context, uid, tenantID string, year int, month time.Month) ([]domain.Trip, error) {
	return m.listByMonth(ctx, uid, tenantID, year, month)
}
func (m *mockTripServicer) Get(ctx context.Context, uid, tenantID string, id uuid.UUID) (domain.Trip, error) {
	return m.get(ctx, uid, tenantID, id)
}

// compile-time check: mockTripServicer must satisfy handler.TripServicer.
var _ handler.TripServicer = (*mockTripServicer)(nil)

// ---- helpers ---------------------------------------------------------------

const testSecret = "handler-test-secret"

// newHTTPHandler wires a Server behind the JWT authenticator.
// This mirrors how main.go wires it in production.
func newHTTPHandler(t *testing.T, trips handler.TripServicer, schedules handler.ScheduleServicer) http.Handler {
	t.Helper()
	auth, err := middleware.NewAuthenticator(testSecret)
	require.NoError(t, err)
	return auth.Handler(handler.NewServer(trips, schedules, nil, nil).Routes())
}

// authed adds a bearer token for uid to req.
func authed(t *testing.T, req *http.Request, uid string) *http.Request {
	t.Helper()
	auth, err := middleware.NewAuthenticator(testSecret)
	require.NoError(t, err)
	token, err := auth.Sign(uid, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, body io.Reader) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error
}

func validTripBody() map[string]any {
	return map[string]any{
		"date":     "2024-03-11T09:00:00Z",
		"routeId":  "r-1",
		"busId":    "b-1",
		"driverId": "d-1",
		"state":    "programado",
		"tenantId": "A",
	}
}

// ---- POST /trips -----------------------------------------------------------

func TestCreateTrip_Returns201WithID(t *testing.T) {
	id := uuid.New()
	var gotUID string
	var gotReq service.CreateTripRequest
	svc := &mockTripServicer{
		create: func(_ context.Context, uid string, req service.CreateTripRequest) (domain.Trip, error) {
			gotUID, gotReq = uid, req
			return domain.Trip{ID: id}, nil
		},
	}
	h := newHTTPHandler(t, svc, nil)

	req := authed(t, httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, validTripBody())), "u-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%q}`, id), rec.Body.String())
	assert.Equal(t, "u-1", gotUID)
	assert.Equal(t, service.CreateTripRequest{
		Date: "2024-03-11T09:00:00Z", RouteID: "r-1", BusID: "b-1",
		DriverID: "d-1", State: "programado", TenantID: "A",
	}, gotReq)
}

// TestCreateTrip_UnauthenticatedBeforeValidation verifies that a request with
// no identity and a malformed body gets 401, not 400.
func TestCreateTrip_UnauthenticatedBeforeValidation(t *testing.T) {
	svc := &mockTripServicer{} // create is nil: any call panics
	h := newHTTPHandler(t, svc, nil)

	for name, body := range map[string]string{
		"malformed":  `{"date": 12`,
		"wrong type": `{"date": 12}`,
		"empty":      ``,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthenticated", decodeError(t, rec.Body).Code)
		})
	}
}

func TestCreateTrip_InvalidTokenIsUnauthenticated(t *testing.T) {
	h := newHTTPHandler(t, &mockTripServicer{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, validTripBody()))
	req.Header.Set("Authorization", "Bearer forged.token.value")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateTrip_BadBodies(t *testing.T) {
	cases := map[string]struct {
		body    string
		message string
	}{
		"malformed json": {`{"date":`, "malformed JSON body"},
		"wrong type":     {`{"date": 20240311}`, "field date must be a string"},
		"unknown field":  {`{"date": "2024-03-11", "color": "red"}`, `unknown field "color"`},
		"empty body":     {``, "request body is required"},
		"two objects":    {`{} {}`, "request body must contain a single JSON object"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHTTPHandler(t, &mockTripServicer{}, nil)

			req := authed(t, httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(tc.body)), "u-1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			detail := decodeError(t, rec.Body)
			assert.Equal(t, "invalid-argument", detail.Code)
			assert.Equal(t, tc.message, detail.Message)
		})
	}
}

// TestCreateTrip_MissingFieldsReachService verifies that absent fields are
// passed on as empty strings so the service reports them.
func TestCreateTrip_MissingFieldsReachService(t *testing.T) {
	svc := &mockTripServicer{
		create: func(_ context.Context, _ string, req service.CreateTripRequest) (domain.Trip, error) {
			assert.Empty(t, req.RouteID)
			return domain.Trip{}, domain.Errorf(domain.ErrInvalidArgument, "missing required fields: routeId")
		},
	}
	h := newHTTPHandler(t, svc, nil)

	body := validTripBody()
	delete(body, "routeId")
	req := authed(t, httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, body)), "u-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing required fields: routeId", decodeError(t, rec.Body).Message)
}

func TestCreateTrip_ErrorKindsMapToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.Errorf(domain.ErrPermissionDenied, "cannot create trips for another tenant"), http.StatusForbidden, "permission-denied"},
		{domain.Errorf(domain.ErrNotFound, "driver not found"), http.StatusNotFound, "not-found"},
		{domain.Errorf(domain.ErrFailedPrecondition, "driver not available on selected date"), http.StatusConflict, "failed-precondition"},
		{fmt.Errorf("service.TripService.Create: %w", errors.New("db down")), http.StatusInternalServerError, "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			svc := &mockTripServicer{
				create: func(context.Context, string, service.CreateTripRequest) (domain.Trip, error) {
					return domain.Trip{}, tc.err
				},
			}
			h := newHTTPHandler(t, svc, nil)

			req := authed(t, httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, validTripBody())), "u-1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			detail := decodeError(t, rec.Body)
			assert.Equal(t, tc.code, detail.Code)
			assert.Equal(t, domain.MessageOf(tc.err), detail.Message)
			assert.NotContains(t, detail.Message, "service.")
		})
	}
}

func TestCreateTrip_BodyTooLarge(t *testing.T) {
	h := middleware.NewMaxBodySizeHandler(32)(newHTTPHandler(t, &mockTripServicer{}, nil))

	req := authed(t, httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, validTripBody())), "u-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "request body too large", decodeError(t, rec.Body).Message)
}

// An anonymous caller with an oversized body still gets 401: the size limit
// only surfaces once the handler reads the body, after requireUser.
func TestCreateTrip_BodyTooLargeUnauthenticated(t *testing.T) {
	h := middleware.NewMaxBodySizeHandler(10)(newHTTPHandler(t, &mockTripServicer{}, nil))

	body := strings.Repeat("x", 100)
	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(body))
	req.ContentLength = int64(len(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decodeError(t, rec.Body).Code)
}

// ---- GET /trips ------------------------------------------------------------

func TestListTrips_Returns200WithTrips(t *testing.T) {
	trip := domain.Trip{
		ID:       uuid.New(),
		Date:     time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
		Day:      time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		RouteID:  "r-1",
		BusID:    "b-1",
		DriverID: "d-1",
		State:    domain.TripScheduled,
		TenantID: "A",
	}
	svc := &mockTripServicer{
		listByMonth: func(_ context.Context, uid, tenantID string, year int, month time.Month) ([]domain.Trip, error) {
			assert.Equal(t, "u-1", uid)
			assert.Equal(t, "A", tenantID)
			assert.Equal(t, 2024, year)
			assert.Equal(t, time.March, month)
			return []domain.Trip{trip}, nil
		},
	}
	h := newHTTPHandler(t, svc, nil)

	req := authed(t, httptest.NewRequest(http.MethodGet, "/trips?tenantId=A&year=2024&month=3", nil), "u-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []handler.Trip
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, trip.ID, got[0].ID)
	assert.Equal(t, "2024-03-11", got[0].Day.Format(time.DateOnly))
	assert.Equal(t, "programado", got[0].State)
}

func TestListTrips_EmptyListIsArray(t *testing.T) {
	svc := &mockTripServicer{
		listByMonth: func(context.Context, string, string, int, time.Month) ([]domain.Trip, error) {
			return nil, nil
		},
	}
	h := newHTTPHandler(t, svc, nil)

	req := authed(t, httptest.NewRequest(http.MethodGet, "/trips?year=2024&month=3", nil), "u-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListTrips_BadQuery(t *testing.T) {
	h := newHTTPHandler(t, &mockTripServicer{}, nil)

	for _, q := range []string{"", "?year=2024", "?year=abc&month=3", "?year=2024&month=march"} {
		t.Run(q, func(t *testing.T) {
			req := authed(t, httptest.NewRequest(http.MethodGet, "/trips"+q, nil), "u-1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListTrips_Unauthenticated(t *testing.T) {
	h := newHTTPHandler(t, &mockTripServicer{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips?year=2024&month=3", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ---- GET /trips/{tripId} ---------------------------------------------------

func TestGetTrip_Returns200(t *testing.T) {
	id := uuid.New()
	svc := &mockTripServicer{
		get: func(_ context.Context, uid, tenantID string, got uuid.UUID) (domain.Trip, error) {
			assert.Equal(t, "u-1", uid)
			assert.Equal(t, "B", tenantID)
			assert.Equal(t, id, got)
			return domain.Trip{
				ID:       id,
				Date:     time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
				Day:      time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
				DriverID: "d-1",
				State:    domain.TripScheduled,
				TenantID: "B",
			}, nil
		},
	}
	h := newHTTPHandler(t, svc, nil)

	req := authed(t, httptest.NewRequest(http.MethodGet, "/trips/"+id.String()+"?tenantId=B", nil), "u-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got handler.Trip
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "2024-03-11", got.Day.Format(time.DateOnly))
	assert.Equal(t, "programado", got.State)
}

func TestGetTrip_BadID(t *testing.T) {
	h := newHTTPHandler(t, &mockTripServicer{}, nil)

	req := authed(t, httptest.NewRequest(http.MethodGet, "/trips/not-a-uuid", nil), "u-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "tripId must be a UUID", decodeError(t, rec.Body).Message)
}

func TestGetTrip_NotFound(t *testing.T) {
	svc := &mockTripServicer{
		get: func(context.Context, string, string, uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, domain.Errorf(domain.ErrNotFound, "trip not found")
		},
	}
	h := newHTTPHandler(t, svc, nil)

	req := authed(t, httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString(), nil), "u-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "trip not found", decodeError(t, rec.Body).Message)
}

func TestGetTrip_Unauthenticated(t *testing.T) {
	h := newHTTPHandler(t, &mockTripServicer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/trips/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
