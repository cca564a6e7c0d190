package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barberbook/internal/booking"
	"barberbook/internal/database"
	"barberbook/internal/models"
	"barberbook/internal/notify"
	"barberbook/internal/schedule"
)

type nopNotifier struct{}

func (nopNotifier) Enqueue(notify.Message) bool { return true }

type testEnv struct {
	srv       *httptest.Server
	db        *database.DB
	barberID  int64
	serviceID int64
}

// 2026-03-02 is a Monday.
const monday = "2026-03-02"

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	barberID, err := db.CreateBarber(ctx, &models.Barber{Name: "Sam", ChatID: 500, PayoutAccount: "acct_1"})
	require.NoError(t, err)
	serviceID, err := db.CreateService(ctx, &models.Service{
		BarberID: barberID,
		Name:     "Haircut",
		Price:    25,
		WeeklySchedule: map[models.Day][]string{
			models.Monday: {"09:00", "10:00", "11:00"},
		},
	})
	require.NoError(t, err)

	resolver := schedule.New(db, db, db, &logger)
	bookingSvc := booking.NewService(db, resolver, nopNotifier{}, &logger)
	server := NewHTTPServer(":0", bookingSvc, resolver, db, &logger)

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, db: db, barberID: barberID, serviceID: serviceID}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (e *testEnv) createReservation(t *testing.T, slot string) models.Reservation {
	t.Helper()
	resp, _ := e.do(t, http.MethodPost, "/api/reservations", map[string]any{
		"customer_id": 7,
		"service_id":  e.serviceID,
		"date":        monday,
		"time_slot":   slot,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var r models.Reservation
	resp2, err := http.Get(e.srv.URL + "/api/reservations?service_id=" + fmt.Sprint(e.serviceID))
	require.NoError(t, err)
	defer resp2.Body.Close()
	var list struct {
		Reservations []models.Reservation `json:"reservations"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&list))
	for _, res := range list.Reservations {
		if res.TimeSlot == slot {
			r = res
		}
	}
	require.NotZero(t, r.ID)
	return r
}

func TestCreateReservationEndpoint(t *testing.T) {
	e := setupTestServer(t)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{
			name: "created",
			body: map[string]any{
				"customer_id": 7, "service_id": e.serviceID,
				"date": monday, "time_slot": "10:00",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "duplicate slot conflicts",
			body: map[string]any{
				"customer_id": 8, "service_id": e.serviceID,
				"date": monday, "time_slot": "10:00",
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "slot outside schedule",
			body: map[string]any{
				"customer_id": 7, "service_id": e.serviceID,
				"date": monday, "time_slot": "23:00",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown service",
			body: map[string]any{
				"customer_id": 7, "service_id": 999,
				"date": monday, "time_slot": "09:00",
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "missing fields",
			body:       map[string]any{"customer_id": 7},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := e.do(t, http.MethodPost, "/api/reservations", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestReservationLifecycleEndpoints(t *testing.T) {
	e := setupTestServer(t)
	r := e.createReservation(t, "09:00")
	path := fmt.Sprintf("/api/reservations/%d", r.ID)

	resp, _ := e.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPatch, path+"/status", map[string]any{"status": "accepted", "actor": "barber:1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, path+"/cancel-request", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPatch, path+"/status", map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Terminal state rejects everything else.
	resp, _ = e.do(t, http.MethodPatch, path+"/status", map[string]any{"status": "canceled"})
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/reservations/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCompletionRequiresPayoutAccount(t *testing.T) {
	e := setupTestServer(t)
	require.NoError(t, e.db.SetPayoutAccount(context.Background(), e.barberID, ""))

	r := e.createReservation(t, "09:00")
	path := fmt.Sprintf("/api/reservations/%d/status", r.ID)

	resp, _ := e.do(t, http.MethodPatch, path, map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPatch, path, map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
}

func TestAvailabilityEndpoint(t *testing.T) {
	e := setupTestServer(t)
	e.createReservation(t, "10:00")

	base := fmt.Sprintf("/api/services/%d/available-slots", e.serviceID)

	resp, body := e.do(t, http.MethodGet, base+"?date="+monday, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var slots []string
	require.NoError(t, json.Unmarshal(body["slots"], &slots))
	assert.Equal(t, []string{"09:00", "11:00"}, slots)

	resp, body = e.do(t, http.MethodGet, base+"?date=2026-03-01&days=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var days []schedule.DayAvailability
	require.NoError(t, json.Unmarshal(body["days"], &days))
	require.Len(t, days, 3)
	assert.Equal(t, monday, days[1].Date)

	resp, _ = e.do(t, http.MethodGet, base+"?date=bad-date", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, base+"?date="+monday+"&days=500", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/services/999/available-slots?date="+monday, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReservationAvailabilityEndpoint(t *testing.T) {
	e := setupTestServer(t)
	r := e.createReservation(t, "10:00")

	path := fmt.Sprintf("/api/reservations/%d/available-slots", r.ID)

	// Defaults to the reservation's own date; the booked slot is excluded.
	resp, body := e.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var slots []string
	require.NoError(t, json.Unmarshal(body["slots"], &slots))
	assert.Equal(t, []string{"09:00", "11:00"}, slots)

	resp, body = e.do(t, http.MethodGet, path+"?date=2026-03-09", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body["slots"], &slots))
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, slots)

	resp, _ = e.do(t, http.MethodGet, path+"?date=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShopScheduleEndpoints(t *testing.T) {
	e := setupTestServer(t)

	resp, _ := e.do(t, http.MethodGet, fmt.Sprintf("/api/shop-schedule?barber_id=%d", e.barberID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "never configured")

	resp, _ = e.do(t, http.MethodPatch, "/api/shop-schedule", map[string]any{
		"barber_id":      e.barberID,
		"weekly_closure": map[string]bool{"Monday": true, "sunday": true},
		"notes":          "short hours in winter",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := e.do(t, http.MethodGet, fmt.Sprintf("/api/shop-schedule?barber_id=%d", e.barberID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var weekly map[models.Day]bool
	require.NoError(t, json.Unmarshal(body["weekly_closure"], &weekly))
	assert.True(t, weekly[models.Monday])

	// Shop closure now blocks Monday bookings. The slot is not contended, so
	// the rejection is a bad request rather than a conflict.
	resp, _ = e.do(t, http.MethodPost, "/api/reservations", map[string]any{
		"customer_id": 7, "service_id": e.serviceID, "date": monday, "time_slot": "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPatch, "/api/shop-schedule", map[string]any{
		"barber_id":      e.barberID,
		"weekly_closure": map[string]bool{"noday": true},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTemporaryClosureEndpoints(t *testing.T) {
	e := setupTestServer(t)

	resp, _ := e.do(t, http.MethodPost, "/api/shop-schedule/temporary-closure", map[string]any{
		"barber_id": e.barberID, "date": monday,
		"affected_slots": []string{"09:00"}, "reason": "late open",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := e.do(t, http.MethodPost, "/api/reservations", map[string]any{
		"customer_id": 7, "service_id": e.serviceID, "date": monday, "time_slot": "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body["error"]), "late open", "closure reason surfaces in the rejection")

	resp, _ = e.do(t, http.MethodDelete, "/api/shop-schedule/temporary-closure", map[string]any{
		"barber_id": e.barberID, "date": monday,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/api/reservations", map[string]any{
		"customer_id": 7, "service_id": e.serviceID, "date": monday, "time_slot": "09:00",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = e.do(t, http.MethodDelete, "/api/shop-schedule/temporary-closure", map[string]any{
		"barber_id": e.barberID, "date": "2026-04-01",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Whole-day closure rejects slot-list removal.
	resp, _ = e.do(t, http.MethodPost, "/api/shop-schedule/temporary-closure", map[string]any{
		"barber_id": e.barberID, "date": "2026-03-09",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = e.do(t, http.MethodDelete, "/api/shop-schedule/temporary-closure", map[string]any{
		"barber_id": e.barberID, "date": "2026-03-09", "slots_to_remove": []string{"09:00"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
