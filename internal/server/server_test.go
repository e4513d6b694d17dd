package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/crypto/bcrypt"

	"parking-lot-billing/internal/auth"
	"parking-lot-billing/internal/parking"
)

var t0 = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	handler http.Handler
	lot     *parking.Lot
	clock   *time.Time
	issuer  *auth.Issuer
}

func newTestEnv(t *testing.T, capacity int) *testEnv {
	t.Helper()

	clock := t0
	now := func() time.Time { return clock }

	lot := parking.NewLot(parking.NewMemoryStore(), now)
	require.NoError(t, lot.Bootstrap(context.Background(), capacity, parking.DefaultRates))

	ipl, err := parking.NewInstrumentedLot(lot, noop.NewTracerProvider().Tracer("test"),
		metricnoop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	users, err := auth.NewDirectoryWithCost(auth.DefaultSeeds("admin123", "user123"), bcrypt.MinCost)
	require.NoError(t, err)
	issuer := auth.NewIssuer("test-secret", time.Hour, now)

	srv := NewServer(Options{
		Port:        "0",
		ServiceName: "parking-lot-test",
		Lot:         ipl,
		Users:       users,
		Issuer:      issuer,
		Now:         now,
	})
	return &testEnv{handler: srv.Handler(), lot: lot, clock: &clock, issuer: issuer}
}

func (e *testEnv) token(t *testing.T, role parking.Role) string {
	t.Helper()
	caller := parking.Caller{ID: "2", Username: "user", Role: role}
	if role == parking.RoleAdmin {
		caller = parking.Caller{ID: "1", Username: "admin", Role: role}
	}
	tok, _, err := e.issuer.Issue(caller)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)

	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func decodeData[T any](t *testing.T, resp Response) T {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "parking-lot-test", body["service"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, 1)

	w, resp := env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "admin", Password: "admin123"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decodeData[LoginResponse](t, resp)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.Equal(t, "admin", login.User.Role)

	caller, err := env.issuer.Verify(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, parking.RoleAdmin, caller.Role)

	w, resp = env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp.Success)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, 1)

	w, _ := env.do(t, http.MethodGet, "/api/parking-slots", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/parking-slots", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOnlyRoutes(t *testing.T) {
	env := newTestEnv(t, 1)
	user := env.token(t, parking.RoleUser)
	admin := env.token(t, parking.RoleAdmin)

	w, _ := env.do(t, http.MethodGet, "/api/users", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := env.do(t, http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]UserResponse](t, resp), 2)

	rate := 60.0
	w, _ = env.do(t, http.MethodPut, "/api/pricing/car", user, SetRateRequest{HourlyRate: &rate})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp = env.do(t, http.MethodPut, "/api/pricing/car", admin, SetRateRequest{HourlyRate: &rate})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, RateResponse{VehicleType: "car", HourlyRate: 60}, decodeData[RateResponse](t, resp))

	negative := -5.0
	w, _ = env.do(t, http.MethodPut, "/api/pricing/car", admin, SetRateRequest{HourlyRate: &negative})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPut, "/api/pricing/car", admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckInCheckOutFlow(t *testing.T) {
	env := newTestEnv(t, 3)
	tok := env.token(t, parking.RoleUser)

	w, resp := env.do(t, http.MethodPost, "/api/parking-slots/2/check-in", tok,
		CheckInRequest{PlateNumber: "KA01HH1234", VehicleType: "car"})
	require.Equal(t, http.StatusOK, w.Code)
	slot := decodeData[SlotResponse](t, resp)
	assert.True(t, slot.IsOccupied)
	require.NotNil(t, slot.Vehicle)
	assert.Equal(t, "KA01HH1234", slot.Vehicle.PlateNumber)

	w, _ = env.do(t, http.MethodPost, "/api/parking-slots/2/check-in", tok,
		CheckInRequest{PlateNumber: "OTHER", VehicleType: "car"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, resp = env.do(t, http.MethodGet, "/api/vehicles/KA01HH1234", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeData[SlotResponse](t, resp).SlotNumber)

	w, resp = env.do(t, http.MethodGet, "/api/parking-slots", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decodeData[StatusResponse](t, resp)
	assert.Equal(t, 3, status.Capacity)
	assert.Equal(t, 1, status.Occupied)
	assert.Equal(t, 2, status.Available)
	assert.Len(t, status.Slots, 3)

	*env.clock = t0.Add(2 * time.Hour)
	w, resp = env.do(t, http.MethodPost, "/api/parking-slots/2/check-out", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeData[CheckOutResponse](t, resp)
	assert.True(t, out.RateFound)
	assert.InDelta(t, 2.0, out.Transaction.Duration, 1e-9)
	assert.InDelta(t, 100.0, out.Transaction.Cost, 1e-9)

	w, _ = env.do(t, http.MethodPost, "/api/parking-slots/2/check-out", tok, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, resp = env.do(t, http.MethodGet, "/api/transactions", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]TransactionResponse](t, resp), 1)
}

func TestSlotErrors(t *testing.T) {
	env := newTestEnv(t, 1)
	tok := env.token(t, parking.RoleUser)

	w, _ := env.do(t, http.MethodGet, "/api/parking-slots/9", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/parking-slots/abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/parking-slots/1/check-in", tok, CheckInRequest{VehicleType: "car"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/vehicles/NOPE", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReservationRoutes(t *testing.T) {
	env := newTestEnv(t, 2)
	tok := env.token(t, parking.RoleUser)

	w, resp := env.do(t, http.MethodPost, "/api/reservations", tok, ReservationRequest{
		PlateNumber: "KA01HH1234", VehicleType: "car", SlotID: 1, Date: "2024-03-05T09:00",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeData[ReservationResponse](t, resp)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "user", created.Username)
	assert.Equal(t, "2", created.RequesterID)

	w, _ = env.do(t, http.MethodPost, "/api/reservations", tok, ReservationRequest{
		PlateNumber: "KA01HH1234", SlotID: 1, Date: "someday",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/reservations", tok, ReservationRequest{
		PlateNumber: "KA01HH1234", SlotID: 99, Date: "2024-03-05",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = env.do(t, http.MethodPut, "/api/reservations/1", tok, UpdateReservationRequest{Status: "completed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decodeData[ReservationResponse](t, resp).Status)

	w, _ = env.do(t, http.MethodPut, "/api/reservations/1", tok, UpdateReservationRequest{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPut, "/api/reservations/77", tok, UpdateReservationRequest{Status: "confirmed"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = env.do(t, http.MethodGet, "/api/reservations", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]ReservationResponse](t, resp), 1)
}

func TestPricingList(t *testing.T) {
	env := newTestEnv(t, 1)

	w, resp := env.do(t, http.MethodGet, "/api/pricing", env.token(t, parking.RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	rates := decodeData[[]RateResponse](t, resp)
	require.Len(t, rates, 4)
	assert.Equal(t, "car", rates[0].VehicleType)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, 1)
	env.do(t, http.MethodGet, "/api/pricing", env.token(t, parking.RoleUser), nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `parking_http_requests_total{method="GET",route="/api/pricing",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, 1)

	req := httptest.NewRequest(http.MethodOptions, "/api/pricing", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
