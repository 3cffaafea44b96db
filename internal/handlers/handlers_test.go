package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"partner-tracker/internal/backend"
	"partner-tracker/internal/logger"
	"partner-tracker/internal/models"
	"partner-tracker/internal/services"
	"partner-tracker/internal/tracking"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	state  models.UIState
	err    error
	calls  []string
	reason string
	events []models.Event
}

func (s *fakeSession) State() *models.UIState { return s.state.Clone() }
func (s *fakeSession) RecentEvents() []models.Event { return s.events }

func (s *fakeSession) call(name string) error {
	s.calls = append(s.calls, name)
	return s.err
}

func (s *fakeSession) GoOnline(ctx context.Context) error { return s.call("online") }
func (s *fakeSession) GoOffline(ctx context.Context) error { return s.call("offline") }
func (s *fakeSession) Retry(ctx context.Context) error { return s.call("retry") }
func (s *fakeSession) Accept(ctx context.Context) error { return s.call("accept") }
func (s *fakeSession) Deliver(ctx context.Context) error { return s.call("deliver") }
func (s *fakeSession) Arrive(ctx context.Context) error { return s.call("arrive") }
func (s *fakeSession) Finish(ctx context.Context) error { return s.call("finish") }

func (s *fakeSession) Reject(ctx context.Context, reason string) error {
	s.reason = reason
	return s.call("reject")
}

type fakeSink struct {
	fixes        []models.Position
	availability []models.AvailabilityUpdate
}

func (f *fakeSink) Publish(pos models.Position) { f.fixes = append(f.fixes, pos) }

func (f *fakeSink) SetAvailability(update models.AvailabilityUpdate) {
	f.availability = append(f.availability, update)
}

type fakeCounter struct {
	status *services.RejectionStatus
	resets int
}

func (c *fakeCounter) Status(ctx context.Context, driverID string) (*services.RejectionStatus, error) {
	return c.status, nil
}

func (c *fakeCounter) Reset(ctx context.Context, driverID string) error {
	c.resets++
	return nil
}

type fakeJournal struct {
	records []*models.TransitionRecord
}

func (j *fakeJournal) OrderHistory(ctx context.Context, orderID uuid.UUID) ([]*models.TransitionRecord, error) {
	var out []*models.TransitionRecord
	for _, r := range j.records {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (j *fakeJournal) Recent(ctx context.Context, driverID string, limit int) ([]*models.TransitionRecord, error) {
	return j.records, nil
}

type testServer struct {
	session *fakeSession
	sink    *fakeSink
	counter *fakeCounter
	journal *fakeJournal
	mux     *http.ServeMux
}

func newTestServer(checks map[string]Checker) *testServer {
	log := logger.Discard()
	ts := &testServer{
		session: &fakeSession{state: models.UIState{Online: true, Eligible: true}},
		sink:    &fakeSink{},
		counter: &fakeCounter{status: &services.RejectionStatus{Count: 1, Limit: 3, Remaining: 2}},
		journal: &fakeJournal{},
	}
	rt := &Router{
		Session:    NewSessionHandler(ts.session, log),
		Location:   NewLocationHandler(ts.sink, log),
		Health:     NewHealthHandler(checks),
		Rejections: NewRejectionHandler(ts.counter, "d1", log),
		Journal:    NewJournalHandler(ts.journal, "d1", log),
	}
	ts.mux = rt.Mux()
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func TestGetState(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(http.MethodGet, "/api/session/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var state models.UIState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.True(t, state.Online)
	assert.True(t, state.Eligible)
}

func TestSessionActions(t *testing.T) {
	ts := newTestServer(nil)

	paths := map[string]string{
		"/api/session/online":  "online",
		"/api/session/offline": "offline",
		"/api/session/retry":   "retry",
		"/api/orders/accept":   "accept",
		"/api/orders/deliver":  "deliver",
		"/api/orders/arrive":   "arrive",
		"/api/orders/finish":   "finish",
	}
	for path, action := range paths {
		t.Run(action, func(t *testing.T) {
			rec := ts.do(http.MethodPost, path, "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, action, ts.session.calls[len(ts.session.calls)-1])
		})
	}

	rec := ts.do(http.MethodGet, "/api/orders/accept", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRejectPassesReason(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(http.MethodPost, "/api/orders/reject", `{"reason":"too far"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "too far", ts.session.reason)

	rec = ts.do(http.MethodPost, "/api/orders/reject", `{"why":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{tracking.ErrInsufficientBalance, http.StatusForbidden},
		{tracking.ErrRejectionLimit, http.StatusForbidden},
		{tracking.ErrNoActiveOrder, http.StatusConflict},
		{tracking.ErrNoIncomingRequest, http.StatusConflict},
		{tracking.ErrNotStarted, http.StatusServiceUnavailable},
		{&backend.APIError{StatusCode: 422, Message: "Order already taken"}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			ts := newTestServer(nil)
			ts.session.err = tt.err

			rec := ts.do(http.MethodPost, "/api/session/online", "")
			assert.Equal(t, tt.code, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestPostFix(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(http.MethodPost, "/api/location", `{"lat":43.2389,"lon":76.8897,"bearing":90}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, ts.sink.fixes, 1)
	assert.Equal(t, 90.0, ts.sink.fixes[0].Bearing)

	for _, body := range []string{`{"lat":91,"lon":0}`, `{"lat":10,"lon":-181}`, `{}`, `not json`} {
		rec = ts.do(http.MethodPost, "/api/location", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Len(t, ts.sink.fixes, 1)
}

func TestPutAvailability(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(http.MethodPut, "/api/location/availability", `{"service_enabled":false,"permission_granted":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.sink.availability, 1)
	assert.False(t, ts.sink.availability[0].ServiceEnabled)
	assert.True(t, ts.sink.availability[0].PermissionGranted)
}

func TestGetEvents(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(http.MethodGet, "/api/session/events", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	ts.session.events = []models.Event{models.NewEvent(models.EventTypeAlert, "d1", models.AlertEvent{Code: "x"})}
	rec = ts.do(http.MethodGet, "/api/session/events", "")
	var events []map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, "session.alert", events[0]["type"])
}

func TestRejections(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(http.MethodGet, "/api/rejections", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var status services.RejectionStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, 2, status.Remaining)

	rec = ts.do(http.MethodDelete, "/api/rejections", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, ts.counter.resets)
}

func TestJournal(t *testing.T) {
	ts := newTestServer(nil)
	orderID := uuid.New()
	ts.journal.records = []*models.TransitionRecord{
		{ID: uuid.New(), DriverID: "d1", OrderID: orderID, NewStatus: models.OrderStatusAccepted, CreatedAt: time.Now()},
	}

	rec := ts.do(http.MethodGet, "/api/journal/orders/"+orderID.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/journal/orders/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/api/journal/orders/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/journal?limit=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(map[string]Checker{
		"redis":    func(ctx context.Context) error { return nil },
		"database": func(ctx context.Context) error { return errors.New("connection refused") },
	})

	rec := ts.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Services["redis"])
	assert.Contains(t, resp.Services["database"], "connection refused")

	rec = ts.do(http.MethodGet, "/health/readiness", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = ts.do(http.MethodGet, "/health/liveness", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/session/state", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/state", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
