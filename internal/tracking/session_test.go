package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"partner-tracker/internal/backend"
	"partner-tracker/internal/location"
	"partner-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu          sync.Mutex
	balance     float64
	order       *models.Order
	orderErr    error
	walletErr   error
	summaryErr  error
	actionErr   error
	transitions []backend.Action
	polls       int
	summaries   int
	walletCalls int
}

func (b *fakeBackend) CurrentOrder(ctx context.Context) (*models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls++
	if b.orderErr != nil {
		return nil, b.orderErr
	}
	return b.order.Clone(), nil
}

func (b *fakeBackend) Transition(ctx context.Context, orderID uuid.UUID, action backend.Action, reason string) (*models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.actionErr != nil {
		return nil, b.actionErr
	}
	if b.order == nil || b.order.ID != orderID {
		return nil, backend.ErrNotFound
	}
	b.transitions = append(b.transitions, action)

	statuses := map[backend.Action]models.OrderStatus{
		backend.ActionAccept:  models.OrderStatusAccepted,
		backend.ActionReject:  models.OrderStatusRejected,
		backend.ActionDeliver: models.OrderStatusOnRoute,
		backend.ActionArrive:  models.OrderStatusArrived,
		backend.ActionFinish:  models.OrderStatusFinished,
	}
	b.order.Status = statuses[action]
	updated := b.order.Clone()
	if b.order.Status.IsTerminal() {
		b.order = nil
	}
	return updated, nil
}

func (b *fakeBackend) WalletBalance(ctx context.Context) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.walletCalls++
	if b.walletErr != nil {
		return 0, b.walletErr
	}
	return b.balance, nil
}

func (b *fakeBackend) DriverSummary(ctx context.Context) (*models.DriverSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summaries++
	if b.summaryErr != nil {
		return nil, b.summaryErr
	}
	return &models.DriverSummary{Balance: b.balance, TodayOrders: 4}, nil
}

// restore снимает все ошибки платформы
func (b *fakeBackend) restore() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orderErr, b.walletErr, b.summaryErr, b.actionErr = nil, nil, nil, nil
}

func (b *fakeBackend) pollCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.polls
}

type fakeRouter struct {
	mu    sync.Mutex
	calls []models.Point
	err   error
}

func (r *fakeRouter) Directions(ctx context.Context, origin, dest models.Point) (*models.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, origin)
	if r.err != nil {
		return nil, r.err
	}
	return &models.Route{Polyline: []models.Point{origin, dest}}, nil
}

type fakeJournal struct {
	mu      sync.Mutex
	records []*models.TransitionRecord
}

func (j *fakeJournal) Record(ctx context.Context, rec *models.TransitionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *fakeCounter) Record(ctx context.Context, driverID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[driverID]++
	return c.counts[driverID], nil
}

func (c *fakeCounter) Count(ctx context.Context, driverID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[driverID], nil
}

func requestingOrder() *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		Status:      models.OrderStatusRequesting,
		Pickup:      models.Point{Lat: 43.2389, Lon: 76.8897},
		Destination: models.Point{Lat: 43.2567, Lon: 76.9286},
	}
}

func startSession(t *testing.T, opts Options, deps Deps) *Session {
	t.Helper()
	if opts.Driver == nil {
		opts.Driver = &models.Driver{ID: "driver-1", Role: models.RoleDriver, VehicleType: models.VehicleMotorcycle}
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Hour
	}
	s := NewSession(opts, deps)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)
	return s
}

func alerts(s *Session, code string) int {
	n := 0
	for _, e := range s.RecentEvents() {
		if a, ok := e.Data.(models.AlertEvent); ok && e.Type == models.EventTypeAlert && a.Code == code {
			n++
		}
	}
	return n
}

func TestGoOnlineBelowMinimum(t *testing.T) {
	be := &fakeBackend{balance: 9999}
	s := startSession(t, Options{}, Deps{Backend: be, Router: &fakeRouter{}})

	err := s.GoOnline(context.Background())
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	state := s.State()
	assert.False(t, state.Online)
	assert.False(t, state.Polling)
	assert.False(t, state.Eligible)
	assert.Equal(t, 10000.0, state.MinimumBalance)
	assert.Equal(t, 0, be.pollCount())
	assert.Equal(t, 1, alerts(s, models.AlertInsufficientBalance))
}

func TestGoOnlineCarMinimum(t *testing.T) {
	be := &fakeBackend{balance: 15000}
	driver := &models.Driver{ID: "car-1", VehicleType: models.VehicleCar}
	s := startSession(t, Options{Driver: driver}, Deps{Backend: be, Router: &fakeRouter{}})

	assert.ErrorIs(t, s.GoOnline(context.Background()), ErrInsufficientBalance)
	assert.Equal(t, 20000.0, s.State().MinimumBalance)
	assert.Equal(t, 0, be.pollCount())
}

func TestGoOnlineStartsPolling(t *testing.T) {
	be := &fakeBackend{balance: 50000}
	s := startSession(t, Options{PollInterval: 10 * time.Millisecond}, Deps{Backend: be, Router: &fakeRouter{}})

	require.NoError(t, s.GoOnline(context.Background()))

	state := s.State()
	assert.True(t, state.Online)
	assert.True(t, state.Polling)
	assert.Nil(t, state.ActiveOrder)

	assert.Eventually(t, func() bool { return be.pollCount() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestPollErrorKeepsPolling(t *testing.T) {
	be := &fakeBackend{balance: 50000, orderErr: &backend.APIError{StatusCode: 502, Message: "upstream unavailable"}}
	s := startSession(t, Options{}, Deps{Backend: be, Router: &fakeRouter{}})

	require.NoError(t, s.GoOnline(context.Background()))

	state := s.State()
	require.NotNil(t, state.Error)
	assert.True(t, state.Error.Retryable)
	assert.Equal(t, "upstream unavailable", state.Error.Message)
	assert.True(t, state.Polling)

	be.mu.Lock()
	be.orderErr = nil
	be.mu.Unlock()

	require.NoError(t, s.Retry(context.Background()))
	assert.Nil(t, s.State().Error)
}

func TestOrderLifecycle(t *testing.T) {
	order := requestingOrder()
	be := &fakeBackend{balance: 50000, order: order}
	router := &fakeRouter{}
	journal := &fakeJournal{}
	s := startSession(t, Options{}, Deps{Backend: be, Router: router, Journal: journal})
	ctx := context.Background()

	require.NoError(t, s.GoOnline(ctx))
	state := s.State()
	require.NotNil(t, state.IncomingRequest)
	assert.Nil(t, state.ActiveOrder)
	assert.False(t, state.Polling)

	require.NoError(t, s.Accept(ctx))
	state = s.State()
	require.NotNil(t, state.ActiveOrder)
	assert.Equal(t, models.OrderStatusAccepted, state.ActiveOrder.Status)
	assert.Nil(t, state.IncomingRequest)
	// без фикса маршрут до точки подачи ждет первую позицию
	assert.Nil(t, state.Route)

	require.NoError(t, s.Deliver(ctx))
	state = s.State()
	require.NotNil(t, state.Route)
	assert.Equal(t, models.LegDestination, state.Route.Leg)
	assert.Equal(t, order.Pickup, router.calls[len(router.calls)-1])

	require.NoError(t, s.Finish(ctx))
	state = s.State()
	assert.Nil(t, state.ActiveOrder)
	assert.Nil(t, state.Route)
	assert.True(t, state.Polling)
	assert.True(t, state.Eligible)

	be.mu.Lock()
	assert.Equal(t, []backend.Action{backend.ActionAccept, backend.ActionDeliver, backend.ActionFinish}, be.transitions)
	be.mu.Unlock()

	journal.mu.Lock()
	defer journal.mu.Unlock()
	require.Len(t, journal.records, 4)
	assert.Equal(t, models.OrderStatusRequesting, journal.records[0].NewStatus)
	assert.Equal(t, models.OrderStatusFinished, journal.records[3].NewStatus)
	assert.Equal(t, models.OrderStatusOnRoute, journal.records[3].OldStatus)
}

func TestActionsRequireOrder(t *testing.T) {
	be := &fakeBackend{balance: 50000}
	s := startSession(t, Options{}, Deps{Backend: be, Router: &fakeRouter{}})
	ctx := context.Background()

	assert.ErrorIs(t, s.Accept(ctx), ErrNoIncomingRequest)
	assert.ErrorIs(t, s.Reject(ctx, "busy"), ErrNoIncomingRequest)
	assert.ErrorIs(t, s.Deliver(ctx), ErrNoActiveOrder)
	assert.ErrorIs(t, s.Finish(ctx), ErrNoActiveOrder)
}

func TestRejectionLimit(t *testing.T) {
	be := &fakeBackend{balance: 50000, order: requestingOrder()}
	counter := &fakeCounter{counts: map[string]int{}}
	s := startSession(t, Options{MaxDailyRejections: 1}, Deps{Backend: be, Router: &fakeRouter{}, Rejections: counter})
	ctx := context.Background()

	require.NoError(t, s.GoOnline(ctx))
	require.NoError(t, s.Reject(ctx, "too far"))

	state := s.State()
	assert.False(t, state.Online)
	assert.False(t, state.Polling)
	assert.Equal(t, 1, state.RejectionsToday)
	assert.Equal(t, 1, alerts(s, models.AlertRejectionLimit))

	assert.ErrorIs(t, s.GoOnline(ctx), ErrRejectionLimit)
}

func TestBalanceDropAfterOrderTakesDriverOffline(t *testing.T) {
	be := &fakeBackend{balance: 50000, order: requestingOrder()}
	s := startSession(t, Options{}, Deps{Backend: be, Router: &fakeRouter{}})
	ctx := context.Background()

	require.NoError(t, s.GoOnline(ctx))
	require.NoError(t, s.Accept(ctx))
	require.NoError(t, s.Deliver(ctx))

	be.mu.Lock()
	be.balance = 100
	be.mu.Unlock()

	require.NoError(t, s.Arrive(ctx))
	state := s.State()
	assert.False(t, state.Eligible)
	assert.Equal(t, 1, alerts(s, models.AlertInsufficientBalance))

	// следующий тик вместо опроса загружает сводку
	require.NoError(t, s.Retry(ctx))
	state = s.State()
	assert.False(t, state.Online)
	require.NotNil(t, state.Summary)
	assert.Equal(t, 4, state.Summary.TodayOrders)
}

func TestGoOfflineLoadsSummary(t *testing.T) {
	be := &fakeBackend{balance: 50000}
	s := startSession(t, Options{}, Deps{Backend: be, Router: &fakeRouter{}})
	ctx := context.Background()

	require.NoError(t, s.GoOnline(ctx))
	require.NoError(t, s.GoOffline(ctx))

	state := s.State()
	assert.False(t, state.Online)
	assert.False(t, state.Polling)
	require.NotNil(t, state.Summary)
	assert.Equal(t, 50000.0, state.Balance)
}

func TestRouteErrorIsRetryable(t *testing.T) {
	be := &fakeBackend{balance: 50000, order: requestingOrder()}
	router := &fakeRouter{err: errors.New("osrm down")}
	s := startSession(t, Options{}, Deps{Backend: be, Router: router})
	ctx := context.Background()

	require.NoError(t, s.GoOnline(ctx))
	require.NoError(t, s.Accept(ctx))
	require.NoError(t, s.Deliver(ctx))

	state := s.State()
	require.NotNil(t, state.Error)
	assert.True(t, state.Error.Retryable)
	assert.Nil(t, state.Route)

	router.mu.Lock()
	router.err = nil
	router.mu.Unlock()

	require.NoError(t, s.Retry(ctx))
	state = s.State()
	assert.Nil(t, state.Error)
	require.NotNil(t, state.Route)
	assert.Equal(t, models.LegDestination, state.Route.Leg)
}

func TestFixesReconcileAndArrive(t *testing.T) {
	order := requestingOrder()
	be := &fakeBackend{balance: 50000, order: order}
	feed := location.NewFeed()
	s := startSession(t, Options{}, Deps{Backend: be, Router: &fakeRouter{}, Source: feed})
	ctx := context.Background()

	require.NoError(t, s.GoOnline(ctx))
	require.NoError(t, s.Accept(ctx))

	// первый фикс достраивает ожидающий маршрут до точки подачи
	start := models.Position{Lat: 43.2300, Lon: 76.8800}
	feed.Publish(start)
	assert.Eventually(t, func() bool {
		st := s.State()
		return st.Route != nil && st.Raw != nil
	}, time.Second, 5*time.Millisecond)

	state := s.State()
	assert.Equal(t, models.LegPickup, state.Route.Leg)
	assert.False(t, state.OnPoint)

	feed.Publish(models.Position{Lat: order.Pickup.Lat, Lon: order.Pickup.Lon})
	assert.Eventually(t, func() bool { return s.State().OnPoint }, 2*time.Second, 5*time.Millisecond)
}

func TestLocationErrorHasRecovery(t *testing.T) {
	feed := location.NewFeed()
	s := startSession(t, Options{}, Deps{Backend: &fakeBackend{balance: 50000}, Router: &fakeRouter{}, Source: feed})

	feed.SetAvailability(models.AvailabilityUpdate{ServiceEnabled: false, PermissionGranted: true})
	assert.Eventually(t, func() bool { return s.State().LocationError != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.RecoveryEnableLocation, s.State().LocationError.Recovery)

	feed.SetAvailability(models.AvailabilityUpdate{ServiceEnabled: true, PermissionGranted: true})
	require.NoError(t, s.ResumeLocation(context.Background()))
	assert.Nil(t, s.State().LocationError)
}

func TestCommandsBeforeStart(t *testing.T) {
	s := NewSession(Options{}, Deps{Backend: &fakeBackend{}})
	assert.ErrorIs(t, s.GoOnline(context.Background()), ErrNotStarted)
	assert.NotNil(t, s.State())
}

func TestRetryAfterWalletFailureGoesOnline(t *testing.T) {
	unavailable := &backend.APIError{StatusCode: 503, Message: "service unavailable"}
	be := &fakeBackend{balance: 50000, walletErr: unavailable}
	s := startSession(t, Options{}, Deps{Backend: be, Router: &fakeRouter{}})
	ctx := context.Background()

	require.Error(t, s.GoOnline(ctx))
	state := s.State()
	assert.False(t, state.Online)
	require.NotNil(t, state.Error)
	assert.True(t, state.Error.Retryable)

	be.restore()
	require.NoError(t, s.Retry(ctx))

	state = s.State()
	assert.True(t, state.Online)
	assert.Nil(t, state.Error)
	assert.Equal(t, 2, be.walletCalls)
	assert.Equal(t, 1, be.pollCount())
}

func TestRetryAfterActionFailureRepeatsAction(t *testing.T) {
	be := &fakeBackend{balance: 50000, order: requestingOrder()}
	s := startSession(t, Options{}, Deps{Backend: be, Router: &fakeRouter{}})
	ctx := context.Background()

	require.NoError(t, s.GoOnline(ctx))
	require.NotNil(t, s.State().IncomingRequest)

	be.mu.Lock()
	be.actionErr = errors.New("connection reset")
	be.mu.Unlock()

	require.Error(t, s.Accept(ctx))
	require.NotNil(t, s.State().Error)

	be.restore()
	require.NoError(t, s.Retry(ctx))

	state := s.State()
	assert.Nil(t, state.Error)
	require.NotNil(t, state.ActiveOrder)
	assert.Equal(t, models.OrderStatusAccepted, state.ActiveOrder.Status)
	assert.Equal(t, []backend.Action{backend.ActionAccept}, be.transitions)
}

func TestRetryAfterSummaryFailureLoadsSummary(t *testing.T) {
	be := &fakeBackend{balance: 50000}
	s := startSession(t, Options{}, Deps{Backend: be, Router: &fakeRouter{}})
	ctx := context.Background()

	require.NoError(t, s.GoOnline(ctx))

	be.mu.Lock()
	be.summaryErr = errors.New("timeout")
	be.mu.Unlock()

	require.NoError(t, s.GoOffline(ctx))
	state := s.State()
	assert.False(t, state.Online)
	assert.Nil(t, state.Summary)
	require.NotNil(t, state.Error)

	be.restore()
	require.NoError(t, s.Retry(ctx))

	state = s.State()
	assert.False(t, state.Online)
	assert.Nil(t, state.Error)
	require.NotNil(t, state.Summary)
	assert.Equal(t, 2, be.summaries)
}

type blockingSource struct {
	mu   sync.Mutex
	ctxs []context.Context
}

func (b *blockingSource) Subscribe(ctx context.Context, req location.Request, fn func(models.Position)) error {
	b.mu.Lock()
	b.ctxs = append(b.ctxs, ctx)
	b.mu.Unlock()
	<-ctx.Done()
	return nil
}

func (b *blockingSource) subscriptions() []context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]context.Context(nil), b.ctxs...)
}

func TestStaleLocationErrorIsIgnored(t *testing.T) {
	src := &blockingSource{}
	s := NewSession(Options{}, Deps{Backend: &fakeBackend{}, Source: src})
	ctx := context.Background()

	s.startLocation(ctx, location.Balanced(&s.opts.Location))
	stale := s.locGen
	s.startLocation(ctx, location.HighAccuracy(&s.opts.Location))
	require.Eventually(t, func() bool { return len(src.subscriptions()) == 2 }, time.Second, 5*time.Millisecond)

	s.handleLocationError(ctx, locFailure{gen: stale, err: location.ErrServiceDisabled})
	assert.Nil(t, s.state.LocationError)
	require.NotNil(t, s.locCancel)
	assert.NoError(t, src.subscriptions()[1].Err())

	s.handleLocationError(ctx, locFailure{gen: s.locGen, err: location.ErrServiceDisabled})
	require.NotNil(t, s.state.LocationError)
	assert.Nil(t, s.locCancel)
	assert.Error(t, src.subscriptions()[1].Err())
}
