// Package tracking ведет сессию партнера: опрос текущего заказа, переходы
// статусов, привязку позиции к маршруту и допуск к выходу на линию.
package tracking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"partner-tracker/internal/backend"
	"partner-tracker/internal/config"
	"partner-tracker/internal/geo"
	"partner-tracker/internal/location"
	"partner-tracker/internal/logger"
	"partner-tracker/internal/metrics"
	"partner-tracker/internal/models"

	"github.com/google/uuid"
)

// Backend представляет API платформы, нужный сессии
type Backend interface {
	CurrentOrder(ctx context.Context) (*models.Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, action backend.Action, reason string) (*models.Order, error)
	WalletBalance(ctx context.Context) (float64, error)
	DriverSummary(ctx context.Context) (*models.DriverSummary, error)
}

// Router представляет сервис маршрутов
type Router interface {
	Directions(ctx context.Context, origin, dest models.Point) (*models.Route, error)
}

// Journal сохраняет переходы статусов заказа
type Journal interface {
	Record(ctx context.Context, rec *models.TransitionRecord) error
}

// Publisher публикует события сессии во внешний мир
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// RejectionCounter ведет дневной счетчик отказов партнера
type RejectionCounter interface {
	Record(ctx context.Context, driverID string) (int, error)
	Count(ctx context.Context, driverID string) (int, error)
}

const (
	eventBuffer  = 64
	recentEvents = 50
)

// Options представляет параметры сессии
type Options struct {
	Driver             *models.Driver
	PollInterval       time.Duration
	ArrivalRadius      float64
	DensifySpacing     float64
	Reconciler         geo.Reconciler
	Minimums           Minimums
	MaxDailyRejections int
	Location           config.LocationConfig
}

// OptionsFromConfig собирает параметры сессии из конфигурации
func OptionsFromConfig(cfg *config.Config, driver *models.Driver) Options {
	return Options{
		Driver:         driver,
		PollInterval:   cfg.Tracking.PollInterval,
		ArrivalRadius:  cfg.Tracking.ArrivalRadius,
		DensifySpacing: cfg.Tracking.DensifySpacing,
		Reconciler: geo.Reconciler{
			Snapper:   geo.Snapper{ConfirmCount: cfg.Tracking.SnapConfirmCount},
			RenderLag: cfg.Tracking.RenderLag,
		},
		Minimums: Minimums{
			Motorcycle: cfg.Tracking.MotorcycleMinimum,
			Car:        cfg.Tracking.CarMinimum,
		},
		MaxDailyRejections: cfg.Tracking.MaxDailyRejections,
		Location:           cfg.Location,
	}
}

// Deps представляет внешние зависимости сессии; Journal, Publisher и
// Rejections могут быть nil
type Deps struct {
	Backend    Backend
	Router     Router
	Source     location.Source
	Journal    Journal
	Publisher  Publisher
	Rejections RejectionCounter
	Log        *logger.Logger
}

type command struct {
	fn    func(ctx context.Context) error
	reply chan error
}

// locFailure ошибка подписки вместе с ее поколением
type locFailure struct {
	gen uint64
	err error
}

// Session представляет сессию отслеживания заказов партнера.
// Состояние пишет только горутина run; читатели получают копии через State.
type Session struct {
	opts     Options
	deps     Deps
	driverID string

	cmds   chan command
	fixes  chan models.Position
	locErr chan locFailure
	events chan models.Event

	// принадлежат горутине run
	state      models.UIState
	polling    bool
	pollC      <-chan time.Time
	pendingLeg models.RouteLeg
	retryOp    func(ctx context.Context) error
	locCancel  context.CancelFunc
	locGen     uint64
	locReq     location.Request
	locStopped bool

	snapshot atomic.Pointer[models.UIState]

	recentMu sync.Mutex
	recent   []models.Event

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession создает новую сессию; запуск выполняет Start
func NewSession(opts Options, deps Deps) *Session {
	if opts.Driver == nil {
		opts.Driver = &models.Driver{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.ArrivalRadius <= 0 {
		opts.ArrivalRadius = geo.DefaultArrivalRadius
	}
	if opts.DensifySpacing <= 0 {
		opts.DensifySpacing = 1
	}
	if opts.Minimums == (Minimums{}) {
		opts.Minimums = DefaultMinimums
	}
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}

	s := &Session{
		opts:     opts,
		deps:     deps,
		driverID: opts.Driver.ID,
		cmds:     make(chan command),
		fixes:    make(chan models.Position, 16),
		locErr:   make(chan locFailure, 1),
		events:   make(chan models.Event, eventBuffer),
	}
	s.state.MinimumBalance = MinimumBalance(opts.Driver, opts.Minimums)
	s.state.Eligible = true
	s.publishSnapshot()
	return s
}

// Start запускает горутину сессии и подписку на геолокацию
func (s *Session) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.done != nil {
		return errors.New("tracking session already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	if s.opts.Driver.Role == models.RoleRestaurant {
		// партнеру-ресторану геолокация не нужна
		s.locStopped = true
	} else {
		s.startLocation(ctx, location.Balanced(&s.opts.Location))
	}

	go s.run(ctx)

	s.deps.Log.ForDriver(s.driverID).Info("Tracking session started")
	return nil
}

// Stop останавливает сессию и ждет завершения горутины
func (s *Session) Stop() {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// State возвращает копию текущего состояния
func (s *Session) State() *models.UIState {
	return s.snapshot.Load().Clone()
}

// Events возвращает канал событий для слоя отображения
func (s *Session) Events() <-chan models.Event {
	return s.events
}

// RecentEvents возвращает последние события сессии, старые первыми
func (s *Session) RecentEvents() []models.Event {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()
	return append([]models.Event(nil), s.recent...)
}

// GoOnline выводит партнера на линию, если позволяет баланс
func (s *Session) GoOnline(ctx context.Context) error {
	return s.exec(ctx, s.goOnline)
}

// GoOffline снимает партнера с линии и загружает сводку
func (s *Session) GoOffline(ctx context.Context) error {
	return s.exec(ctx, s.goOffline)
}

// Retry сбрасывает ошибку и повторяет неудавшуюся операцию
func (s *Session) Retry(ctx context.Context) error {
	return s.exec(ctx, s.retry)
}

// Accept принимает входящий запрос
func (s *Session) Accept(ctx context.Context) error {
	return s.exec(ctx, func(ctx context.Context) error {
		return s.act(ctx, backend.ActionAccept, "")
	})
}

// Reject отклоняет входящий запрос
func (s *Session) Reject(ctx context.Context, reason string) error {
	return s.exec(ctx, func(ctx context.Context) error {
		return s.act(ctx, backend.ActionReject, reason)
	})
}

// Deliver начинает участок до пункта назначения
func (s *Session) Deliver(ctx context.Context) error {
	return s.exec(ctx, func(ctx context.Context) error {
		return s.act(ctx, backend.ActionDeliver, "")
	})
}

// Arrive отмечает прибытие
func (s *Session) Arrive(ctx context.Context) error {
	return s.exec(ctx, func(ctx context.Context) error {
		return s.act(ctx, backend.ActionArrive, "")
	})
}

// Finish завершает заказ
func (s *Session) Finish(ctx context.Context) error {
	return s.exec(ctx, func(ctx context.Context) error {
		return s.act(ctx, backend.ActionFinish, "")
	})
}

// ResumeLocation перезапускает подписку на геолокацию после ошибки
func (s *Session) ResumeLocation(ctx context.Context) error {
	return s.exec(ctx, func(ctx context.Context) error {
		s.state.LocationError = nil
		s.locStopped = false
		s.startLocation(ctx, s.desiredLocation())
		return nil
	})
}

// StopLocation окончательно останавливает подписку на геолокацию
func (s *Session) StopLocation(ctx context.Context) error {
	return s.exec(ctx, func(ctx context.Context) error {
		s.stopLocation()
		s.locStopped = true
		return nil
	})
}

// Notify показывает локальное уведомление партнеру
func (s *Session) Notify(ctx context.Context, n models.Notification) error {
	return s.exec(ctx, func(ctx context.Context) error {
		s.emit(ctx, models.EventTypeNotification, n)
		return nil
	})
}

// exec выполняет fn в горутине сессии и ждет результат
func (s *Session) exec(ctx context.Context, fn func(ctx context.Context) error) error {
	s.runMu.Lock()
	done := s.done
	s.runMu.Unlock()
	if done == nil {
		return ErrNotStarted
	}

	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
	case <-done:
		return ErrNotStarted
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-done:
		return ErrNotStarted
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.stopLocation()

	for {
		select {
		case <-ctx.Done():
			s.deps.Log.ForDriver(s.driverID).Info("Tracking session stopped")
			return

		case <-s.pollC:
			s.pollC = nil
			s.poll(ctx)

		case cmd := <-s.cmds:
			err := cmd.fn(ctx)
			// вызывающий должен увидеть результат команды в State
			s.schedulePoll()
			s.publishSnapshot()
			cmd.reply <- err
			continue

		case pos := <-s.fixes:
			s.handleFix(ctx, pos)

		case f := <-s.locErr:
			s.handleLocationError(ctx, f)
		}

		s.schedulePoll()
		s.publishSnapshot()
	}
}

// schedulePoll заводит таймер следующего опроса, если опрос включен
func (s *Session) schedulePoll() {
	if s.polling && s.state.Online {
		if s.pollC == nil {
			s.pollC = time.After(s.opts.PollInterval)
		}
	} else {
		s.pollC = nil
	}
	s.state.Polling = s.polling && s.state.Online
}

func (s *Session) publishSnapshot() {
	s.state.Version++
	s.state.UpdatedAt = time.Now()
	s.snapshot.Store(s.state.Clone())
}

// loading публикует снимок с флагом загрузки на время вызова fn
func (s *Session) loading(fn func()) {
	s.state.Loading = true
	s.publishSnapshot()
	fn()
	s.state.Loading = false
}

func (s *Session) goOnline(ctx context.Context) error {
	log := s.deps.Log.ForDriver(s.driverID)
	if s.state.Online {
		return nil
	}

	if s.deps.Rejections != nil && s.opts.MaxDailyRejections > 0 {
		count, err := s.deps.Rejections.Count(ctx, s.driverID)
		if err != nil {
			log.WithError(err).Warn("Failed to read rejection counter")
		} else {
			s.state.RejectionsToday = count
			if count >= s.opts.MaxDailyRejections {
				s.alert(ctx, models.AlertRejectionLimit, "You have rejected too many orders today")
				return ErrRejectionLimit
			}
		}
	}

	var (
		balance float64
		err     error
	)
	s.loading(func() { balance, err = s.deps.Backend.WalletBalance(ctx) })
	if err != nil {
		s.fail(ctx, err, s.goOnline)
		return err
	}

	minimum := MinimumBalance(s.opts.Driver, s.opts.Minimums)
	s.state.Balance = balance
	s.state.MinimumBalance = minimum

	if !Eligible(balance, minimum) {
		s.state.Eligible = false
		s.alert(ctx, models.AlertInsufficientBalance, "Top up your wallet to receive orders")
		log.WithField("balance", balance).WithField("minimum", minimum).Info("Go online blocked by wallet balance")
		return ErrInsufficientBalance
	}

	s.state.Eligible = true
	s.state.Online = true
	s.state.Summary = nil
	s.state.Error = nil
	s.polling = true
	metrics.Online.Set(1)
	log.Info("Partner is online")

	s.poll(ctx)
	return nil
}

func (s *Session) goOffline(ctx context.Context) error {
	s.state.Online = false
	s.polling = false
	metrics.Online.Set(0)

	var (
		summary *models.DriverSummary
		err     error
	)
	s.loading(func() { summary, err = s.deps.Backend.DriverSummary(ctx) })
	if err != nil {
		// с линии партнер уже снят, повтор только догружает сводку
		s.fail(ctx, err, s.goOffline)
		return nil
	}
	if summary != nil {
		s.state.Summary = summary
		s.state.Balance = summary.Balance
	}

	s.deps.Log.ForDriver(s.driverID).Info("Partner is offline")
	return nil
}

func (s *Session) retry(ctx context.Context) error {
	op := s.retryOp
	s.retryOp = nil
	if s.state.Error == nil {
		// ошибку уже сняла успешная операция
		op = nil
	}
	s.state.Error = nil

	if op != nil {
		return op(ctx)
	}
	if s.pendingLeg != "" && s.state.ActiveOrder != nil {
		s.loadRoute(ctx, s.pendingLeg)
		return nil
	}
	if s.state.Online {
		s.polling = true
		s.poll(ctx)
	}
	return nil
}

// poll выполняет один опрос текущего заказа
func (s *Session) poll(ctx context.Context) {
	if !s.state.Online {
		return
	}

	if !s.state.Eligible {
		// вместо опроса заказов показываем сводку и уходим с линии
		_ = s.goOffline(ctx)
		return
	}

	metrics.PollTicks.Inc()

	var (
		order *models.Order
		err   error
	)
	s.loading(func() { order, err = s.deps.Backend.CurrentOrder(ctx) })
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.PollFailures.Inc()
		clearOrder(&s.state)
		s.pendingLeg = ""
		s.fail(ctx, err, s.pollNow)
		return
	}

	s.applyOrder(ctx, order)
}

// pollNow возобновляет опрос и сразу опрашивает
func (s *Session) pollNow(ctx context.Context) error {
	s.polling = true
	s.poll(ctx)
	return nil
}

// act выполняет действие партнера над заказом
func (s *Session) act(ctx context.Context, action backend.Action, reason string) error {
	var order *models.Order
	switch action {
	case backend.ActionAccept, backend.ActionReject:
		order = s.state.IncomingRequest
		if order == nil {
			return ErrNoIncomingRequest
		}
	default:
		order = s.state.ActiveOrder
		if order == nil {
			return ErrNoActiveOrder
		}
	}

	var (
		updated *models.Order
		err     error
	)
	s.loading(func() { updated, err = s.deps.Backend.Transition(ctx, order.ID, action, reason) })
	if err != nil {
		s.fail(ctx, err, func(ctx context.Context) error {
			return s.act(ctx, action, reason)
		})
		return err
	}

	if action == backend.ActionReject {
		s.recordRejection(ctx)
	}

	s.applyOrder(ctx, updated)
	return nil
}

func (s *Session) recordRejection(ctx context.Context) {
	if s.deps.Rejections == nil {
		return
	}
	count, err := s.deps.Rejections.Record(ctx, s.driverID)
	if err != nil {
		s.deps.Log.ForDriver(s.driverID).WithError(err).Warn("Failed to record rejection")
		return
	}
	s.state.RejectionsToday = count

	if s.opts.MaxDailyRejections > 0 && count >= s.opts.MaxDailyRejections {
		s.alert(ctx, models.AlertRejectionLimit, "You have rejected too many orders today")
		s.state.Online = false
		s.polling = false
		metrics.Online.Set(0)
	}
}

// applyOrder применяет заказ от платформы и выполняет эффекты перехода
func (s *Session) applyOrder(ctx context.Context, order *models.Order) {
	out, err := Apply(s.state, order)
	if err != nil {
		s.deps.Log.ForDriver(s.driverID).WithError(err).Error("Failed to apply order")
		s.retryOp = s.pollNow
		s.setError(err.Error(), true)
		return
	}
	s.state = out.Next

	if out.Changed && order != nil {
		s.recordTransition(ctx, order, out.OldStatus)
	}

	if out.Effects.Has(EffectPausePolling) {
		s.polling = false
	}
	if out.Effects.Has(EffectResumePolling) {
		s.polling = true
	}
	if out.Effects.Has(EffectClearRoute) {
		s.pendingLeg = ""
	}
	if out.Effects.Has(EffectAnnounceRequest) {
		s.emit(ctx, models.EventTypeOrderRequested, order)
	}
	if out.Effects.Has(EffectFetchPickupRoute) {
		s.loadRoute(ctx, models.LegPickup)
	}
	if out.Effects.Has(EffectFetchDestinationRoute) {
		s.loadRoute(ctx, models.LegDestination)
	}
	if out.Effects.Has(EffectRecheckEligibility) {
		s.recheckEligibility(ctx)
	}

	s.switchLocation(ctx)
}

func (s *Session) recordTransition(ctx context.Context, order *models.Order, old models.OrderStatus) {
	metrics.StatusTransitions.WithLabelValues(string(order.Status)).Inc()

	s.deps.Log.ForDriver(s.driverID).
		WithField("order_id", order.ID).
		WithField("old_status", old).
		WithField("new_status", order.Status).
		Info("Order status changed")

	s.emit(ctx, models.EventTypeOrderStatusChanged, models.OrderStatusChangedEvent{
		OrderID:   order.ID,
		OldStatus: old,
		NewStatus: order.Status,
		Timestamp: time.Now(),
	})

	if s.deps.Journal == nil {
		return
	}
	rec := &models.TransitionRecord{
		ID:        uuid.New(),
		DriverID:  s.driverID,
		OrderID:   order.ID,
		OldStatus: old,
		NewStatus: order.Status,
		CreatedAt: time.Now(),
	}
	if s.state.Raw != nil {
		lat, lon := s.state.Raw.Lat, s.state.Raw.Lon
		rec.Lat, rec.Lon = &lat, &lon
	}
	if err := s.deps.Journal.Record(ctx, rec); err != nil {
		s.deps.Log.ForDriver(s.driverID).WithError(err).Warn("Failed to journal order transition")
	}
}

// loadRoute строит маршрут участка от текущей позиции
func (s *Session) loadRoute(ctx context.Context, leg models.RouteLeg) {
	order := s.state.ActiveOrder
	if order == nil {
		return
	}

	dest := order.Pickup
	if leg == models.LegDestination {
		dest = order.Destination
	}

	var origin models.Point
	switch {
	case s.state.Raw != nil:
		origin = s.state.Raw.Point()
	case leg == models.LegDestination:
		origin = order.Pickup
	default:
		// без первого фикса строить маршрут до точки подачи не от чего
		s.pendingLeg = leg
		return
	}

	var (
		route *models.Route
		err   error
	)
	s.loading(func() { route, err = s.deps.Router.Directions(ctx, origin, dest) })
	if err != nil {
		metrics.RouteFetches.WithLabelValues(string(leg), "error").Inc()
		s.pendingLeg = leg
		s.fail(ctx, err, func(ctx context.Context) error {
			s.loadRoute(ctx, leg)
			return nil
		})
		return
	}
	metrics.RouteFetches.WithLabelValues(string(leg), "ok").Inc()

	route.Leg = leg
	geo.PrepareRoute(route, s.opts.DensifySpacing)
	s.state.Route = route
	s.pendingLeg = ""

	if s.state.Raw != nil {
		s.reconcile(*s.state.Raw)
	}
}

func (s *Session) recheckEligibility(ctx context.Context) {
	balance, err := s.deps.Backend.WalletBalance(ctx)
	if err != nil {
		s.deps.Log.ForDriver(s.driverID).WithError(err).Warn("Failed to recheck wallet balance")
		return
	}
	minimum := MinimumBalance(s.opts.Driver, s.opts.Minimums)
	s.state.Balance = balance
	s.state.MinimumBalance = minimum

	wasEligible := s.state.Eligible
	s.state.Eligible = Eligible(balance, minimum)
	if wasEligible && !s.state.Eligible {
		s.alert(ctx, models.AlertInsufficientBalance, "Top up your wallet to receive orders")
	}
}

// handleFix обрабатывает фикс из подписки на геолокацию
func (s *Session) handleFix(ctx context.Context, pos models.Position) {
	s.state.Raw = &pos
	s.reconcile(pos)

	if s.pendingLeg != "" && s.state.ActiveOrder != nil && s.state.Error == nil {
		s.loadRoute(ctx, s.pendingLeg)
	}

	if s.deps.Publisher != nil {
		display := pos
		if s.state.Display != nil {
			display = *s.state.Display
		}
		s.publish(ctx, models.NewEvent(models.EventTypeLocationUpdated, s.driverID, models.LocationUpdatedEvent{
			Raw:     pos,
			Display: display,
			Snapped: s.state.Snapped,
			OnPoint: s.state.OnPoint,
		}))
	}
}

// reconcile привязывает позицию к маршруту и пересчитывает прибытие
func (s *Session) reconcile(pos models.Position) {
	stable := pos
	s.state.Snapped = false

	active := s.state.ActiveOrder
	if !s.state.Route.Empty() && active != nil &&
		(active.Status == models.OrderStatusAccepted || active.Status == models.OrderStatusOnRoute) {
		res := s.opts.Reconciler.Reconcile(s.state.Route, pos)
		if res.OnRoute {
			stable = res.Snapped
			s.state.Snapped = true
			metrics.Snaps.WithLabelValues("snapped").Inc()
		} else {
			metrics.Snaps.WithLabelValues("raw").Inc()
		}
		display := res.Display
		s.state.Display = &display
	} else {
		display := pos
		s.state.Display = &display
	}

	if dest, ok := target(active); ok {
		s.state.OnPoint = geo.OnPoint(stable.Point(), dest, s.opts.ArrivalRadius)
	} else {
		s.state.OnPoint = false
	}
}

func (s *Session) handleLocationError(ctx context.Context, f locFailure) {
	if f.gen != s.locGen || s.locCancel == nil {
		// ошибка уже замененной подписки
		return
	}
	s.stopLocation()

	err := f.err
	s.state.LocationError = &models.LocationError{
		Message:  err.Error(),
		Recovery: location.Recovery(err),
	}
	s.deps.Log.ForDriver(s.driverID).WithError(err).Warn("Location subscription terminated")
	s.emit(ctx, models.EventTypeLocationError, s.state.LocationError)
}

// desiredLocation выбирает пресет: высокая точность при активном заказе
func (s *Session) desiredLocation() location.Request {
	if s.state.ActiveOrder != nil {
		return location.HighAccuracy(&s.opts.Location)
	}
	return location.Balanced(&s.opts.Location)
}

func (s *Session) switchLocation(ctx context.Context) {
	if s.locStopped || s.locCancel == nil {
		return
	}
	if req := s.desiredLocation(); req != s.locReq {
		s.startLocation(ctx, req)
	}
}

func (s *Session) startLocation(ctx context.Context, req location.Request) {
	if s.deps.Source == nil || s.locStopped {
		return
	}
	s.stopLocation()

	lctx, cancel := context.WithCancel(ctx)
	s.locCancel = cancel
	s.locReq = req
	s.locGen++
	gen := s.locGen

	go func() {
		err := s.deps.Source.Subscribe(lctx, req, func(pos models.Position) {
			select {
			case s.fixes <- pos:
			case <-lctx.Done():
			}
		})
		if err != nil && lctx.Err() == nil {
			select {
			case s.locErr <- locFailure{gen: gen, err: err}:
			case <-lctx.Done():
			}
		}
	}()
}

func (s *Session) stopLocation() {
	if s.locCancel != nil {
		s.locCancel()
		s.locCancel = nil
	}
}

// fail показывает ошибку платформы и запоминает операцию для Retry
func (s *Session) fail(ctx context.Context, err error, op func(ctx context.Context) error) {
	s.deps.Log.ForDriver(s.driverID).WithError(err).Warn("Backend operation failed")
	s.retryOp = op
	s.setError(backend.UserMessage(err), true)
	s.emit(ctx, models.EventTypeError, s.state.Error)
}

func (s *Session) setError(message string, retryable bool) {
	s.state.Error = &models.UIError{Message: message, Retryable: retryable}
}

func (s *Session) alert(ctx context.Context, code, message string) {
	metrics.Alerts.WithLabelValues(code).Inc()
	s.emit(ctx, models.EventTypeAlert, models.AlertEvent{Code: code, Message: message})
}

// emit отдает событие слою отображения и публикует его наружу
func (s *Session) emit(ctx context.Context, eventType models.EventType, data interface{}) {
	event := models.NewEvent(eventType, s.driverID, data)

	select {
	case s.events <- event:
	default:
		s.deps.Log.ForDriver(s.driverID).WithField("event_type", eventType).Warn("Event buffer is full, dropping event")
	}

	s.recentMu.Lock()
	s.recent = append(s.recent, event)
	if len(s.recent) > recentEvents {
		s.recent = s.recent[len(s.recent)-recentEvents:]
	}
	s.recentMu.Unlock()

	s.publish(ctx, event)
}

func (s *Session) publish(ctx context.Context, event models.Event) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.Publish(ctx, event); err != nil {
		s.deps.Log.ForDriver(s.driverID).WithError(err).WithField("event_type", event.Type).Warn("Failed to publish session event")
	}
}
