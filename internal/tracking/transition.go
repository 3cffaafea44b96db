package tracking

import (
	"fmt"

	"partner-tracker/internal/models"
)

// Effect представляет побочное действие, которое сессия выполняет после перехода
type Effect uint8

const (
	EffectPausePolling Effect = 1 << iota
	EffectResumePolling
	EffectFetchPickupRoute
	EffectFetchDestinationRoute
	EffectClearRoute
	EffectRecheckEligibility
	EffectAnnounceRequest
)

// Has проверяет наличие эффекта
func (e Effect) Has(f Effect) bool {
	return e&f != 0
}

// Outcome представляет результат перехода состояния
type Outcome struct {
	Next      models.UIState
	Effects   Effect
	Changed   bool
	OrderID   string
	OldStatus models.OrderStatus
	NewStatus models.OrderStatus
}

// currentOrder возвращает отслеживаемый заказ: входящий запрос или активный
func currentOrder(state *models.UIState) *models.Order {
	if state.IncomingRequest != nil {
		return state.IncomingRequest
	}
	return state.ActiveOrder
}

// Apply вычисляет следующее состояние по заказу, полученному от платформы.
// nil означает, что текущего заказа нет.
func Apply(state models.UIState, order *models.Order) (Outcome, error) {
	prev := currentOrder(&state)
	out := Outcome{Next: state}
	next := &out.Next
	next.Error = nil

	if prev != nil {
		out.OldStatus = prev.Status
		out.OrderID = prev.ID.String()
	}

	if order == nil {
		out.Changed = prev != nil
		clearOrder(next)
		out.Effects |= EffectResumePolling
		if state.Route != nil {
			out.Effects |= EffectClearRoute
		}
		return out, nil
	}

	if !order.Status.Valid() {
		return Outcome{Next: state}, fmt.Errorf("unknown order status %q", order.Status)
	}

	sameOrder := prev != nil && prev.ID == order.ID
	out.Changed = !sameOrder || prev.Status != order.Status
	out.OrderID = order.ID.String()
	out.NewStatus = order.Status

	switch order.Status {
	case models.OrderStatusRequesting:
		next.IncomingRequest = order.Clone()
		next.ActiveOrder = nil
		next.Route = nil
		next.OnPoint = false
		next.Snapped = false
		out.Effects |= EffectPausePolling
		if state.Route != nil {
			out.Effects |= EffectClearRoute
		}
		if out.Changed {
			out.Effects |= EffectAnnounceRequest
		}

	case models.OrderStatusAccepted:
		next.IncomingRequest = nil
		next.ActiveOrder = order.Clone()
		out.Effects |= EffectPausePolling
		if !sameOrder || state.Route == nil || state.Route.Leg != models.LegPickup {
			next.Route = nil
			out.Effects |= EffectFetchPickupRoute
		}

	case models.OrderStatusOnRoute:
		next.IncomingRequest = nil
		next.ActiveOrder = order.Clone()
		out.Effects |= EffectPausePolling
		if !sameOrder || state.Route == nil || state.Route.Leg != models.LegDestination {
			next.Route = nil
			next.OnPoint = false
			out.Effects |= EffectFetchDestinationRoute
		}

	default:
		// терминальные статусы
		clearOrder(next)
		out.Effects |= EffectClearRoute | EffectResumePolling | EffectRecheckEligibility
	}

	return out, nil
}

func clearOrder(state *models.UIState) {
	state.IncomingRequest = nil
	state.ActiveOrder = nil
	state.Route = nil
	state.OnPoint = false
	state.Snapped = false
}

// target возвращает точку, к которой едет водитель на текущем участке
func target(order *models.Order) (models.Point, bool) {
	if order == nil {
		return models.Point{}, false
	}
	switch order.Status {
	case models.OrderStatusAccepted:
		return order.Pickup, true
	case models.OrderStatusOnRoute:
		return order.Destination, true
	}
	return models.Point{}, false
}
