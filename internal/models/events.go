package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType представляет тип события
type EventType string

const (
	EventTypeOrderRequested     EventType = "order.requested"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeLocationUpdated    EventType = "location.updated"
	EventTypeAlert              EventType = "session.alert"
	EventTypeError              EventType = "session.error"
	EventTypeLocationError      EventType = "session.location_error"
	EventTypeNotification       EventType = "push.notification"

	// входящие события
	EventTypePushMessage  EventType = "push.message"
	EventTypeLocationFix  EventType = "location.fix"
	EventTypeAvailability EventType = "location.availability"
)

// Event представляет базовое событие
type Event struct {
	ID        uuid.UUID   `json:"id"`
	Type      EventType   `json:"type"`
	DriverID  string      `json:"driver_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent создает событие с новым идентификатором
func NewEvent(eventType EventType, driverID string, data interface{}) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		DriverID:  driverID,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// OrderStatusChangedEvent представляет событие изменения статуса заказа
type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID   `json:"order_id"`
	OldStatus OrderStatus `json:"old_status,omitempty"`
	NewStatus OrderStatus `json:"new_status"`
	Timestamp time.Time   `json:"timestamp"`
}

// LocationUpdatedEvent представляет событие обновления местоположения
type LocationUpdatedEvent struct {
	Raw     Position `json:"raw"`
	Display Position `json:"display"`
	Snapped bool     `json:"snapped"`
	OnPoint bool     `json:"on_point"`
}

// AlertEvent представляет блокирующее предупреждение для партнера
type AlertEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Коды предупреждений
const (
	AlertInsufficientBalance = "insufficient_balance"
	AlertRejectionLimit      = "rejection_limit"
)

// PushMessage представляет входящее data-сообщение push канала
type PushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Kind  string            `json:"kind,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notification представляет локальное уведомление для показа
type Notification struct {
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Sound   string            `json:"sound"`
	Channel string            `json:"channel"`
	Data    map[string]string `json:"data,omitempty"`
}

// AvailabilityUpdate представляет состояние служб геолокации устройства
type AvailabilityUpdate struct {
	ServiceEnabled    bool `json:"service_enabled"`
	PermissionGranted bool `json:"permission_granted"`
}

// TransitionRecord представляет запись журнала переходов заказа
type TransitionRecord struct {
	ID        uuid.UUID   `json:"id"`
	DriverID  string      `json:"driver_id"`
	OrderID   uuid.UUID   `json:"order_id"`
	OldStatus OrderStatus `json:"old_status,omitempty"`
	NewStatus OrderStatus `json:"new_status"`
	Lat       *float64    `json:"lat,omitempty"`
	Lon       *float64    `json:"lon,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
