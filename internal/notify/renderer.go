// Package notify превращает входящие push data-сообщения в локальные уведомления.
package notify

import (
	"strings"

	"partner-tracker/internal/config"
	"partner-tracker/internal/models"
)

// Каналы уведомлений
const (
	ChannelOrders  = "orders"
	ChannelGeneral = "general"
)

// kindOrder тип сообщения о новом заказе
const kindOrder = "order"

// Renderer представляет построитель локальных уведомлений
type Renderer struct {
	cfg config.NotifyConfig
}

// NewRenderer создает новый построитель уведомлений
func NewRenderer(cfg *config.NotifyConfig) *Renderer {
	return &Renderer{cfg: *cfg}
}

// Render строит уведомление для партнера с указанной ролью. Звук выбирается
// по роли, сообщения о заказах идут в отдельный канал.
func (r *Renderer) Render(msg models.PushMessage, role models.Role) models.Notification {
	n := models.Notification{
		Title:   strings.TrimSpace(msg.Title),
		Body:    strings.TrimSpace(msg.Body),
		Sound:   r.sound(role),
		Channel: ChannelGeneral,
		Data:    msg.Data,
	}
	if strings.EqualFold(msg.Kind, kindOrder) {
		n.Channel = ChannelOrders
	}
	if n.Title == "" {
		n.Title = "Partner"
	}
	return n
}

func (r *Renderer) sound(role models.Role) string {
	switch role {
	case models.RoleDriver:
		return r.cfg.DriverSound
	case models.RoleRestaurant:
		return r.cfg.RestaurantSound
	}
	return r.cfg.DefaultSound
}
