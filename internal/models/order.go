package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus представляет статус заказа
type OrderStatus string

const (
	OrderStatusRequesting OrderStatus = "requesting"
	OrderStatusAccepted   OrderStatus = "accepted"
	OrderStatusOnRoute    OrderStatus = "on_route"
	OrderStatusArrived    OrderStatus = "arrived"
	OrderStatusFinished   OrderStatus = "finished"
	OrderStatusRejected   OrderStatus = "rejected"
)

// IsTerminal сообщает, что после статуса переходов больше не будет
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusArrived, OrderStatusFinished, OrderStatusRejected:
		return true
	}
	return false
}

// Valid проверяет, что статус известен
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusRequesting, OrderStatusAccepted, OrderStatusOnRoute,
		OrderStatusArrived, OrderStatusFinished, OrderStatusRejected:
		return true
	}
	return false
}

// Order представляет заказ (поездку или доставку еды), назначенный партнеру
type Order struct {
	ID                 uuid.UUID   `json:"id"`
	Status             OrderStatus `json:"status"`
	CustomerName       string      `json:"customer_name,omitempty"`
	Pickup             Point       `json:"pickup"`
	PickupAddress      string      `json:"pickup_address,omitempty"`
	Destination        Point       `json:"destination"`
	DestinationAddress string      `json:"destination_address,omitempty"`
	Payment            Payment     `json:"payment"`
	FoodItems          []FoodItem  `json:"food_items,omitempty"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Payment представляет платежные поля заказа
type Payment struct {
	Method     string  `json:"method"`
	Fare       float64 `json:"fare"`
	Commission float64 `json:"commission"`
}

// FoodItem представляет позицию заказа еды
type FoodItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Total возвращает сумму позиций еды
func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.FoodItems {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Clone возвращает независимую копию заказа
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.FoodItems != nil {
		c.FoodItems = append([]FoodItem(nil), o.FoodItems...)
	}
	return &c
}
