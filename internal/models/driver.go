package models

// Role представляет роль партнера
type Role string

const (
	RoleDriver     Role = "driver"
	RoleRestaurant Role = "restaurant"
)

// VehicleType представляет тип транспорта водителя
type VehicleType string

const (
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleCar        VehicleType = "car"
)

// Driver представляет профиль партнера
type Driver struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Phone          string      `json:"phone"`
	Role           Role        `json:"role"`
	VehicleType    VehicleType `json:"vehicle_type"`
	MinimumBalance float64     `json:"minimum_balance"` // 0 - сервер не прислал значение
}

// DriverSummary представляет сводку партнера для экрана "не в сети"
type DriverSummary struct {
	Balance       float64 `json:"balance"`
	TodayOrders   int     `json:"today_orders"`
	TodayEarnings float64 `json:"today_earnings"`
	Rating        float64 `json:"rating"`
}
