package tracking

import (
	"errors"

	"partner-tracker/internal/models"
)

var (
	// ErrInsufficientBalance баланс кошелька ниже минимума для выхода на линию
	ErrInsufficientBalance = errors.New("wallet balance is below the minimum")
	// ErrRejectionLimit исчерпан дневной лимит отказов от заказов
	ErrRejectionLimit = errors.New("daily rejection limit reached")
	// ErrNoIncomingRequest нет входящего запроса для принятия или отказа
	ErrNoIncomingRequest = errors.New("no incoming order request")
	// ErrNoActiveOrder нет активного заказа для действия
	ErrNoActiveOrder = errors.New("no active order")
	// ErrNotStarted сессия не запущена
	ErrNotStarted = errors.New("tracking session is not running")
)

// Minimums задает минимальный баланс по умолчанию для типов транспорта
type Minimums struct {
	Motorcycle float64
	Car        float64
}

// DefaultMinimums значения, если платформа не прислала свое
var DefaultMinimums = Minimums{Motorcycle: 10000, Car: 20000}

// MinimumBalance возвращает минимальный баланс для выхода на линию
func MinimumBalance(driver *models.Driver, defaults Minimums) float64 {
	if driver != nil && driver.MinimumBalance > 0 {
		return driver.MinimumBalance
	}
	if driver != nil && driver.VehicleType == models.VehicleCar {
		return defaults.Car
	}
	return defaults.Motorcycle
}

// Eligible сообщает, может ли партнер получать заказы с таким балансом
func Eligible(balance, minimum float64) bool {
	return balance >= minimum
}
