package location

import (
	"context"
	"errors"
	"time"

	"partner-tracker/internal/config"
	"partner-tracker/internal/models"
)

var (
	// ErrServiceDisabled службы геолокации выключены на устройстве
	ErrServiceDisabled = errors.New("location service is disabled")
	// ErrPermissionDenied приложению не выдано разрешение на геолокацию
	ErrPermissionDenied = errors.New("location permission is not granted")
)

// Priority представляет уровень точности подписки
type Priority string

const (
	PriorityHighAccuracy Priority = "high_accuracy"
	PriorityBalanced     Priority = "balanced"
)

// Request представляет параметры подписки на обновления геолокации
type Request struct {
	Interval        time.Duration
	MinDisplacement float64 // метры
	Priority        Priority
}

// HighAccuracy пресет для навигации по активному заказу
func HighAccuracy(cfg *config.LocationConfig) Request {
	return Request{Interval: cfg.ActiveInterval, Priority: PriorityHighAccuracy}
}

// Balanced пресет для ожидания заказов
func Balanced(cfg *config.LocationConfig) Request {
	return Request{
		Interval:        cfg.IdleInterval,
		MinDisplacement: cfg.IdleDisplacement,
		Priority:        PriorityBalanced,
	}
}

// Source представляет источник обновлений геолокации.
// Subscribe блокируется, пока не отменен ctx или источник не завершится
// с ошибкой ErrServiceDisabled или ErrPermissionDenied.
type Source interface {
	Subscribe(ctx context.Context, req Request, fn func(models.Position)) error
}

// Recovery возвращает подсказку восстановления для ошибки подписки
func Recovery(err error) string {
	switch {
	case errors.Is(err, ErrServiceDisabled):
		return models.RecoveryEnableLocation
	case errors.Is(err, ErrPermissionDenied):
		return models.RecoveryRequestPermission
	}
	return ""
}
