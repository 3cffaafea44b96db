package models

import "time"

// UIError представляет ошибку, показанную партнеру
type UIError struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Подсказки восстановления после ошибок геолокации
const (
	RecoveryEnableLocation    = "enable_location_service"
	RecoveryRequestPermission = "request_permission"
)

// LocationError представляет ошибку подписки на геолокацию
type LocationError struct {
	Message  string `json:"message"`
	Recovery string `json:"recovery"`
}

// UIState представляет состояние, которое читает слой отображения
type UIState struct {
	Online          bool           `json:"online"`
	Polling         bool           `json:"polling"`
	Loading         bool           `json:"loading"`
	Eligible        bool           `json:"eligible"`
	IncomingRequest *Order         `json:"incoming_request,omitempty"`
	ActiveOrder     *Order         `json:"active_order,omitempty"`
	Route           *Route         `json:"route,omitempty"`
	Raw             *Position      `json:"raw_position,omitempty"`
	Display         *Position      `json:"display_position,omitempty"`
	Snapped         bool           `json:"snapped"`
	OnPoint         bool           `json:"on_point"`
	Error           *UIError       `json:"error,omitempty"`
	LocationError   *LocationError `json:"location_error,omitempty"`
	Summary         *DriverSummary `json:"summary,omitempty"`
	Balance         float64        `json:"balance"`
	MinimumBalance  float64        `json:"minimum_balance"`
	RejectionsToday int            `json:"rejections_today"`
	Version         uint64         `json:"version"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Clone возвращает копию, которую безопасно отдавать читателям
func (s *UIState) Clone() *UIState {
	c := *s
	c.IncomingRequest = s.IncomingRequest.Clone()
	c.ActiveOrder = s.ActiveOrder.Clone()
	if s.Route != nil {
		r := *s.Route
		c.Route = &r
	}
	if s.Raw != nil {
		p := *s.Raw
		c.Raw = &p
	}
	if s.Display != nil {
		p := *s.Display
		c.Display = &p
	}
	if s.Error != nil {
		e := *s.Error
		c.Error = &e
	}
	if s.LocationError != nil {
		e := *s.LocationError
		c.LocationError = &e
	}
	if s.Summary != nil {
		sm := *s.Summary
		c.Summary = &sm
	}
	return &c
}
