package handlers

import (
	"context"
	"net/http"

	"partner-tracker/internal/logger"
	"partner-tracker/internal/models"
)

// Session представляет операции сессии партнера, доступные по HTTP
type Session interface {
	State() *models.UIState
	RecentEvents() []models.Event
	GoOnline(ctx context.Context) error
	GoOffline(ctx context.Context) error
	Retry(ctx context.Context) error
	Accept(ctx context.Context) error
	Reject(ctx context.Context, reason string) error
	Deliver(ctx context.Context) error
	Arrive(ctx context.Context) error
	Finish(ctx context.Context) error
}

// SessionHandler представляет обработчик сессии и действий над заказом
type SessionHandler struct {
	session Session
	log     *logger.Logger
}

// NewSessionHandler создает новый обработчик сессии
func NewSessionHandler(session Session, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		session: session,
		log:     log,
	}
}

// RejectRequest представляет тело запроса отказа от заказа
type RejectRequest struct {
	Reason string `json:"reason"`
}

// GetState возвращает снимок состояния сессии
func (h *SessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.session.State())
}

// GetEvents возвращает последние события сессии
func (h *SessionHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	events := h.session.RecentEvents()
	if events == nil {
		events = []models.Event{}
	}
	writeJSONResponse(w, http.StatusOK, events)
}

// GoOnline выводит партнера на линию
func (h *SessionHandler) GoOnline(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "online", h.session.GoOnline)
}

// GoOffline снимает партнера с линии
func (h *SessionHandler) GoOffline(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "offline", h.session.GoOffline)
}

// Retry повторяет неудавшуюся операцию
func (h *SessionHandler) Retry(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "retry", h.session.Retry)
}

// Accept принимает входящий запрос
func (h *SessionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "accept", h.session.Accept)
}

// Reject отклоняет входящий запрос
func (h *SessionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.run(w, r, "reject", func(ctx context.Context) error {
		return h.session.Reject(ctx, req.Reason)
	})
}

// Deliver начинает участок до пункта назначения
func (h *SessionHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "deliver", h.session.Deliver)
}

// Arrive отмечает прибытие
func (h *SessionHandler) Arrive(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "arrive", h.session.Arrive)
}

// Finish завершает заказ
func (h *SessionHandler) Finish(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "finish", h.session.Finish)
}

// run выполняет действие и отвечает новым состоянием сессии
func (h *SessionHandler) run(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context) error) {
	if err := fn(r.Context()); err != nil {
		h.log.WithError(err).WithField("action", action).Warn("Session action failed")
		writeErrorResponse(w, statusForError(err), messageForError(err))
		return
	}
	writeJSONResponse(w, http.StatusOK, h.session.State())
}
