package handlers

import (
	"context"
	"net/http"

	"partner-tracker/internal/logger"
	"partner-tracker/internal/services"
)

// RejectionCounter представляет дневной счетчик отказов
type RejectionCounter interface {
	Status(ctx context.Context, driverID string) (*services.RejectionStatus, error)
	Reset(ctx context.Context, driverID string) error
}

// RejectionHandler обрабатывает запросы о дневном лимите отказов
type RejectionHandler struct {
	counter  RejectionCounter
	driverID string
	log      *logger.Logger
}

// NewRejectionHandler создает новый RejectionHandler
func NewRejectionHandler(counter RejectionCounter, driverID string, log *logger.Logger) *RejectionHandler {
	return &RejectionHandler{
		counter:  counter,
		driverID: driverID,
		log:      log,
	}
}

// GetStatus возвращает состояние лимита отказов без изменения счетчика
func (h *RejectionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.counter.Status(r.Context(), h.driverID)
	if err != nil {
		h.log.WithError(err).Error("Failed to get rejection status")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to get rejection status")
		return
	}
	writeJSONResponse(w, http.StatusOK, status)
}

// Reset сбрасывает счетчик отказов за сегодня
func (h *RejectionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.counter.Reset(r.Context(), h.driverID); err != nil {
		h.log.WithError(err).Error("Failed to reset rejection counter")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to reset rejection counter")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
