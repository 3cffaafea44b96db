package handlers

import (
	"context"
	"net/http"
	"strconv"

	"partner-tracker/internal/logger"
	"partner-tracker/internal/models"

	"github.com/google/uuid"
)

// Journal представляет чтение журнала переходов заказов
type Journal interface {
	OrderHistory(ctx context.Context, orderID uuid.UUID) ([]*models.TransitionRecord, error)
	Recent(ctx context.Context, driverID string, limit int) ([]*models.TransitionRecord, error)
}

// JournalHandler представляет обработчик журнала поездок
type JournalHandler struct {
	journal  Journal
	driverID string
	log      *logger.Logger
}

// NewJournalHandler создает новый обработчик журнала
func NewJournalHandler(journal Journal, driverID string, log *logger.Logger) *JournalHandler {
	return &JournalHandler{
		journal:  journal,
		driverID: driverID,
		log:      log,
	}
}

// GetRecent возвращает последние переходы партнера
func (h *JournalHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.journal.Recent(r.Context(), h.driverID, limit)
	if err != nil {
		h.log.WithError(err).Error("Failed to get recent transitions")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to get journal")
		return
	}
	writeJSONResponse(w, http.StatusOK, nonNil(records))
}

// GetOrderHistory возвращает переходы заказа: GET /api/journal/orders/{id}
func (h *JournalHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	orderID, err := extractUUIDFromPath(r.URL.Path, "/api/journal/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	records, err := h.journal.OrderHistory(r.Context(), orderID)
	if err != nil {
		h.log.WithError(err).WithField("order_id", orderID).Error("Failed to get order history")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to get order history")
		return
	}
	if len(records) == 0 {
		writeErrorResponse(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSONResponse(w, http.StatusOK, records)
}

func nonNil(records []*models.TransitionRecord) []*models.TransitionRecord {
	if records == nil {
		return []*models.TransitionRecord{}
	}
	return records
}
