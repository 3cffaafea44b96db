package handlers

import (
	"math"
	"net/http"

	"partner-tracker/internal/logger"
	"partner-tracker/internal/models"
)

// LocationSink принимает фиксы устройства
type LocationSink interface {
	Publish(pos models.Position)
	SetAvailability(update models.AvailabilityUpdate)
}

// LocationHandler представляет обработчик геолокации устройства
type LocationHandler struct {
	sink LocationSink
	log  *logger.Logger
}

// NewLocationHandler создает новый обработчик геолокации
func NewLocationHandler(sink LocationSink, log *logger.Logger) *LocationHandler {
	return &LocationHandler{
		sink: sink,
		log:  log,
	}
}

// PostFix принимает фикс геолокации
func (h *LocationHandler) PostFix(w http.ResponseWriter, r *http.Request) {
	var pos models.Position
	if err := decodeJSON(w, r, &pos); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg := validatePosition(&pos); msg != "" {
		writeErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	h.sink.Publish(pos)
	w.WriteHeader(http.StatusAccepted)
}

// PutAvailability обновляет состояние служб геолокации устройства
func (h *LocationHandler) PutAvailability(w http.ResponseWriter, r *http.Request) {
	var update models.AvailabilityUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.log.WithField("service_enabled", update.ServiceEnabled).
		WithField("permission_granted", update.PermissionGranted).
		Info("Location availability updated")

	h.sink.SetAvailability(update)
	writeJSONResponse(w, http.StatusOK, update)
}

// validatePosition возвращает текст ошибки или пустую строку
func validatePosition(pos *models.Position) string {
	if math.IsNaN(pos.Lat) || math.IsNaN(pos.Lon) {
		return "Coordinates must be numbers"
	}
	if pos.Lat < -90 || pos.Lat > 90 {
		return "Latitude must be between -90 and 90"
	}
	if pos.Lon < -180 || pos.Lon > 180 {
		return "Longitude must be between -180 and 180"
	}
	if pos.Lat == 0 && pos.Lon == 0 {
		return "Coordinates are required"
	}
	return ""
}
