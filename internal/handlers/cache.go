package handlers

import (
	"net/http"

	"partner-tracker/internal/logger"
	"partner-tracker/internal/services"
)

// CacheHandler представляет обработчик для кеша маршрутов
type CacheHandler struct {
	routeCache *services.RouteCache
	log        *logger.Logger
}

// NewCacheHandler создает новый обработчик кеша
func NewCacheHandler(routeCache *services.RouteCache, log *logger.Logger) *CacheHandler {
	return &CacheHandler{
		routeCache: routeCache,
		log:        log,
	}
}

// GetMetrics возвращает метрики кеширования маршрутов
func (h *CacheHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.routeCache.Metrics())
}
