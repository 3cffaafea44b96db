package handlers

import (
	"net/http"
	"strings"
)

// Router собирает обработчики в HTTP маршруты
type Router struct {
	Session    *SessionHandler
	Location   *LocationHandler
	Health     *HealthHandler
	Cache      *CacheHandler     // может быть nil
	Rejections *RejectionHandler // может быть nil
	Journal    *JournalHandler   // может быть nil
	Metrics    http.Handler      // может быть nil
}

// Mux настраивает маршруты HTTP сервера
func (rt *Router) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("/health", allow(http.MethodGet, rt.Health.Health))
	mux.HandleFunc("/health/readiness", allow(http.MethodGet, rt.Health.Readiness))
	mux.HandleFunc("/health/liveness", allow(http.MethodGet, rt.Health.Liveness))

	// Session endpoints
	mux.HandleFunc("/api/session/state", allow(http.MethodGet, rt.Session.GetState))
	mux.HandleFunc("/api/session/events", allow(http.MethodGet, rt.Session.GetEvents))
	mux.HandleFunc("/api/session/online", allow(http.MethodPost, rt.Session.GoOnline))
	mux.HandleFunc("/api/session/offline", allow(http.MethodPost, rt.Session.GoOffline))
	mux.HandleFunc("/api/session/retry", allow(http.MethodPost, rt.Session.Retry))

	// Order action endpoints
	mux.HandleFunc("/api/orders/accept", allow(http.MethodPost, rt.Session.Accept))
	mux.HandleFunc("/api/orders/reject", allow(http.MethodPost, rt.Session.Reject))
	mux.HandleFunc("/api/orders/deliver", allow(http.MethodPost, rt.Session.Deliver))
	mux.HandleFunc("/api/orders/arrive", allow(http.MethodPost, rt.Session.Arrive))
	mux.HandleFunc("/api/orders/finish", allow(http.MethodPost, rt.Session.Finish))

	// Location endpoints
	mux.HandleFunc("/api/location", allow(http.MethodPost, rt.Location.PostFix))
	mux.HandleFunc("/api/location/availability", allow(http.MethodPut, rt.Location.PutAvailability))

	if rt.Cache != nil {
		mux.HandleFunc("/api/cache/metrics", allow(http.MethodGet, rt.Cache.GetMetrics))
	}
	if rt.Rejections != nil {
		mux.HandleFunc("/api/rejections", handleRejectionsRoute(rt.Rejections))
	}
	if rt.Journal != nil {
		mux.HandleFunc("/api/journal", allow(http.MethodGet, rt.Journal.GetRecent))
		mux.HandleFunc("/api/journal/orders/", allow(http.MethodGet, rt.Journal.GetOrderHistory))
	}
	if rt.Metrics != nil {
		mux.Handle("/metrics", rt.Metrics)
	}

	return mux
}

// handleRejectionsRoute обрабатывает маршруты счетчика отказов
func handleRejectionsRoute(handler *RejectionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.GetStatus(w, r)
		case http.MethodDelete:
			handler.Reset(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// CORS добавляет CORS заголовки
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", strings.Join([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		}, ", "))
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
