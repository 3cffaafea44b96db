package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"partner-tracker/internal/logger"
	"partner-tracker/internal/metrics"
)

// statusRecorder запоминает код ответа
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// getClientIP извлекает IP адрес клиента из запроса
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	return ip
}

// Logging логирует HTTP запросы и пишет длительность в prometheus
func Logging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			metrics.RequestDuration.
				WithLabelValues(r.Method, routeLabel(r.URL.Path), strconv.Itoa(rec.status)).
				Observe(duration.Seconds())

			entry := log.WithField("method", r.Method).
				WithField("path", r.URL.Path).
				WithField("status", rec.status).
				WithField("duration", duration).
				WithField("client_ip", getClientIP(r))
			if rec.status >= http.StatusInternalServerError {
				entry.Warn("HTTP request failed")
			} else {
				entry.Debug("HTTP request served")
			}
		})
	}
}

// routeLabel убирает идентификаторы из пути, чтобы не раздувать метки
func routeLabel(path string) string {
	if strings.HasPrefix(path, "/api/journal/orders/") {
		return "/api/journal/orders/{id}"
	}
	return path
}
