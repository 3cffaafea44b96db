// Package metrics содержит prometheus коллекторы сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partner_tracker_poll_ticks_total",
		Help: "The total number of current order polls",
	})

	PollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partner_tracker_poll_failures_total",
		Help: "The total number of failed current order polls",
	})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partner_tracker_status_transitions_total",
		Help: "Order status transitions observed by the session",
	}, []string{"status"})

	Snaps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partner_tracker_snaps_total",
		Help: "Position reconciliations by outcome",
	}, []string{"outcome"})

	RouteFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partner_tracker_route_fetches_total",
		Help: "Route fetches by leg and result",
	}, []string{"leg", "result"})

	Alerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partner_tracker_alerts_total",
		Help: "Blocking alerts shown to the partner",
	}, []string{"code"})

	Online = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "partner_tracker_online",
		Help: "1 while the partner is online and polling for orders",
	})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partner_tracker_route_cache_requests_total",
		Help: "Route cache lookups by result",
	}, []string{"result"})

	PushMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partner_tracker_push_messages_total",
		Help: "Push data messages rendered as local notifications",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "partner_tracker_http_request_duration_seconds",
		Help:    "Time spent serving HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "code"})
)
