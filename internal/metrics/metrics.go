// Package metrics define las métricas Prometheus del servicio. Vive aparte para
// que store, events y http puedan instrumentar sin ciclos de import.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	HTTPInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo",
	})

	// result: ok | invalid | duplicate | weak | unavailable
	AuthAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Intentos de registro/login por resultado",
	}, []string{"op", "result"})

	// reason: missing | malformed | expired
	SessionRejects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_rejects_total",
		Help: "Tokens rechazados por motivo",
	}, []string{"reason"})

	StoreRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_retries_total",
		Help: "Reintentos por error transitorio del store",
	}, []string{"op"})

	StoreUnavailable = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_unavailable_total",
		Help: "Operaciones que terminaron en StoreUnavailable",
	}, []string{"op"})

	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Eventos encolados por tipo",
	}, []string{"type"})

	EventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_dropped_total",
		Help: "Eventos descartados por buffer lleno o dispatcher cerrado",
	}, []string{"type"})

	EventDeliveryFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_delivery_failures_total",
		Help: "Fallos de entrega por sink",
	}, []string{"sink"})

	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limited_total",
		Help: "Requests rechazadas por rate limit",
	}, []string{"route"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequests, HTTPDuration, HTTPInflight,
		AuthAttempts, SessionRejects,
		StoreRetries, StoreUnavailable,
		EventsPublished, EventsDropped, EventDeliveryFailures,
		RateLimited,
	}
}

// Register registra todas las métricas (y los collectors extra) en reg.
// Duplicados se ignoran, así que puede llamarse más de una vez.
func Register(reg prometheus.Registerer, extra ...prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range append(collectors(), extra...) {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler expone /metrics para el gatherer dado (default si nil).
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
