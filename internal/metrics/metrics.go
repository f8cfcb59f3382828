// Package metrics holds Prometheus instruments that are used across the
// repository.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OAIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oai_requests_total",
			Help: "Cumulative number of OAI-PMH requests by verb.",
		}, []string{"verb"})

	OAIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oai_errors_total",
			Help: "Cumulative number of OAI-PMH error responses by code.",
		}, []string{"code"})

	OAIRecordsServedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "oai_records_served_total",
			Help: "Cumulative number of records or headers written to harvesters.",
		})

	OAIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oai_request_duration_seconds",
			Help:    "OAI-PMH request latency by verb.",
			Buckets: prometheus.DefBuckets,
		}, []string{"verb"})

	KindCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kind_cache_hits_total",
			Help: "Cumulative number of kind list lookups served from memory.",
		})

	KindCacheLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kind_cache_load_total",
			Help: "Cumulative number of kind list loads from the catalogue.",
		})

	KindCacheLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kind_cache_load_errors_total",
			Help: "Cumulative number of failed kind list loads.",
		})

	MappingUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapping_updates_total",
			Help: "Cumulative number of mapping saves by outcome.",
		}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		OAIRequestsTotal,
		OAIErrorsTotal,
		OAIRecordsServedTotal,
		OAIRequestDuration,
		KindCacheHitsTotal,
		KindCacheLoadTotal,
		KindCacheLoadErrorsTotal,
		MappingUpdatesTotal,
	)
}
