package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_turns_total",
		Help: "Total number of inbound activities processed",
	}, []string{"activity_type"})

	TurnErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_turn_errors_total",
		Help: "Total number of turns that ended in an unhandled error",
	})

	FlowsStartedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_flows_started_total",
		Help: "Total number of dialog flows started",
	}, []string{"flow"})

	FlowsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_flows_completed_total",
		Help: "Total number of dialog flows that reached a terminal step",
	}, []string{"flow", "outcome"})

	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_purchases_total",
		Help: "Total number of purchase flows by terminal outcome",
	}, []string{"outcome"})

	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_requests_total",
		Help: "Total number of e-commerce API calls",
	}, []string{"operation", "outcome"})

	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Latency of e-commerce API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	LedgerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_events_total",
		Help: "Total number of purchase events recorded in the ledger",
	}, []string{"event_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
