package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecampaign_http_requests_total",
		Help: "HTTP requests by route pattern, method and status code",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voicecampaign_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	CampaignMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecampaign_campaign_mutations_total",
		Help: "Campaign writes by operation",
	}, []string{"op"})

	CallsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecampaign_calls_recorded_total",
		Help: "Call history records created, by source",
	}, []string{"source"})

	QueuePublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecampaign_queue_publish_errors_total",
		Help: "Events that could not be published",
	}, []string{"topic"})

	HarnessActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicecampaign_harness_active_sessions",
		Help: "Test-call sessions currently open",
	})

	HarnessTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecampaign_harness_turns_total",
		Help: "Test-call turns by outcome (ok, timeout, error, dropped)",
	}, []string{"outcome"})
)
