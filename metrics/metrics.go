// Package metrics exposes the pipeline's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SwipesRecorded counts durably recorded swipes by direction.
	SwipesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitalong_swipes_recorded_total",
		Help: "Total swipes durably recorded, by direction",
	}, []string{"direction"})

	// MatchesCreated counts matches created by the detector.
	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gitalong_matches_created_total",
		Help: "Total matches created by the match detector",
	})

	// MatchRacesResolved counts create-if-absent losses observed by the
	// detector. These are successes: the concurrent invocation already won.
	MatchRacesResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gitalong_match_races_resolved_total",
		Help: "Total match creations that found the record already present",
	})

	// NotificationJobsCreated counts dispatched jobs by kind (match, interest).
	NotificationJobsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitalong_notification_jobs_created_total",
		Help: "Total notification jobs created, by trigger kind",
	}, []string{"kind"})

	// PushDeliveries counts terminal push outcomes by status (sent, failed).
	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitalong_push_deliveries_total",
		Help: "Total terminal push delivery outcomes, by status",
	}, []string{"status"})

	// EventRedeliveries counts handler failures that triggered redelivery.
	EventRedeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitalong_event_redeliveries_total",
		Help: "Total event deliveries that failed and were rescheduled, by type",
	}, []string{"type"})

	// EventsDropped counts deliveries abandoned after the attempt budget.
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitalong_events_dropped_total",
		Help: "Total event deliveries dropped after exhausting attempts, by type",
	}, []string{"type"})

	// RecommendationRequests counts provider calls by outcome
	// (engine, cache, empty).
	RecommendationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitalong_recommendation_requests_total",
		Help: "Total recommendation fetches, by serving source",
	}, []string{"source"})

	// EngineLatency observes matching-engine round trips.
	EngineLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gitalong_engine_request_duration_seconds",
		Help:    "Duration of matching engine requests",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
)
