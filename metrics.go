package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// routeQueriesTotal counts route queries by outcome: found, not_found or unknown
	routeQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_route_queries_total",
		Help: "Total route queries by result",
	}, []string{"result"})

	routeQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "campus_route_query_duration_seconds",
		Help:    "Route query duration in seconds, including cache lookups",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~80ms
	})

	routeCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_route_cache_total",
		Help: "Route cache lookups by result",
	}, []string{"result"}) // hit, miss or error

	graphWaypoints = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campus_graph_waypoints",
		Help: "Number of waypoints in the loaded navigation graph",
	})
)
