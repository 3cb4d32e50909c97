package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_ui_rpc_requests_total",
			Help: "JSON-RPC messages handled, by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	toolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remote_ui_tool_duration_seconds",
			Help:    "Tool call latency, by tool and outcome.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool", "outcome"},
	)

	snapshotLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_ui_snapshot_cache_lookups_total",
			Help: "Snapshot cache lookups, by result (hit or miss).",
		},
		[]string{"result"},
	)
)
