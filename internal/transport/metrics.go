package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "remote_ui_sessions_active",
		Help: "Open MCP sessions.",
	})

	sessionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_ui_session_events_total",
			Help: "Session lifecycle events (opened, closed_<reason>).",
		},
		[]string{"event"},
	)

	sessionRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_ui_http_rejections_total",
			Help: "Requests rejected before dispatch, by reason.",
		},
		[]string{"reason"},
	)
)
