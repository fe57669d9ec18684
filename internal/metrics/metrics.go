package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lobbybot"

var (
	ConnectRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "connect_retries_total",
		Help:      "Counts Steam reconnect attempts per bot login",
	}, []string{"bot"})

	LaunchRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "launch_retries_total",
		Help:      "Counts lobby launch attempts that timed out",
	}, []string{"bot"})

	SessionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "finished_total",
		Help:      "Counts finished bot sessions by outcome",
	}, []string{"outcome"})

	Kicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "kicks_total",
		Help:      "Counts auto-moderation actions by kind",
	}, []string{"kind"})

	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "sessions_started_total",
		Help:      "Counts bot sessions spawned by the worker",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "active_sessions",
		Help:      "Number of bot sessions currently running",
	})

	DispatchDeferred = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "dispatch_deferred_total",
		Help:      "Counts poll cycles that left queued jobs waiting",
	}, []string{"reason"})
)
