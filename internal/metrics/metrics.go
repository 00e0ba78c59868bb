package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "group_guard"

var (
	BotActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "bot_actions_total",
		Help:      "Total number of bot actions",
	}, []string{"action"})

	DeletedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "deleted_messages_total",
		Help:      "Total number of messages deleted by the moderation policy",
	}, []string{"reason"})

	Infractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "infractions_total",
		Help:      "Total number of recorded infractions by resulting action",
	}, []string{"action"})

	Welcomes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "welcomes_total",
		Help:      "Total number of welcome messages sent",
	})

	UpdateProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "update_processing_duration_seconds",
		Help:      "Duration of update processing",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type", "status"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "active_sessions",
		Help:      "Number of open admin input sessions",
	})

	PendingDeletions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "pending_deletions",
		Help:      "Number of scheduled message deletions not yet run",
	})

	FloodTrackedSenders = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "flood_tracked_senders",
		Help:      "Number of senders tracked by the flood filter",
	})
)

func IncBotAction(action string) {
	BotActions.WithLabelValues(action).Inc()
}

func IncDeletedMessages(reason string) {
	DeletedMessages.WithLabelValues(reason).Inc()
}

func IncInfraction(action string) {
	Infractions.WithLabelValues(action).Inc()
}

func IncWelcome() {
	Welcomes.Inc()
}

func SetActiveSessions(count float64) {
	ActiveSessions.Set(count)
}

func SetPendingDeletions(count float64) {
	PendingDeletions.Set(count)
}

func SetFloodTrackedSenders(count float64) {
	FloodTrackedSenders.Set(count)
}

func ObserveUpdateProcessing(updateType string, duration float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	UpdateProcessingDuration.WithLabelValues(updateType, status).Observe(duration)
}
