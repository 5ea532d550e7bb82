package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeReplied    = "replied"
	outcomeSilent     = "silent"
	outcomeSendFailed = "send_failed"
	outcomePanicked   = "panicked"

	statusSuccess = "success"
	statusError   = "error"
)

var (
	natsInboundEventsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispatcher",
			Name:      "nats_events_received_total",
			Help:      "Total number of inbound batch events received from NATS.",
		},
		[]string{"subject"},
	)

	messagesDispatchedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispatcher",
			Name:      "messages_dispatched_total",
			Help:      "Total number of inbound messages dispatched.",
		},
		[]string{"message_type", "outcome"}, // outcome: "replied", "silent", "send_failed", "panicked"
	)

	repliesSentCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispatcher",
			Name:      "replies_sent_total",
			Help:      "Total number of auto-replies attempted, by kind and status.",
		},
		[]string{"reply_kind", "status"},
	)

	statusUpdatesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispatcher",
			Name:      "status_updates_total",
			Help:      "Total number of delivery status updates received.",
		},
		[]string{"status"},
	)

	dispatchDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dispatcher",
			Name:      "message_dispatch_duration_seconds",
			Help:      "Duration of single-message dispatch including the reply round trip.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"message_type"},
	)
)
