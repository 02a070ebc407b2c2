package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_validations_total",
			Help: "Purchase validations by resulting ia_status.",
		},
		[]string{"status"},
	)

	TicketsAssignedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_tickets_assigned_total",
			Help: "Lottery tickets drawn from the pool, by tier.",
		},
		[]string{"tier"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_notifications_total",
			Help: "Notification dispatch attempts by channel and terminal status.",
		},
		[]string{"channel", "status"},
	)
)
