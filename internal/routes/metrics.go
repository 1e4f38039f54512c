package routes

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filterEvaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modguard_filter_evaluations_total",
		Help: "Texts evaluated by the word filter.",
	})
	filterBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modguard_filter_blocked_total",
		Help: "Texts rejected by the word filter.",
	})
	reportsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modguard_reports_submitted_total",
		Help: "Reports accepted by report intake.",
	})
	actionsAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modguard_actions_applied_total",
		Help: "Moderation actions recorded, by type.",
	}, []string{"action_type"})
	cascadeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modguard_cascade_failures_total",
		Help: "Action cascades whose side effects partially failed.",
	})
	enforcementBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modguard_enforcement_blocks_total",
		Help: "Content-creation attempts blocked by an active ban.",
	})
)
