package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ArticlesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsgate_articles_ingested_total",
		Help: "The total number of articles received for routing",
	}, []string{"source"})

	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsgate_decisions_total",
		Help: "Routing decisions by terminal verdict",
	}, []string{"verdict"})

	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsgate_rejections_total",
		Help: "Quality filter rejections by reason code",
	}, []string{"reason"})

	RoutedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsgate_routed_total",
		Help: "Routed articles by assigned tier",
	}, []string{"tier"})

	BudgetFallthroughTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsgate_budget_fallthrough_total",
		Help: "Tier-eligible articles demoted because a budget reservation failed",
	}, []string{"from_tier"})

	DedupIndexSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "newsgate_dedup_index_size",
		Help: "Current number of entries in the duplicate index",
	})

	BudgetSpendCents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "newsgate_budget_spend_cents",
		Help: "Reserved enrichment spend for the current day in cents",
	})

	BudgetCalls = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "newsgate_budget_calls",
		Help: "Reserved enrichment calls for the current day by tier",
	}, []string{"tier"})

	RouteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "newsgate_route_duration_seconds",
		Help:    "Duration of a single routing pass",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	StageARequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsgate_stage_a_requests_total",
		Help: "Stage-A enrichment dispatches by outcome",
	}, []string{"status"})

	StageADuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "newsgate_stage_a_duration_seconds",
		Help:    "Duration of Stage-A enrichment requests",
		Buckets: prometheus.DefBuckets,
	})
)
