package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsTotal counts bridge transactions by terminal status
	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_transactions_total",
			Help: "Total number of bridge transactions",
		},
		[]string{"status"},
	)

	// ProcessingDuration tracks bridge transaction processing time
	ProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_processing_duration_seconds",
			Help:    "Bridge transaction processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	// TransactionAmount tracks the amount of tokens bridged
	TransactionAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_transaction_amount",
			Help:    "Amount of tokens bridged",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		},
		[]string{"token"},
	)

	// ConsensusRounds counts consensus rounds by outcome
	ConsensusRounds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_consensus_rounds_total",
			Help: "Total number of validator consensus rounds",
		},
		[]string{"outcome"},
	)

	// LiquidityUtilization tracks current utilization per pool
	LiquidityUtilization = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_liquidity_utilization",
			Help: "Current liquidity pool utilization rate",
		},
		[]string{"source_chain", "destination_chain", "token"},
	)

	// StaleTransactionsSwept counts transactions force-failed by the sweep
	StaleTransactionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_stale_transactions_swept_total",
			Help: "Total number of stale transactions force-failed by the synchronization sweep",
		},
	)

	// ActiveSubscribers tracks the current number of transaction subscribers
	ActiveSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_active_subscribers",
			Help: "Current number of transaction update subscribers",
		},
	)

	// ErrorsTotal counts errors by component and type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)
