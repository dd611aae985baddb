package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	committerBalanceGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "commitpool",
		Subsystem: "ledger",
		Name:      "committer_balance",
		Help:      "Sum of all committer balances in token minor units.",
	})
	slashedBalanceGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "commitpool",
		Subsystem: "ledger",
		Name:      "slashed_balance",
		Help:      "Protocol-owned slashed funds in token minor units.",
	})
	depositsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "commitpool",
		Subsystem: "ledger",
		Name:      "deposits_total",
		Help:      "Number of successful deposits.",
	})
	withdrawalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "commitpool",
		Subsystem: "ledger",
		Name:      "withdrawals_total",
		Help:      "Number of successful withdrawals.",
	})
	commitmentsOpenedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "commitpool",
		Subsystem: "commitments",
		Name:      "opened_total",
		Help:      "Number of commitments opened.",
	})
	commitmentsSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "commitpool",
		Subsystem: "commitments",
		Name:      "settled_total",
		Help:      "Number of commitments settled, by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		committerBalanceGauge,
		slashedBalanceGauge,
		depositsTotal,
		withdrawalsTotal,
		commitmentsOpenedTotal,
		commitmentsSettledTotal,
	)
}

// RecordAggregates updates the balance gauges after a committed mutation.
func RecordAggregates(committerBalance, slashedBalance int64) {
	committerBalanceGauge.Set(float64(committerBalance))
	slashedBalanceGauge.Set(float64(slashedBalance))
}

// RecordDeposit counts a successful deposit.
func RecordDeposit() {
	depositsTotal.Inc()
}

// RecordWithdrawal counts a successful withdrawal.
func RecordWithdrawal() {
	withdrawalsTotal.Inc()
}

// RecordCommitmentOpened counts a new commitment.
func RecordCommitmentOpened() {
	commitmentsOpenedTotal.Inc()
}

// RecordCommitmentSettled counts a settlement by outcome.
func RecordCommitmentSettled(met bool) {
	outcome := "slashed"
	if met {
		outcome = "met"
	}
	commitmentsSettledTotal.WithLabelValues(outcome).Inc()
}
