package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// MetricsRegistry holds the arena's Prometheus collectors.
	MetricsRegistry = prometheus.NewRegistry()

	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wager_arena",
			Subsystem: "actor",
			Name:      "actions_total",
			Help:      "Total number of handled actions by outcome event.",
		},
		[]string{"action", "event"},
	)

	nftCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wager_arena",
			Subsystem: "nft",
			Name:      "calls_total",
			Help:      "Total number of outbound NFT service calls.",
		},
		[]string{"call", "result"},
	)

	waitingQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wager_arena",
			Subsystem: "matchmaking",
			Name:      "waiting_matches",
			Help:      "Matches waiting for an opponent.",
		},
	)

	pendingTransfers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wager_arena",
			Subsystem: "escrow",
			Name:      "pending_transfers",
			Help:      "Match rewards not yet delivered.",
		},
	)

	transactionSequence = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wager_arena",
			Subsystem: "escrow",
			Name:      "transaction_sequence",
			Help:      "Next transaction id to be issued.",
		},
	)

	snapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wager_arena",
			Subsystem: "snapshot",
			Name:      "writes_total",
			Help:      "State snapshot writes by target and result.",
		},
		[]string{"target", "result"},
	)
)

func init() {
	MetricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		actionsTotal,
		nftCallsTotal,
		waitingQueueDepth,
		pendingTransfers,
		transactionSequence,
		snapshotsTotal,
	)
}

func recordAction(action ActionKind, event EventKind) {
	actionsTotal.WithLabelValues(string(action), string(event)).Inc()
}

func recordNFTCall(call, result string) {
	nftCallsTotal.WithLabelValues(call, result).Inc()
}

// RecordSnapshot counts a snapshot write to target ("postgres", "r2").
func RecordSnapshot(target string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	snapshotsTotal.WithLabelValues(target, result).Inc()
}

func observeState(s *State) {
	waitingQueueDepth.Set(float64(len(s.Waiting)))
	pendingTransfers.Set(float64(len(s.Pending)))
	transactionSequence.Set(float64(s.TxSeq))
}
