// Package metrics exposes the node's Prometheus gauges/counters. Adapted
// from the teacher's pool-facing metric set to the chain-state-engine
// domain this spec describes: chain height, mempool size, difficulty
// target, connected peers, and blocks/transactions processed.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChainHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nanochain",
		Name:      "chain_height",
		Help:      "Number of blocks in the local chain.",
	})

	MempoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nanochain",
		Name:      "mempool_size",
		Help:      "Number of pending transactions in the mempool.",
	})

	PeersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nanochain",
		Name:      "peers_connected",
		Help:      "Number of connected peer node sessions.",
	})

	DifficultyTarget = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nanochain",
		Name:      "difficulty_target_log2",
		Help:      "log2 of the current difficulty target (higher means easier).",
	})

	BlocksAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nanochain",
		Name:      "blocks_accepted_total",
		Help:      "Total blocks accepted onto the chain.",
	})

	BlocksRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nanochain",
		Name:      "blocks_rejected_total",
		Help:      "Total blocks rejected by validation, labeled by error kind.",
	}, []string{"kind"})

	TransactionsAdmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nanochain",
		Name:      "mempool_admissions_total",
		Help:      "Total transactions successfully admitted to the mempool.",
	})

	TransactionsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nanochain",
		Name:      "mempool_rejections_total",
		Help:      "Total transactions rejected by mempool admission, labeled by error kind.",
	}, []string{"kind"})

	RetargetEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nanochain",
		Name:      "retarget_events_total",
		Help:      "Total times the difficulty target was recomputed.",
	})
)

func init() {
	prometheus.MustRegister(
		ChainHeight,
		MempoolSize,
		PeersConnected,
		DifficultyTarget,
		BlocksAccepted,
		BlocksRejected,
		TransactionsAdmitted,
		TransactionsRejected,
		RetargetEvents,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
