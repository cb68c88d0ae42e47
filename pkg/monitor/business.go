package monitor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds settlement pipeline metrics
type BusinessMetrics struct {
	SettlementTotal        *prometheus.CounterVec
	SettlementAmountTotal  *prometheus.CounterVec
	SettlementDuration     *prometheus.HistogramVec
	PartialSettlementTotal prometheus.Counter
	SignerQueueDepth       prometheus.Gauge
	ReconcilerRepairsTotal prometheus.Counter
	OutboxRelayedTotal     prometheus.Counter
}

// Global Metrics Instance
var Business *BusinessMetrics

var businessOnce sync.Once

// InitBusinessMetrics initializes settlement metrics. promauto registers
// against the default registry, so only the first call builds the set.
func InitBusinessMetrics() {
	businessOnce.Do(initBusinessMetrics)
}

func initBusinessMetrics() {
	Business = &BusinessMetrics{
		SettlementTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_settlement_total",
			Help: "Total number of settlement attempts by final status",
		}, []string{"status"}),
		SettlementAmountTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_settlement_amount_total",
			Help: "Total settled amount in USDC",
		}, []string{"network"}),
		SettlementDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gallery_settlement_duration_seconds",
			Help:    "End-to-end duration of settlement attempts",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"network"}),
		PartialSettlementTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gallery_partial_settlement_total",
			Help: "Settlements that halted after funds already moved; requires reconciliation",
		}),
		SignerQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gallery_signer_queue_depth",
			Help: "Transactions waiting on the shared signing key",
		}),
		ReconcilerRepairsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gallery_reconciler_repairs_total",
			Help: "Ledger records re-derived from settlement attempts",
		}),
		OutboxRelayedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gallery_outbox_relayed_total",
			Help: "Outbox messages published to the message queue",
		}),
	}
}
