// Package metrics exposes Prometheus instruments for pool operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "amm"
	subsystem = "pool"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the instruments updated by the dispatcher. A nil *Metrics
// records nothing.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationLatency  *prometheus.HistogramVec
	LPSupply          *prometheus.GaugeVec
	SwapVolume        *prometheus.CounterVec
	SwapFeesCollected *prometheus.CounterVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operations_total",
				Help:      "Pool operations by kind and outcome",
			},
			[]string{"operation", "result"},
		),
		OperationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operation_latency_seconds",
				Help:      "Pool operation latency including ledger execution",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LPSupply: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "lp_supply",
				Help:      "Outstanding LP shares",
			},
			[]string{"pool"},
		),
		SwapVolume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "swap_volume_total",
				Help:      "Swap input volume in base units",
			},
			[]string{"pool", "token"},
		),
		SwapFeesCollected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "swap_fees_collected_total",
				Help:      "Swap fees retained by the input vault",
			},
			[]string{"pool", "token"},
		),
	}
}

// ObserveOperation counts one operation outcome and its latency.
func (m *Metrics) ObserveOperation(operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.Operations.WithLabelValues(operation, result).Inc()
	m.OperationLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) SetLPSupply(pool string, supply uint64) {
	if m == nil {
		return
	}
	m.LPSupply.WithLabelValues(pool).Set(float64(supply))
}

func (m *Metrics) AddSwap(pool, token string, amountIn, fee uint64) {
	if m == nil {
		return
	}
	m.SwapVolume.WithLabelValues(pool, token).Add(float64(amountIn))
	m.SwapFeesCollected.WithLabelValues(pool, token).Add(float64(fee))
}
