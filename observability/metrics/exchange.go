package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type ExchangeMetrics struct {
	swapsExecuted        prometheus.Counter
	swapFailures         *prometheus.CounterVec
	reentrancyRejected   prometheus.Counter
	recyclesExecuted     prometheus.Counter
	destinationLiquidity prometheus.Gauge
}

var (
	exchangeOnce     sync.Once
	exchangeRegistry *ExchangeMetrics
)

func Exchange() *ExchangeMetrics {
	exchangeOnce.Do(func() {
		exchangeRegistry = &ExchangeMetrics{
			swapsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "exchange_swaps_executed_total",
				Help: "Count of successfully executed swaps.",
			}),
			swapFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "exchange_swap_failures_total",
				Help: "Count of failed swap attempts by reason.",
			}, []string{"reason"}),
			reentrancyRejected: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "exchange_reentrancy_rejected_total",
				Help: "Count of protected calls rejected while the guard was held.",
			}),
			recyclesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "exchange_recycles_executed_total",
				Help: "Count of owner sweeps of unclaimed destination liquidity.",
			}),
			destinationLiquidity: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "exchange_destination_liquidity",
				Help: "Destination-token balance currently held by the vault.",
			}),
		}
		prometheus.MustRegister(
			exchangeRegistry.swapsExecuted,
			exchangeRegistry.swapFailures,
			exchangeRegistry.reentrancyRejected,
			exchangeRegistry.recyclesExecuted,
			exchangeRegistry.destinationLiquidity,
		)
	})
	return exchangeRegistry
}

func (m *ExchangeMetrics) ObserveSwap() {
	if m == nil {
		return
	}
	m.swapsExecuted.Inc()
}

func (m *ExchangeMetrics) ObserveSwapFailure(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.swapFailures.WithLabelValues(reason).Inc()
}

func (m *ExchangeMetrics) ObserveReentrancyRejected() {
	if m == nil {
		return
	}
	m.reentrancyRejected.Inc()
}

func (m *ExchangeMetrics) ObserveRecycle() {
	if m == nil {
		return
	}
	m.recyclesExecuted.Inc()
}

func (m *ExchangeMetrics) SetDestinationLiquidity(balance *big.Int) {
	if m == nil || balance == nil {
		return
	}
	value, _ := new(big.Float).SetInt(balance).Float64()
	m.destinationLiquidity.Set(value)
}
