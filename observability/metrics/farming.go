package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// FarmingMetrics tracks liquidity-mining reward accounting activity for
// the prometheus /metrics endpoint.
type FarmingMetrics struct {
	EmissionPool *prometheus.GaugeVec
	RewardsPaid  *prometheus.CounterVec
	RoundingDust *prometheus.GaugeVec
	ClaimsTotal  *prometheus.CounterVec
	ActiveFarms  prometheus.Gauge
}

var (
	farmingOnce     sync.Once
	farmingRegistry *FarmingMetrics
)

// Farming returns the lazily-initialised, process-wide farming metrics
// registry.
func Farming() *FarmingMetrics {
	farmingOnce.Do(func() {
		farmingRegistry = &FarmingMetrics{
			EmissionPool: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "warehouse",
				Subsystem: "farming",
				Name:      "emission_pool",
				Help:      "Undistributed accumulated_rewards held by each global farm.",
			}, []string{"global_farm_id"}),
			RewardsPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "warehouse",
				Subsystem: "farming",
				Name:      "rewards_paid_total",
				Help:      "Lifetime reward-currency amount paid out from global farms to yield farms.",
			}, []string{"global_farm_id"}),
			RoundingDust: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "warehouse",
				Subsystem: "farming",
				Name:      "rounding_dust",
				Help:      "Loyalty-curve unclaimed remainder currently retained by each yield farm.",
			}, []string{"yield_farm_id"}),
			ClaimsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "warehouse",
				Subsystem: "farming",
				Name:      "claims_total",
				Help:      "Count of claim_rewards calls segmented by outcome.",
			}, []string{"outcome"}),
			ActiveFarms: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "warehouse",
				Subsystem: "farming",
				Name:      "active_yield_farms",
				Help:      "Count of yield farms currently in the Active state.",
			}),
		}
		prometheus.MustRegister(
			farmingRegistry.EmissionPool,
			farmingRegistry.RewardsPaid,
			farmingRegistry.RoundingDust,
			farmingRegistry.ClaimsTotal,
			farmingRegistry.ActiveFarms,
		)
	})
	return farmingRegistry
}
