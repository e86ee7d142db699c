// Package metrics exposes the event notifications spec §6 names for
// monitoring: counters (orders checked, orders rejected by violation
// kind, kill switch activations, pool exhaustion) and gauges (open
// orders, active exchanges). No teacher analog exists (the teacher logs
// via slog only); grounded on the prometheus/client_golang idiom named
// for this concern in the pack's dependency manifests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hftmm/pkg/types"
)

// Registry bundles every counter/gauge the engine publishes, scoped to
// its own prometheus.Registry rather than the global default so tests
// can construct independent instances.
type Registry struct {
	reg *prometheus.Registry

	ordersChecked        prometheus.Counter
	ordersRejected       *prometheus.CounterVec
	killSwitchActivations prometheus.Counter
	poolExhaustion        *prometheus.CounterVec
	openOrders            prometheus.Gauge
	activeExchanges       prometheus.Gauge
}

// NewRegistry builds and registers every collector.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		ordersChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mmengine",
			Name:      "orders_checked_total",
			Help:      "Total orders evaluated by the risk gate.",
		}),
		ordersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mmengine",
			Name:      "orders_rejected_total",
			Help:      "Orders rejected by the risk gate, by violation kind.",
		}, []string{"violation"}),
		killSwitchActivations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mmengine",
			Name:      "kill_switch_activations_total",
			Help:      "Number of times the kill switch has engaged.",
		}),
		poolExhaustion: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mmengine",
			Name:      "pool_exhaustion_total",
			Help:      "Number of times a fixed-capacity pool failed to allocate.",
		}, []string{"pool"}),
		openOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mmengine",
			Name:      "open_orders",
			Help:      "Current count of open orders across all venues.",
		}),
		activeExchanges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mmengine",
			Name:      "active_exchanges",
			Help:      "Current count of connected venue adapters.",
		}),
	}

	reg.MustRegister(r.ordersChecked, r.ordersRejected, r.killSwitchActivations,
		r.poolExhaustion, r.openOrders, r.activeExchanges)
	return r
}

// Handler returns the HTTP handler internal/api mounts at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// IncOrdersChecked records one more risk-gate evaluation.
func (r *Registry) IncOrdersChecked() { r.ordersChecked.Inc() }

// IncOrdersRejected records one rejection under violation's kind.
func (r *Registry) IncOrdersRejected(violation types.RiskViolation) {
	r.ordersRejected.WithLabelValues(violation.String()).Inc()
}

// IncKillSwitchActivations records one kill-switch engagement.
func (r *Registry) IncKillSwitchActivations() { r.killSwitchActivations.Inc() }

// IncPoolExhaustion records one failed allocation from the named pool.
func (r *Registry) IncPoolExhaustion(pool string) {
	r.poolExhaustion.WithLabelValues(pool).Inc()
}

// SetOpenOrders reports the current open-order count.
func (r *Registry) SetOpenOrders(n int64) { r.openOrders.Set(float64(n)) }

// SetActiveExchanges reports the current connected-venue count.
func (r *Registry) SetActiveExchanges(n int) { r.activeExchanges.Set(float64(n)) }
