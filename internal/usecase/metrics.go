package usecase

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/macrolens/foodengine/internal/domain"
)

// metricsResolver holds Prometheus metrics for provider dispatch and caching
type metricsResolver struct {
	once sync.Once

	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	resolutions     *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

var resolverMetrics metricsResolver

func (m *metricsResolver) init() {
	m.once.Do(func() {
		m.providerCalls = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodengine_provider_calls_total",
				Help: "Provider calls by provider, capability and outcome",
			},
			[]string{"provider", "capability", "outcome"},
		)
		m.providerLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foodengine_provider_call_duration_seconds",
				Help:    "Provider call latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
			},
			[]string{"provider"},
		)
		m.resolutions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodengine_resolutions_total",
				Help: "Resolver runs by policy and final state",
			},
			[]string{"policy", "state"},
		)
		m.cacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodengine_cache_lookups_total",
				Help: "Read-through cache lookups by outcome",
			},
			[]string{"outcome"},
		)
		prometheus.MustRegister(m.providerCalls, m.providerLatency, m.resolutions, m.cacheLookups)
	})
}

func recordProviderCall(capability domain.Capability, res domain.ProviderResult) {
	resolverMetrics.init()
	outcome := "success"
	switch {
	case res.Err != nil:
		outcome = string(res.Err.Kind)
	case len(res.Records) == 0:
		outcome = "empty"
	}
	resolverMetrics.providerCalls.WithLabelValues(res.Source, string(capability), outcome).Inc()
	resolverMetrics.providerLatency.WithLabelValues(res.Source).Observe(res.Latency.Seconds())
}

func recordResolution(policy domain.Policy, final state) {
	resolverMetrics.init()
	resolverMetrics.resolutions.WithLabelValues(string(policy), string(final)).Inc()
}

// CacheMetrics counts read-through cache lookups. It satisfies
// cache.Observer.
type CacheMetrics struct{}

// ObserveLookup records one lookup outcome
func (CacheMetrics) ObserveLookup(outcome string) {
	resolverMetrics.init()
	resolverMetrics.cacheLookups.WithLabelValues(outcome).Inc()
}

// durationString renders elapsed time the way response metadata reports it
func durationString(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
