package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exports search and depth charge counters. Collectors it hands
// out feed both their own per-search totals and the shared counters.
type Prometheus struct {
	episodes     prometheus.Counter
	fullPlayouts prometheus.Counter
	rolloutDepth prometheus.Histogram
	searches     prometheus.Histogram
	depthCharges *prometheus.CounterVec
	chargeRate   *prometheus.GaugeVec
}

func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		episodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ggp",
			Subsystem: "search",
			Name:      "episodes_total",
			Help:      "Number of MCTS episodes completed.",
		}),
		fullPlayouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ggp",
			Subsystem: "search",
			Name:      "full_playouts_total",
			Help:      "Number of rollouts that reached a terminal state.",
		}),
		rolloutDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ggp",
			Subsystem: "search",
			Name:      "rollout_depth",
			Help:      "Moves played per rollout before a terminal state or the cutoff.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		searches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ggp",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Wall-clock time spent per move search.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		depthCharges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ggp",
			Subsystem: "propnet",
			Name:      "depth_charges_total",
			Help:      "Number of random playouts run by the state machine.",
		}, []string{"backend"}),
		chargeRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ggp",
			Subsystem: "propnet",
			Name:      "depth_charges_per_second",
			Help:      "Depth charge throughput of the last measurement.",
		}, []string{"backend", "goroutines"}),
	}
	reg.MustRegister(p.episodes, p.fullPlayouts, p.rolloutDepth, p.searches, p.depthCharges, p.chargeRate)
	return p
}

// Collector returns a per-search collector that also feeds p.
func (p *Prometheus) Collector() Collector {
	return &promCollector{Collector: NewCollector(), p: p}
}

// ObserveDepthCharges records n charges played in elapsed by backend.
func (p *Prometheus) ObserveDepthCharges(backend, goroutines string, n int, elapsed time.Duration) {
	p.depthCharges.WithLabelValues(backend).Add(float64(n))
	if elapsed > 0 {
		p.chargeRate.WithLabelValues(backend, goroutines).Set(float64(n) / elapsed.Seconds())
	}
}

type promCollector struct {
	Collector
	p *Prometheus
}

func (c *promCollector) AddEpisode() {
	c.Collector.AddEpisode()
	c.p.episodes.Inc()
}

func (c *promCollector) AddRollout(depth int, terminal bool) {
	c.Collector.AddRollout(depth, terminal)
	c.p.rolloutDepth.Observe(float64(depth))
	if terminal {
		c.p.fullPlayouts.Inc()
	}
}

func (c *promCollector) Complete() SearchMetric {
	m := c.Collector.Complete()
	c.p.searches.Observe(m.Duration.Seconds())
	return m
}
