package httpapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"aavetx/internal/domain"

	"github.com/axiomhq/hyperloglog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeFound      = "found"
	outcomeNotFound   = "not_found"
	outcomeIncomplete = "incomplete"
	outcomeError      = "error"
)

// Metrics records resolver activity on a private Prometheus registry.
type Metrics struct {
	registry       *prometheus.Registry
	startTime      time.Time
	lookups        *prometheus.CounterVec
	probes         *prometheus.CounterVec
	probeLatency   *prometheus.HistogramVec
	resolveLatency prometheus.Histogram

	mu     sync.Mutex
	hashes *hyperloglog.Sketch
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
		hashes:    hyperloglog.New14(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aavetx_lookups_total",
			Help: "Finished lookups by outcome.",
		}, []string{"outcome"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aavetx_chain_probes_total",
			Help: "Subgraph probes by chain and outcome.",
		}, []string{"chain", "outcome"}),
		probeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aavetx_chain_probe_duration_seconds",
			Help:    "Latency of a single subgraph probe.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"chain"}),
		resolveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aavetx_resolve_duration_seconds",
			Help:    "Latency of a full cross-chain resolution.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	m.registry.MustRegister(
		m.lookups,
		m.probes,
		m.probeLatency,
		m.resolveLatency,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "aavetx_distinct_hashes_estimate",
			Help: "Approximate number of distinct transaction hashes looked up.",
		}, func() float64 { return float64(m.DistinctHashes()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "aavetx_uptime_seconds",
			Help: "Seconds since the process started.",
		}, func() float64 { return time.Since(m.startTime).Seconds() }),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveProbe(probe domain.Probe) {
	m.probes.WithLabelValues(probe.Chain.String(), string(probe.Outcome)).Inc()
	if probe.Outcome != domain.ProbeCancelled {
		m.probeLatency.WithLabelValues(probe.Chain.String()).Observe(probe.Duration.Seconds())
	}
}

func (m *Metrics) ObserveResolution(res domain.Resolution) {
	m.lookups.WithLabelValues(resolutionOutcome(res)).Inc()
	m.resolveLatency.Observe(res.Elapsed.Seconds())

	m.mu.Lock()
	m.hashes.Insert([]byte(strings.ToLower(res.Hash)))
	m.mu.Unlock()
}

// ObserveLookupError counts lookups that failed before any chain answered.
func (m *Metrics) ObserveLookupError() {
	m.lookups.WithLabelValues(outcomeError).Inc()
}

func (m *Metrics) DistinctHashes() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hashes.Estimate()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func resolutionOutcome(res domain.Resolution) string {
	if res.Found {
		return outcomeFound
	}
	for _, probe := range res.Probes {
		if probe.Outcome == domain.ProbeFailed || probe.Outcome == domain.ProbeCancelled {
			return outcomeIncomplete
		}
	}
	return outcomeNotFound
}
