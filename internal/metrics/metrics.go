// Package metrics exposes Prometheus collectors for tree builds and HTTP
// traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rdstree"

// Orphan reasons always reported, so a clean build resets the gauges to zero.
var orphanReasons = []string{"missing_parent", "cyclic_parent"}

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	TreeBuilds      prometheus.Counter
	BuildDuration   prometheus.Histogram
	TreeNodes       *prometheus.GaugeVec
	DuplicateGroups *prometheus.GaugeVec
	Orphans         *prometheus.GaugeVec
	HTTPRequests    *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TreeBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_builds_total",
			Help:      "Number of forest builds.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tree_build_duration_seconds",
			Help:      "Time taken to build the forest.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		TreeNodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_nodes",
			Help:      "Retained nodes in the latest forest of each facility.",
		}, []string{"facility"}),
		DuplicateGroups: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_duplicate_groups",
			Help:      "Codes claimed by more than one object in the latest forest of each facility.",
		}, []string{"facility"}),
		Orphans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_orphans",
			Help:      "Orphaned nodes in the latest forest of each facility by reason.",
		}, []string{"facility", "reason"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TreeBuilds,
		m.BuildDuration,
		m.TreeNodes,
		m.DuplicateGroups,
		m.Orphans,
		m.HTTPRequests,
	)
	return m
}

// ObserveBuild records one completed build of a facility. orphans is keyed by
// reason.
func (m *Metrics) ObserveBuild(facility string, d time.Duration, nodes, duplicateGroups int, orphans map[string]int) {
	m.TreeBuilds.Inc()
	m.BuildDuration.Observe(d.Seconds())
	m.TreeNodes.WithLabelValues(facility).Set(float64(nodes))
	m.DuplicateGroups.WithLabelValues(facility).Set(float64(duplicateGroups))
	for _, reason := range orphanReasons {
		m.Orphans.WithLabelValues(facility, reason).Set(float64(orphans[reason]))
	}
}

// ForgetFacility drops the gauges of a facility that no longer has objects.
func (m *Metrics) ForgetFacility(facility string) {
	m.TreeNodes.DeleteLabelValues(facility)
	m.DuplicateGroups.DeleteLabelValues(facility)
	m.Orphans.DeletePartialMatch(prometheus.Labels{"facility": facility})
}

// ObserveRequest counts one served HTTP request.
func (m *Metrics) ObserveRequest(method string, status int) {
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
