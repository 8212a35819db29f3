package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hazard_route"

// Metrics holds the Prometheus counters, histograms, and gauges for the engine
// and the request worker.
type Metrics struct {
	// Engine metrics.
	Requests          *prometheus.CounterVec   // labels: op, status={success,error}
	RequestDuration   *prometheus.HistogramVec // labels: op
	Errors            *prometheus.CounterVec   // labels: code
	HazardsPerRequest prometheus.Histogram
	NodesSettled      prometheus.Histogram
	ResultCache       *prometheus.CounterVec // labels: result={hit,miss}

	// Graph store metrics.
	GraphReloads *prometheus.CounterVec // labels: outcome={success,error}
	GraphNodes   prometheus.Gauge
	GraphEdges   prometheus.Gauge

	// Worker metrics.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	WorkerRunning           prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
	QueueLag                prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Engine requests by operation and status.",
		}, []string{"op", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent answering one engine request.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Error documents produced, by error code.",
		}, []string{"code"}),
		HazardsPerRequest: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hazards_per_request",
			Help:      "Number of hazard records supplied with a route request.",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		}),
		NodesSettled: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "nodes_settled",
			Help:      "Nodes settled by the shortest-path search per route request.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		ResultCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_total",
			Help:      "Result cache lookups by result.",
		}, []string{"result"}),
		GraphReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_reloads_total",
			Help:      "Graph definition reloads by outcome.",
		}, []string{"outcome"}),
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the active graph.",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Roads in the active graph.",
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total request messages read from the request topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total result messages written to the result topic.",
		}),
		WorkerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_running",
			Help:      "1 when the request worker is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of request messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-dispatch-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		QueueLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_queue_lag_seconds",
			Help:      "Time between a request being produced and the worker reading it.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60, 300},
		}),
	}

	reg.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.Errors,
		m.HazardsPerRequest,
		m.NodesSettled,
		m.ResultCache,
		m.GraphReloads,
		m.GraphNodes,
		m.GraphEdges,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.WorkerRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.QueueLag,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}
