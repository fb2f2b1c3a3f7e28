package report

import (
	"github.com/prometheus/client_golang/prometheus"

	"cutting_stock_cg/src/cutstock"
)

const namespace = "cutstock"

// Metrics exposes the progress of column generation runs as Prometheus
// metrics on its own registry. The gauges describe the latest run, so they
// only exist on metrics built by NewMetrics.
type Metrics struct {
	cutstock.NopObserver
	registry *prometheus.Registry

	iterations       prometheus.Counter
	patternsPriced   *prometheus.CounterVec
	lpObjective      prometheus.Gauge
	reducedCost      prometheus.Gauge
	poolSize         prometheus.Gauge
	boards           prometheus.Gauge
	runs             *prometheus.CounterVec
	iterationsPerRun prometheus.Histogram
}

// NewMetrics observes one run at a time.
func NewMetrics() *Metrics {
	return newMetrics(true)
}

// NewSharedMetrics observes concurrent runs. It keeps the counters and the
// histogram and leaves out the per run gauges.
func NewSharedMetrics() *Metrics {
	return newMetrics(false)
}

func newMetrics(gauges bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "master_solves_total",
			Help:      "Number of restricted master LP solves.",
		}),
		patternsPriced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patterns_priced_total",
			Help:      "Number of pricing solves, by whether the pattern was added to the pool.",
		}, []string{"accepted"}),
		lpObjective: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lp_objective_boards",
			Help:      "Objective of the last restricted master LP solve.",
		}),
		reducedCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reduced_cost",
			Help:      "Reduced cost of the last priced pattern.",
		}),
		poolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pattern_pool_size",
			Help:      "Number of patterns in the pool at the last master solve.",
		}),
		boards: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "integer_boards",
			Help:      "Boards used by the last integer solution.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished column generation runs, by outcome.",
		}, []string{"outcome"}),
		iterationsPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_iterations",
			Help:      "Master solves per finished run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	m.registry.MustRegister(m.iterations, m.patternsPriced, m.runs, m.iterationsPerRun)
	if gauges {
		m.registry.MustRegister(m.lpObjective, m.reducedCost, m.poolSize, m.boards)
	} else {
		m.lpObjective, m.reducedCost, m.poolSize, m.boards = nil, nil, nil, nil
	}
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) MasterSolved(_ int, pool *cutstock.PatternPool, sol *cutstock.MasterSolution) {
	m.iterations.Inc()
	if m.lpObjective != nil {
		m.lpObjective.Set(sol.Objective)
		m.poolSize.Set(float64(pool.Len()))
	}
}

func (m *Metrics) PatternPriced(_ int, sol *cutstock.PricingSolution, accepted bool) {
	label := "false"
	if accepted {
		label = "true"
	}
	m.patternsPriced.WithLabelValues(label).Inc()
	if m.reducedCost != nil {
		m.reducedCost.Set(sol.ReducedCost)
	}
}

func (m *Metrics) Finished(res *cutstock.Result) {
	if m.boards != nil {
		m.boards.Set(res.Boards)
	}
	m.runs.WithLabelValues(res.Outcome.String()).Inc()
	m.iterationsPerRun.Observe(float64(res.Iterations))
}

// WriteTextfile writes the current values in the text exposition format,
// for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, m.registry)
}
