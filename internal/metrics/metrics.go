package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the service exposes. All layers receive
// this value at construction and observe into it; nothing here changes
// behavior of the wrapped calls.
type Metrics struct {
	registry *prometheus.Registry

	FetchDuration *prometheus.HistogramVec
	StoreDuration *prometheus.HistogramVec
	RowsInserted  *prometheus.CounterVec
	RunsTotal     *prometheus.CounterVec
	PairFailures  *prometheus.CounterVec
}

// New builds a self-contained registry so tests can hold independent
// instances.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cryptorates",
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Duration of upstream API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "op", "outcome"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cryptorates",
			Name:      "store_query_duration_seconds",
			Help:      "Duration of rate store operations.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"op"}),
		RowsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cryptorates",
			Name:      "rows_inserted_total",
			Help:      "Rate rows inserted after dedupe.",
		}, []string{"pair"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cryptorates",
			Name:      "runs_total",
			Help:      "Backfill/gap-fill runs by mode and outcome.",
		}, []string{"mode", "outcome"}),
		PairFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cryptorates",
			Name:      "pair_failures_total",
			Help:      "Pairs skipped inside a run because their fetch failed.",
		}, []string{"pair"}),
	}
	reg.MustRegister(m.FetchDuration, m.StoreDuration, m.RowsInserted, m.RunsTotal, m.PairFailures)
	return m
}

// ObserveFetch records one upstream call.
func (m *Metrics) ObserveFetch(source, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchDuration.WithLabelValues(source, op, outcome).Observe(time.Since(start).Seconds())
}

// ObserveStore records one store operation.
func (m *Metrics) ObserveStore(op string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// AddInserted counts deduplicated inserts for a pair.
func (m *Metrics) AddInserted(pair string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsInserted.WithLabelValues(pair).Add(float64(n))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
