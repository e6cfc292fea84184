// Package telemetry exposes a rank's benchmark measurements as Prometheus
// gauges.
package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luca-patrignani/graph-bench/bench"
)

// Stage label values.
const (
	StageCompute = "compute"
	StageGather  = "gather"
	StageReduce  = "reduce"
)

// Recorder owns a private registry so several ranks can live in one process.
type Recorder struct {
	registry        *prometheus.Registry
	stageSeconds    *prometheus.GaugeVec
	latency         prometheus.Gauge
	bandwidth       prometheus.Gauge
	edgesProcessed  prometheus.Gauge
	verticesTouched prometheus.Gauge
	runs            prometheus.Counter
}

// NewRecorder creates the gauges of rank, labelled with it.
func NewRecorder(rank int) *Recorder {
	labels := prometheus.Labels{"rank": strconv.Itoa(rank)}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "graphbench_stage_duration_seconds",
			Help:        "Wall-clock duration of the last run's stages.",
			ConstLabels: labels,
		}, []string{"stage"}),
		latency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "graphbench_estimated_latency_seconds",
			Help:        "Reduce duration divided by the group size.",
			ConstLabels: labels,
		}),
		bandwidth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "graphbench_estimated_bandwidth_megabytes_per_second",
			Help:        "Edge payload over the reduce duration.",
			ConstLabels: labels,
		}),
		edgesProcessed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "graphbench_edges_processed",
			Help:        "Edges in the local partition.",
			ConstLabels: labels,
		}),
		verticesTouched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "graphbench_vertices_touched",
			Help:        "Distinct vertices in the local partition.",
			ConstLabels: labels,
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "graphbench_runs_total",
			Help:        "Completed benchmark runs.",
			ConstLabels: labels,
		}),
	}
	r.registry.MustRegister(
		r.stageSeconds,
		r.latency,
		r.bandwidth,
		r.edgesProcessed,
		r.verticesTouched,
		r.runs,
	)
	return r
}

// Observe records a completed run.
func (r *Recorder) Observe(rep bench.Report) {
	r.stageSeconds.WithLabelValues(StageCompute).Set(rep.Compute.Seconds())
	r.stageSeconds.WithLabelValues(StageGather).Set(rep.Gather.Seconds())
	r.stageSeconds.WithLabelValues(StageReduce).Set(rep.Reduce.Seconds())
	r.latency.Set(rep.Metrics.Latency)
	r.bandwidth.Set(rep.Metrics.Bandwidth)
	r.edgesProcessed.Set(float64(rep.EdgesProcessed()))
	r.verticesTouched.Set(float64(rep.VerticesTouched))
	r.runs.Inc()
}

// Registry returns the registry holding the gauges.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the gauges in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
