package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics live on a registry owned by one Runner.
type metrics struct {
	jobsTotal     *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	expandedNodes *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		jobsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mixopt_batch_jobs_total",
				Help: "Total number of batch jobs by kind and status",
			},
			[]string{"kind", "status"},
		),
		jobDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mixopt_batch_job_duration_seconds",
				Help:    "Time taken to run one batch job",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"kind"},
		),
		expandedNodes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mixopt_search_expanded_nodes_total",
				Help: "Search states expanded by successful batch jobs",
			},
			[]string{"kind"},
		),
	}
}
